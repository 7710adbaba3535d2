// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for offchat.
//
// Configuration is TOML, loaded from ~/.offchat/config.toml with
// built-in defaults and environment variable overrides (OFFCHAT_*).
// Validation rejects unknown storage backends, themes, log levels,
// and model IDs outside the catalog.
//
// Watcher provides hot reload: it watches the config file and invokes
// a callback with the reloaded config after each valid on-disk change.
package config
