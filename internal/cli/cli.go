// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/jeranaias/offchat-tui/internal/config"
	"github.com/jeranaias/offchat-tui/internal/engine"
	"github.com/jeranaias/offchat-tui/internal/model"
	"github.com/jeranaias/offchat-tui/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Deps bundles what CLI commands need.
type Deps struct {
	Config *config.Config
	Engine engine.Engine
	Chats  *store.ChatStore
	Logger *log.Logger
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes a CLI subcommand. It returns handled=false when no
// subcommand was given, which means the TUI should start instead.
func Run(deps Deps, rawArgs []string) (handled bool, err error) {
	args := NewArgParser(rawArgs)

	switch args.Subcommand() {
	case "":
		return false, nil
	case "ask":
		return true, runAsk(deps, args)
	case "chat":
		return true, runChat(deps, args)
	case "models":
		return true, runModels(deps)
	case "config":
		return true, runConfig(deps)
	case "doctor":
		return true, runDoctor(deps)
	case "version":
		fmt.Println("offchat " + Version)
		return true, nil
	case "help", "-h", "--help":
		printUsage()
		return true, nil
	default:
		printUsage()
		return true, fmt.Errorf("unknown command %q", args.Subcommand())
	}
}

// runModels lists the model catalog.
func runModels(deps Deps) error {
	for _, d := range model.Catalog {
		marker := "  "
		if d.ID == deps.Config.DefaultModel {
			marker = "* "
		}
		fmt.Printf("%s%-45s %-5s %-8s %s\n", marker, d.ID, d.Params, d.SizeEstimate, d.License)
	}
	return nil
}

// runConfig prints the active configuration as TOML.
func runConfig(deps Deps) error {
	path, err := config.ConfigPath()
	if err == nil {
		fmt.Println("# " + path)
	}
	return toml.NewEncoder(os.Stdout).Encode(deps.Config)
}

func printUsage() {
	fmt.Println(`offchat — chat with local language models

Usage:
  offchat                 start the TUI
  offchat ask "question"  answer a single question on stdout
  offchat chat            interactive chat in the terminal
  offchat models          list the model catalog
  offchat config          print the active configuration
  offchat doctor          check the daemon, storage, and models
  offchat version         print the version

Flags:
  -m, --model ID   use a specific catalog model
  --plain          disable markdown rendering (ask)`)
}
