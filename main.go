// offchat TUI - A terminal interface for chatting with local LLMs.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/jeranaias/offchat-tui/internal/cli"
	"github.com/jeranaias/offchat-tui/internal/config"
	"github.com/jeranaias/offchat-tui/internal/download"
	"github.com/jeranaias/offchat-tui/internal/engine"
	"github.com/jeranaias/offchat-tui/internal/engine/local"
	"github.com/jeranaias/offchat-tui/internal/session"
	"github.com/jeranaias/offchat-tui/internal/storage"
	"github.com/jeranaias/offchat-tui/internal/store"
	"github.com/jeranaias/offchat-tui/internal/ui"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// A broken config file should not brick the app; fall back to
		// defaults and say so.
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		cfg = config.Default()
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	blobs, cleanup, err := newBlobStore(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening storage: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	chats := store.New(blobs, logger)

	eng := local.New(&local.Config{
		BaseURL: cfg.Engine.BaseURL,
		APIKey:  cfg.Engine.APIKey,
		Timeout: time.Duration(cfg.Engine.TimeoutSecs) * time.Second,
	})

	deps := cli.Deps{
		Config: cfg,
		Engine: eng,
		Chats:  chats,
		Logger: logger,
	}
	if handled, err := cli.Run(deps, os.Args[1:]); handled {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runTUI(cfg, logger, eng, chats)
}

// =============================================================================
// TUI STARTUP
// =============================================================================

func runTUI(cfg *config.Config, logger *log.Logger, eng engine.Engine, chats *store.ChatStore) {
	if !cli.IsTTY() {
		fmt.Fprintln(os.Stderr, "Error: offchat needs an interactive terminal; try \"offchat ask\" for piped use")
		os.Exit(1)
	}

	dispatcher := &ui.Dispatcher{}

	dl := download.New(eng, download.DefaultConfig(), logger, func(snap download.Snapshot) {
		dispatcher.Send(ui.DownloadMsg(snap))
	})

	chatFlow := session.NewChatFlow(eng, chats, logger, func(snap session.ChatSnapshot) {
		dispatcher.Send(ui.ChatMsg(snap))
	})
	chatFlow.SetTuning(engine.RunConfig{
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
	}, cfg.Chat.SystemPrompt)

	app := ui.New(ui.Deps{
		Config:     cfg,
		Engine:     eng,
		Chats:      chats,
		Download:   dl,
		ChatFlow:   chatFlow,
		Logger:     logger,
		Dispatcher: dispatcher,
	})

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	dispatcher.Attach(p)

	// Pick up config edits while the TUI runs. Only chat tuning is
	// re-applied live; storage and engine endpoints stay fixed.
	if path, err := config.ConfigPath(); err == nil {
		if watcher, err := config.NewWatcher(path, func(updated *config.Config) {
			chatFlow.SetTuning(engine.RunConfig{
				Temperature: updated.Chat.Temperature,
				MaxTokens:   updated.Chat.MaxTokens,
			}, updated.Chat.SystemPrompt)
		}); err == nil {
			if err := watcher.Watch(); err != nil {
				logger.Warn("config watch unavailable", "error", err)
				watcher.Close()
			} else {
				defer watcher.Close()
			}
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running offchat: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// WIRING HELPERS
// =============================================================================

// newLogger builds the application logger from config. Logs go to a
// file so they never corrupt the TUI; stderr is used only when no file
// can be opened.
func newLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}

	out := os.Stderr
	path := cfg.Log.File
	if path == "" {
		if dir, err := config.ConfigDir(); err == nil {
			path = filepath.Join(dir, "offchat.log")
		}
	}
	if path != "" {
		if err := config.EnsureConfigDir(); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600); err == nil {
				out = f
			}
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return logger
}

// newBlobStore builds the persistence backend selected in config.
func newBlobStore(cfg *config.Config) (storage.BlobStore, func(), error) {
	dir, err := cfg.DataDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, nil, err
	}

	switch cfg.Storage.Backend {
	case "sqlite":
		db, err := storage.NewSQLiteBlobStore(filepath.Join(dir, "offchat.db"))
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	default:
		fs, err := storage.NewFileBlobStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}
