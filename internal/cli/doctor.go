// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/offchat-tui/internal/engine"
	"github.com/jeranaias/offchat-tui/internal/model"
	"github.com/jeranaias/offchat-tui/internal/ui/styles"
)

// =============================================================================
// DOCTOR STYLES
// =============================================================================

var (
	checkPassStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Bold(true)

	checkWarnStyle = lipgloss.NewStyle().
			Foreground(styles.Amber).
			Bold(true)

	checkFailStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)

	fixStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			PaddingLeft(2)
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	CheckPass CheckStatus = iota
	CheckWarn
	CheckFail
)

// Symbol returns the rendered status marker.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return checkPassStyle.Render("[OK]")
	case CheckWarn:
		return checkWarnStyle.Render("[!!]")
	case CheckFail:
		return checkFailStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string
}

// =============================================================================
// DOCTOR COMMAND
// =============================================================================

// runDoctor handles "offchat doctor": environment diagnostics for the
// daemon, storage, and the model catalog.
func runDoctor(deps Deps) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	checks := []HealthCheck{
		checkConfig(deps),
		checkStorage(deps),
		checkDaemon(ctx, deps),
	}
	checks = append(checks, checkModels(ctx, deps)...)

	failed := 0
	for _, c := range checks {
		fmt.Printf("%s %s — %s\n", c.Status.Symbol(), c.Name, c.Message)
		if c.Fix != "" {
			fmt.Println(fixStyle.Render(c.Fix))
		}
		if c.Status == CheckFail {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func checkConfig(deps Deps) HealthCheck {
	if err := deps.Config.Validate(); err != nil {
		return HealthCheck{
			Name:    "Config",
			Status:  CheckFail,
			Message: err.Error(),
			Fix:     "edit ~/.offchat/config.toml or delete it to regenerate defaults",
		}
	}
	return HealthCheck{Name: "Config", Status: CheckPass, Message: "configuration is valid"}
}

func checkStorage(deps Deps) HealthCheck {
	dir, err := deps.Config.DataDir()
	if err != nil {
		return HealthCheck{Name: "Storage", Status: CheckFail, Message: err.Error()}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return HealthCheck{
			Name:    "Storage",
			Status:  CheckFail,
			Message: fmt.Sprintf("data dir %s is not writable: %v", dir, err),
		}
	}
	return HealthCheck{Name: "Storage", Status: CheckPass, Message: dir + " (" + deps.Config.Storage.Backend + " backend)"}
}

func checkDaemon(ctx context.Context, deps Deps) HealthCheck {
	type pinger interface {
		CheckRunning(ctx context.Context) error
	}
	p, ok := deps.Engine.(pinger)
	if !ok {
		return HealthCheck{Name: "Engine", Status: CheckWarn, Message: "engine does not support health checks"}
	}
	if err := p.CheckRunning(ctx); err != nil {
		return HealthCheck{
			Name:    "Engine",
			Status:  CheckFail,
			Message: fmt.Sprintf("daemon at %s is not responding", deps.Config.Engine.BaseURL),
			Fix:     "start the local inference daemon, or set OFFCHAT_ENGINE_URL",
		}
	}
	return HealthCheck{Name: "Engine", Status: CheckPass, Message: "daemon is responding at " + deps.Config.Engine.BaseURL}
}

func checkModels(ctx context.Context, deps Deps) []HealthCheck {
	checks := make([]HealthCheck, 0, len(model.Catalog))
	for _, d := range model.Catalog {
		if _, err := deps.Engine.ResolveModel(ctx, d.ID); err != nil {
			status := CheckWarn
			msg := "not downloaded"
			if !engine.IsNotFound(err) {
				msg = err.Error()
			}
			checks = append(checks, HealthCheck{
				Name:    d.Title,
				Status:  status,
				Message: msg,
				Fix:     "download it from the offchat model selection screen",
			})
			continue
		}
		checks = append(checks, HealthCheck{Name: d.Title, Status: CheckPass, Message: "available"})
	}
	return checks
}
