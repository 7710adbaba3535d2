// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/jeranaias/offchat-tui/internal/config"
	"github.com/jeranaias/offchat-tui/internal/model"
)

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParserSubcommand(t *testing.T) {
	args := NewArgParser([]string{"ask", "what", "is", "go"})

	if args.Subcommand() != "ask" {
		t.Errorf("Subcommand() = %q, want %q", args.Subcommand(), "ask")
	}
	if args.Rest() != "what is go" {
		t.Errorf("Rest() = %q, want %q", args.Rest(), "what is go")
	}
}

func TestArgParserFlags(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		flag string
		want string
	}{
		{"long with space", []string{"ask", "--model", "Qwen/Qwen3-0.6B"}, "model", "Qwen/Qwen3-0.6B"},
		{"long with equals", []string{"ask", "--model=Qwen/Qwen3-0.6B"}, "model", "Qwen/Qwen3-0.6B"},
		{"short flag", []string{"ask", "-m", "Qwen/Qwen3-0.6B"}, "m", "Qwen/Qwen3-0.6B"},
		{"missing flag", []string{"ask"}, "model", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := NewArgParser(tt.raw)
			if got := args.Flag(tt.flag); got != tt.want {
				t.Errorf("Flag(%q) = %q, want %q", tt.flag, got, tt.want)
			}
		})
	}
}

func TestArgParserFlagAliases(t *testing.T) {
	args := NewArgParser([]string{"ask", "-m", "x"})
	if got := args.Flag("model", "m"); got != "x" {
		t.Errorf("Flag(model, m) = %q, want %q", got, "x")
	}
}

func TestArgParserBoolFlags(t *testing.T) {
	args := NewArgParser([]string{"ask", "--plain", "--json=false", "question"})

	if !args.BoolFlag("plain") {
		t.Error("BoolFlag(plain) = false, want true")
	}
	if args.BoolFlag("json") {
		t.Error("BoolFlag(json) = true, want false")
	}
	if args.BoolFlag("missing") {
		t.Error("BoolFlag(missing) = true, want false")
	}
	if args.Rest() != "question" {
		t.Errorf("Rest() = %q, want %q", args.Rest(), "question")
	}
}

func TestArgParserEmpty(t *testing.T) {
	args := NewArgParser(nil)

	if args.Subcommand() != "" {
		t.Errorf("Subcommand() = %q, want empty", args.Subcommand())
	}
	if args.Positional() != nil {
		t.Errorf("Positional() = %v, want nil", args.Positional())
	}
}

// =============================================================================
// DESCRIPTOR RESOLUTION TESTS
// =============================================================================

func TestResolveDescriptorDefault(t *testing.T) {
	deps := Deps{Config: config.Default()}

	desc, err := resolveDescriptor(deps, "")
	if err != nil {
		t.Fatalf("resolveDescriptor: %v", err)
	}
	if desc.ID != deps.Config.DefaultModel {
		t.Errorf("descriptor = %q, want configured default %q", desc.ID, deps.Config.DefaultModel)
	}
}

func TestResolveDescriptorFlagWins(t *testing.T) {
	deps := Deps{Config: config.Default()}
	want := model.Catalog[0].ID

	desc, err := resolveDescriptor(deps, want)
	if err != nil {
		t.Fatalf("resolveDescriptor: %v", err)
	}
	if desc.ID != want {
		t.Errorf("descriptor = %q, want %q", desc.ID, want)
	}
}

func TestResolveDescriptorUnknownModel(t *testing.T) {
	deps := Deps{Config: config.Default()}

	if _, err := resolveDescriptor(deps, "not/a-model"); err == nil {
		t.Fatal("expected error for unknown model")
	}
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestRunNoSubcommandStartsTUI(t *testing.T) {
	handled, err := Run(Deps{Config: config.Default()}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if handled {
		t.Error("Run handled empty args; the TUI should start instead")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	handled, err := Run(Deps{Config: config.Default()}, []string{"frobnicate"})
	if !handled {
		t.Error("unknown command should be handled")
	}
	if err == nil {
		t.Error("unknown command should error")
	}
}

func TestRunVersion(t *testing.T) {
	handled, err := Run(Deps{Config: config.Default()}, []string{"version"})
	if !handled || err != nil {
		t.Errorf("Run(version) = (%v, %v), want (true, nil)", handled, err)
	}
}

func TestRunModels(t *testing.T) {
	handled, err := Run(Deps{Config: config.Default()}, []string{"models"})
	if !handled || err != nil {
		t.Errorf("Run(models) = (%v, %v), want (true, nil)", handled, err)
	}
}
