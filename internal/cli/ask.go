// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/offchat-tui/internal/engine"
	"github.com/jeranaias/offchat-tui/internal/model"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders markdown content for terminal display.
// Returns the original content when rendering fails.
func renderMarkdown(content string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(TermWidth()),
	)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// runAsk handles "offchat ask": a single question answered on stdout.
//
// When stdout is a TTY and markdown is enabled the full answer is
// rendered at the end; for piped output tokens stream as they arrive.
func runAsk(deps Deps, args *ArgParser) error {
	question := strings.TrimSpace(args.Rest())
	if question == "" {
		return fmt.Errorf("usage: offchat ask \"your question\"")
	}

	desc, err := resolveDescriptor(deps, args.Flag("model", "m"))
	if err != nil {
		return err
	}

	ctx := context.Background()
	handle, err := deps.Engine.ResolveModel(ctx, desc.ID)
	if err != nil {
		if engine.IsNotFound(err) {
			return fmt.Errorf("model %s is not downloaded yet; run offchat without arguments to download it", desc.ID)
		}
		return fmt.Errorf("resolving model: %w", err)
	}

	sess, err := deps.Engine.OpenSession(handle, engine.SessionConfig{
		ContextMode:  engine.ContextDynamic,
		SystemPrompt: deps.Config.Chat.SystemPrompt,
	})
	if err != nil {
		return fmt.Errorf("opening session: %w", err)
	}

	runCfg := engine.RunConfig{
		Temperature: deps.Config.Chat.Temperature,
		MaxTokens:   deps.Config.Chat.MaxTokens,
	}

	markdown := deps.Config.UI.Markdown && IsStdoutTTY() && !args.BoolFlag("plain")

	onToken := func(token string) bool {
		if !markdown {
			fmt.Print(token)
		}
		return true
	}

	out, err := sess.Run(ctx, question, runCfg, onToken)
	if err != nil {
		return fmt.Errorf("inference failed: %w", err)
	}

	if markdown {
		fmt.Print(renderMarkdown(out.Text))
	} else {
		fmt.Println()
	}
	return nil
}

// resolveDescriptor picks a catalog entry: the --model flag when given,
// otherwise the configured default.
func resolveDescriptor(deps Deps, flag string) (model.Descriptor, error) {
	id := flag
	if id == "" {
		id = deps.Config.DefaultModel
	}
	if id == "" {
		return model.DefaultDescriptor(), nil
	}
	desc, ok := model.DescriptorByID(id)
	if !ok {
		fmt.Fprintln(os.Stderr, "Available models:")
		for _, d := range model.Catalog {
			fmt.Fprintf(os.Stderr, "  %s\n", d.ID)
		}
		return model.Descriptor{}, fmt.Errorf("unknown model %q", id)
	}
	return desc, nil
}
