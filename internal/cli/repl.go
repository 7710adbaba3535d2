// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/offchat-tui/internal/config"
	"github.com/jeranaias/offchat-tui/internal/engine"
	"github.com/jeranaias/offchat-tui/internal/model"
	"github.com/jeranaias/offchat-tui/internal/ui/styles"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// inputReader wraps liner with persistent history in the config dir.
// Supports arrow keys for history navigation and line editing.
type inputReader struct {
	line        *liner.State
	historyFile string
}

func newInputReader() *inputReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	r := &inputReader{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	r.loadHistory()
	return r
}

func (r *inputReader) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

// readInput reads a line with history navigation.
func (r *inputReader) readInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// saveHistory persists history with owner-only permissions.
func (r *inputReader) saveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

func (r *inputReader) close() {
	r.saveHistory()
	r.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// runChat handles "offchat chat": an interactive REPL against a single
// model session. The conversation is persisted through the chat store
// like the TUI's chats are.
func runChat(deps Deps, args *ArgParser) error {
	if !IsTTY() {
		return fmt.Errorf("chat requires an interactive terminal; use \"offchat ask\" for piped input")
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

	chat := deps.Chats.CreateChat(desc)

	reader := newInputReader()
	defer reader.close()

	fmt.Println(welcomeStyle.Render("offchat — " + desc.Title))
	fmt.Println(infoStyle.Render("Type /exit to quit, /new for a fresh chat, /help for commands."))
	fmt.Println()

	runCfg := engine.RunConfig{
		Temperature: deps.Config.Chat.Temperature,
		MaxTokens:   deps.Config.Chat.MaxTokens,
	}

	for {
		input, err := reader.readInput(promptStyle.Render("offchat> "))
		if err != nil {
			// Ctrl+C or Ctrl+D exits gracefully.
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			done, fresh := handleSlashCommand(deps, input, desc)
			if done {
				return nil
			}
			if fresh != nil {
				chat = fresh
				// A fresh chat gets a fresh session so no context
				// leaks across conversations.
				sess, err = deps.Engine.OpenSession(handle, engine.SessionConfig{
					ContextMode:  engine.ContextDynamic,
					SystemPrompt: deps.Config.Chat.SystemPrompt,
				})
				if err != nil {
					return fmt.Errorf("opening session: %w", err)
				}
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}

		deps.Chats.AppendMessage(chat, model.NewUserMessage(input))

		out, err := sess.Run(ctx, input, runCfg, func(token string) bool {
			fmt.Print(token)
			return true
		})
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			continue
		}

		deps.Chats.AppendMessage(chat, model.NewAssistantMessage(out.Text))
		deps.Chats.SetTitleFromPrompt(chat, input)
	}
}

// handleSlashCommand processes a /command. Returns done=true to exit
// and a non-nil chat when a new conversation was started.
func handleSlashCommand(deps Deps, input string, desc model.Descriptor) (done bool, fresh *model.Chat) {
	switch strings.Fields(input)[0] {
	case "/exit", "/quit":
		return true, nil

	case "/new":
		fresh = deps.Chats.CreateChat(desc)
		fmt.Println(infoStyle.Render("Started a new chat."))
		return false, fresh

	case "/models":
		for _, d := range model.Catalog {
			marker := "  "
			if d.ID == desc.ID {
				marker = "* "
			}
			fmt.Printf("%s%s  (%s, %s)\n", marker, d.ID, d.Params, d.SizeEstimate)
		}
		return false, nil

	case "/help":
		fmt.Println(infoStyle.Render("/new     start a new chat"))
		fmt.Println(infoStyle.Render("/models  list available models"))
		fmt.Println(infoStyle.Render("/exit    quit"))
		return false, nil

	default:
		fmt.Println(infoStyle.Render("Unknown command. Try /help."))
		return false, nil
	}
}
