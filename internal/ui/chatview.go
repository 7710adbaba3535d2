// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/offchat-tui/internal/config"
	"github.com/jeranaias/offchat-tui/internal/model"
	"github.com/jeranaias/offchat-tui/internal/session"
	"github.com/jeranaias/offchat-tui/internal/ui/styles"
)

// =============================================================================
// CHAT SCREEN
// =============================================================================

const (
	inputHeight  = 3
	headerHeight = 2
	footerHeight = 1
)

// chatModel renders the active conversation: a scrollable transcript,
// a text input, and a thinking indicator while a reply is in flight.
type chatModel struct {
	cfg      *config.Config
	snapshot session.ChatSnapshot

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// renderer is nil when markdown rendering is disabled or until the
	// first window size arrives.
	renderer *glamour.TermRenderer

	width  int
	height int
	ready  bool
}

func newChatModel(cfg *config.Config) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 0
	ti.Prompt = "> "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return chatModel{
		cfg:     cfg,
		input:   ti,
		spinner: sp,
	}
}

// setSize resizes the viewport and rebuilds the markdown renderer for
// the new wrap width.
func (m *chatModel) setSize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := height - inputHeight - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.input.Width = width - 4

	m.renderer = nil
	if m.cfg != nil && m.cfg.UI.Markdown {
		wrap := m.bubbleWidth()
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		); err == nil {
			m.renderer = r
		}
	}
}

// bubbleWidth returns the content width for message bubbles.
func (m *chatModel) bubbleWidth() int {
	w := m.width - 12
	if w < 20 {
		w = 20
	}
	if w > 100 {
		w = 100
	}
	return w
}

// apply installs a new chat snapshot and re-renders the transcript.
func (m *chatModel) apply(snap session.ChatSnapshot, t *styles.Theme) {
	m.snapshot = snap
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript(t))
	m.viewport.GotoBottom()
}

// updateComponents forwards non-key messages to the spinner and
// viewport so ticks keep flowing.
func (m chatModel) updateComponents(msg tea.Msg) (chatModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// updateInput forwards a key press to the text input and viewport.
func (m chatModel) updateInput(msg tea.KeyMsg) (chatModel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	// Scroll keys that the input does not consume.
	switch msg.String() {
	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		if m.ready {
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// RENDERING
// =============================================================================

func (m chatModel) view(t *styles.Theme) string {
	var b strings.Builder

	title := m.snapshot.Title
	if title == "" {
		title = model.PlaceholderTitle
	}
	b.WriteString(t.HeaderTitle.Render(title))
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	if m.snapshot.Thinking {
		b.WriteString(t.Spinner.Render(m.spinner.View()))
		b.WriteString(t.ThinkingText.Render(" thinking..."))
	} else {
		b.WriteString(t.InputContainer.Render(m.input.View()))
	}
	b.WriteString("\n")
	b.WriteString(m.renderShortcuts(t))

	return b.String()
}

func (m chatModel) renderTranscript(t *styles.Theme) string {
	if len(m.snapshot.Messages) == 0 {
		return t.ThinkingText.Render("Say something to get started.")
	}

	var b strings.Builder
	for i, msg := range m.snapshot.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(t, msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m chatModel) renderMessage(t *styles.Theme, msg model.Message) string {
	sender := t.MessageSender.Render(msg.Role.DisplayName())
	if m.cfg != nil && m.cfg.UI.ShowTimestamps {
		sender += " " + t.MessageTime.Render(msg.Timestamp.Format("15:04"))
	}

	content := strings.TrimSpace(msg.Content)
	if msg.Role == model.RoleAssistant && m.renderer != nil {
		if rendered, err := m.renderer.Render(content); err == nil {
			content = strings.TrimSpace(rendered)
		}
	} else {
		content = runewidth.Wrap(content, m.bubbleWidth())
	}

	var bubble string
	if msg.Role == model.RoleUser {
		bubble = t.UserBubble.Render(content)
		if m.width > 0 {
			bubble = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, sender+"\n"+bubble)
			return bubble
		}
	} else {
		bubble = t.AssistantBubble.Render(content)
	}
	return sender + "\n" + bubble
}

func (m chatModel) renderShortcuts(t *styles.Theme) string {
	items := []struct{ key, desc string }{
		{"enter", "send"},
		{"ctrl+n", "new chat"},
		{"tab", "next chat"},
		{"esc", "models"},
		{"ctrl+c", "quit"},
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, t.ShortcutKey.Render(it.key)+" "+t.ShortcutDesc.Render(it.desc))
	}
	return t.StatusBar.Render(strings.Join(parts, "  "))
}
