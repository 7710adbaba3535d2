// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/jeranaias/offchat-tui/internal/config"
	"github.com/jeranaias/offchat-tui/internal/download"
	"github.com/jeranaias/offchat-tui/internal/engine"
	"github.com/jeranaias/offchat-tui/internal/model"
	"github.com/jeranaias/offchat-tui/internal/nav"
	"github.com/jeranaias/offchat-tui/internal/session"
	"github.com/jeranaias/offchat-tui/internal/store"
	"github.com/jeranaias/offchat-tui/internal/ui/styles"
	"github.com/jeranaias/offchat-tui/internal/util"
)

// sidebarWidth is the column width of the chat-list sidebar shown in
// wide layouts.
const sidebarWidth = 28

// =============================================================================
// APP DEPENDENCIES
// =============================================================================

// Deps bundles everything the UI needs. All lifecycle state lives in
// the lifecycles; the UI holds snapshots only.
type Deps struct {
	Config     *config.Config
	Engine     engine.Engine
	Chats      *store.ChatStore
	Download   *download.Lifecycle
	ChatFlow   *session.ChatFlow
	Logger     *log.Logger
	Dispatcher *Dispatcher
}

// =============================================================================
// ROOT MODEL
// =============================================================================

// App is the root Bubble Tea model. It owns the screen selector and
// delegates update and view to the visible screen.
type App struct {
	deps  Deps
	theme *styles.Theme
	nav   *nav.Navigator

	greeting  greetingModel
	selection selectionModel
	check     checkModel
	chat      chatModel

	// checkFlow is created fresh each time the check screen is entered
	// so a retried model starts from a clean probe.
	checkFlow *session.CheckFlow

	width  int
	height int
}

// New creates the root model.
func New(deps Deps) *App {
	theme := styles.NewTheme()
	app := &App{
		deps:      deps,
		theme:     theme,
		nav:       nav.New(),
		greeting:  newGreetingModel(),
		selection: newSelectionModel(deps.Config),
		check:     newCheckModel(),
		chat:      newChatModel(deps.Config),
	}
	return app
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.chat.spinner.Tick
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.theme.SetSize(msg.Width, msg.Height)
		// The chat view gives up a column to the sidebar when wide.
		chatWidth := msg.Width
		if a.theme.GetLayoutMode() == styles.LayoutWide {
			chatWidth -= sidebarWidth
		}
		a.chat.setSize(chatWidth, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		return a.updateKey(msg)

	case DownloadMsg:
		a.selection.download = download.Snapshot(msg)
		return a, nil

	case CheckMsg:
		a.check.snapshot = session.CheckSnapshot(msg)
		return a, nil

	case ChatMsg:
		a.chat.apply(session.ChatSnapshot(msg), a.theme)
		return a, nil
	}

	// Everything else (spinner ticks, blink) goes to the chat screen's
	// components regardless of the visible screen.
	var cmd tea.Cmd
	a.chat, cmd = a.chat.updateComponents(msg)
	return a, cmd
}

// updateKey routes a key press to the visible screen.
func (a *App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.nav.Current() {
	case nav.ScreenGreeting:
		return a.updateGreeting(msg)
	case nav.ScreenModelSelection:
		return a.updateSelection(msg)
	case nav.ScreenModelCheck:
		return a.updateCheck(msg)
	case nav.ScreenChat:
		return a.updateChat(msg)
	}
	return a, nil
}

func (a *App) updateGreeting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return a, tea.Quit
	default:
		a.nav.Go(nav.ScreenModelSelection)
		return a, nil
	}
}

func (a *App) updateSelection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dl := a.deps.Download
	snap := a.selection.download

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "up", "k":
		if !snap.IsDownloading {
			a.selection.moveCursor(-1)
			dl.SelectModel(a.selection.selected())
		}
	case "down", "j":
		if !snap.IsDownloading {
			a.selection.moveCursor(1)
			dl.SelectModel(a.selection.selected())
		}
	case "enter":
		if snap.IsReady {
			a.enterCheck()
			return a, nil
		}
		if !snap.IsDownloading {
			dl.SelectModel(a.selection.selected())
			dl.Start(context.Background())
		}
	case "c", "esc":
		dl.Cancel()
	}
	return a, nil
}

// enterCheck moves to the check screen and starts the probe.
func (a *App) enterCheck() {
	a.checkFlow = session.NewCheckFlow(a.deps.Engine, a.selection.selected(), a.deps.Logger, func(snap session.CheckSnapshot) {
		a.deps.Dispatcher.Send(CheckMsg(snap))
	})
	a.check = newCheckModel()
	a.nav.Go(nav.ScreenModelCheck)
	a.checkFlow.Run(context.Background())
}

func (a *App) updateCheck(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := a.check.snapshot

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc":
		if !snap.Thinking {
			a.nav.Go(nav.ScreenModelSelection)
		}
	case "r":
		if snap.Failed {
			a.checkFlow.Run(context.Background())
		}
	case "enter":
		if snap.Answered {
			a.enterChat()
		}
	}
	return a, nil
}

// enterChat creates the first chat for the validated model. The probe
// session is handed over so the chat does not open a second one.
func (a *App) enterChat() {
	chat := a.deps.Chats.CreateChat(a.selection.selected())
	a.deps.ChatFlow.LoadChat(chat)
	if a.checkFlow != nil {
		a.deps.ChatFlow.AdoptSession(a.checkFlow.TakeSession())
	}
	a.chat.apply(a.deps.ChatFlow.Snapshot(), a.theme)
	a.chat.input.Focus()
	a.nav.Go(nav.ScreenChat)
}

func (a *App) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.nav.Go(nav.ScreenModelSelection)
		return a, nil

	case "ctrl+n":
		chat := a.deps.Chats.CreateChat(a.selection.selected())
		a.deps.ChatFlow.LoadChat(chat)
		a.chat.apply(a.deps.ChatFlow.Snapshot(), a.theme)
		return a, nil

	case "tab":
		if next, ok := a.nextChat(); ok {
			a.deps.ChatFlow.LoadChat(next)
			a.chat.apply(a.deps.ChatFlow.Snapshot(), a.theme)
		}
		return a, nil

	case "enter":
		text := a.chat.input.Value()
		a.chat.input.Reset()
		a.deps.ChatFlow.Send(context.Background(), text)
		return a, nil
	}

	var cmd tea.Cmd
	a.chat, cmd = a.chat.updateInput(msg)
	return a, cmd
}

// nextChat returns the chat after the active one, wrapping around.
func (a *App) nextChat() (*model.Chat, bool) {
	chats := a.deps.Chats.Chats()
	if len(chats) < 2 {
		return nil, false
	}
	active := a.deps.Chats.Active()
	if active == nil {
		return chats[0], true
	}
	for i, c := range chats {
		if c.ID == active.ID {
			return chats[(i+1)%len(chats)], true
		}
	}
	return chats[0], true
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (a *App) View() string {
	switch a.nav.Current() {
	case nav.ScreenGreeting:
		return a.greeting.view(a.theme, a.width, a.height)
	case nav.ScreenModelSelection:
		return a.selection.view(a.theme, a.width)
	case nav.ScreenModelCheck:
		return a.check.view(a.theme, a.width)
	case nav.ScreenChat:
		return a.chatScreen()
	}
	return ""
}

// chatScreen renders the conversation, with a chat-list sidebar when
// the terminal is wide enough.
func (a *App) chatScreen() string {
	main := a.chat.view(a.theme)
	if a.theme.GetLayoutMode() != styles.LayoutWide {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, a.renderChatList(), main)
}

// renderChatList renders the sidebar of saved chats, newest last, with
// the active chat highlighted.
func (a *App) renderChatList() string {
	chats := a.deps.Chats.Chats()
	active := a.deps.Chats.Active()

	var b strings.Builder
	b.WriteString(a.theme.HeaderTitle.Render("Chats"))
	b.WriteString("\n\n")
	for _, c := range chats {
		title := util.TruncateRunes(c.DisplayTitle(), sidebarWidth-4)
		if active != nil && c.ID == active.ID {
			b.WriteString(a.theme.CardSelected.Render(title))
		} else {
			b.WriteString(a.theme.CardMeta.Render("  " + title))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(a.theme.ShortcutKey.Render("tab") + " " + a.theme.ShortcutDesc.Render("switch"))

	return lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(a.height).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(styles.Overlay).
		Padding(0, 1).
		Render(b.String())
}
