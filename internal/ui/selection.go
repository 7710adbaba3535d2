// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/offchat-tui/internal/config"
	"github.com/jeranaias/offchat-tui/internal/download"
	"github.com/jeranaias/offchat-tui/internal/model"
	"github.com/jeranaias/offchat-tui/internal/ui/styles"
)

// =============================================================================
// MODEL SELECTION SCREEN
// =============================================================================

const progressBarWidth = 40

// selectionModel renders the model catalog as a column of cards with a
// download progress section underneath. The cursor starts on the
// configured default model.
type selectionModel struct {
	cursor   int
	download download.Snapshot
}

func newSelectionModel(cfg *config.Config) selectionModel {
	m := selectionModel{}
	if cfg != nil {
		for i, d := range model.Catalog {
			if d.ID == cfg.DefaultModel {
				m.cursor = i
				break
			}
		}
	}
	return m
}

// selected returns the descriptor under the cursor.
func (m selectionModel) selected() model.Descriptor {
	return model.Catalog[m.cursor]
}

// moveCursor moves the selection by delta, clamped to the catalog.
func (m *selectionModel) moveCursor(delta int) {
	next := m.cursor + delta
	if next < 0 || next >= len(model.Catalog) {
		return
	}
	m.cursor = next
}

func (m selectionModel) view(t *styles.Theme, width int) string {
	var b strings.Builder

	b.WriteString(t.HeaderTitle.Render("Choose a model"))
	b.WriteString("\n")
	b.WriteString(t.HeaderSubtitle.Render("Weights download once and stay on this machine"))
	b.WriteString("\n\n")

	for i, d := range model.Catalog {
		b.WriteString(m.renderCard(t, d, i == m.cursor))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderDownload(t))
	b.WriteString("\n\n")
	b.WriteString(m.renderShortcuts(t))

	return b.String()
}

func (m selectionModel) renderCard(t *styles.Theme, d model.Descriptor, selected bool) string {
	var b strings.Builder
	b.WriteString(t.CardTitle.Render(runewidth.FillRight(d.Title, cardWidth())))
	b.WriteString("  ")
	b.WriteString(t.CardBadge.Render(d.Params))
	b.WriteString("\n")
	b.WriteString(t.CardSubtitle.Render(d.Subtitle))
	b.WriteString("\n")
	b.WriteString(t.CardMeta.Render(fmt.Sprintf("%s • %s • %s", d.SizeEstimate, d.ContextString(), d.License)))

	if selected {
		return t.CardSelected.Render(b.String())
	}
	return t.Card.Render(b.String())
}

// renderDownload shows the state of the current download attempt.
func (m selectionModel) renderDownload(t *styles.Theme) string {
	snap := m.download

	switch {
	case snap.IsReady:
		status := snap.StatusText
		if status == "" {
			status = "Ready"
		}
		return t.ReadyStatus.Render("✓ "+status) + "  " +
			t.ProgressStatus.Render("press enter to check the model")

	case snap.ErrorText != "":
		return t.ErrorTitle.Render("Download failed") + "\n" +
			t.ErrorMessage.Render(snap.ErrorText) + "\n" +
			t.ProgressStatus.Render("press enter to retry")

	case snap.IsDownloading:
		return m.renderProgressBar(t, snap.Progress) + "\n" +
			t.ProgressStatus.Render(snap.StatusText)

	case snap.StatusText != "":
		// Cancelled or another terminal status without an error.
		return t.CancelStatus.Render(snap.StatusText)
	}

	return t.ProgressStatus.Render("press enter to download " + m.selected().Title)
}

func (m selectionModel) renderProgressBar(t *styles.Theme, progress float64) string {
	filled := int(progress * progressBarWidth)
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	bar := t.ProgressFill.Render(strings.Repeat("█", filled)) +
		t.ProgressBar.Render(strings.Repeat("░", progressBarWidth-filled))
	return bar + " " + t.ProgressStatus.Render(fmt.Sprintf("%3.0f%%", progress*100))
}

func (m selectionModel) renderShortcuts(t *styles.Theme) string {
	items := []struct{ key, desc string }{
		{"↑/↓", "select"},
		{"enter", "download"},
		{"c", "cancel"},
		{"q", "quit"},
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, t.ShortcutKey.Render(it.key)+" "+t.ShortcutDesc.Render(it.desc))
	}
	return t.StatusBar.Render(strings.Join(parts, "  "))
}

// cardWidth returns the rendered width of the widest catalog title so
// cards line up when a narrow layout trims padding.
func cardWidth() int {
	w := 0
	for _, d := range model.Catalog {
		if cw := runewidth.StringWidth(d.Title); cw > w {
			w = cw
		}
	}
	return w
}
