// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/jeranaias/offchat-tui/internal/session"
	"github.com/jeranaias/offchat-tui/internal/ui/styles"
)

// =============================================================================
// MODEL CHECK SCREEN
// =============================================================================

// checkModel renders the one-shot probe that validates a freshly
// downloaded model before the first chat opens.
type checkModel struct {
	snapshot session.CheckSnapshot
}

func newCheckModel() checkModel {
	return checkModel{}
}

func (m checkModel) view(t *styles.Theme, width int) string {
	snap := m.snapshot
	var b strings.Builder

	b.WriteString(t.HeaderTitle.Render("Checking " + snap.Model.Title))
	b.WriteString("\n")
	b.WriteString(t.HeaderSubtitle.Render("Asking: " + session.ProbeInput))
	b.WriteString("\n\n")

	switch {
	case snap.Thinking:
		b.WriteString(t.ThinkingText.Render("Waiting for the model to answer..."))

	case snap.Failed:
		b.WriteString(t.ErrorBox.Render(
			t.ErrorTitle.Render("Check failed") + "\n" +
				t.ErrorMessage.Render(snap.ErrorText)))
		b.WriteString("\n\n")
		b.WriteString(t.ShortcutKey.Render("r") + " " + t.ShortcutDesc.Render("retry") + "  " +
			t.ShortcutKey.Render("esc") + " " + t.ShortcutDesc.Render("back"))

	case snap.Answered:
		b.WriteString(t.AssistantBubble.Render(strings.TrimSpace(snap.Answer)))
		b.WriteString("\n\n")
		b.WriteString(t.ReadyStatus.Render("✓ Model is working"))
		b.WriteString("\n")
		b.WriteString(t.ShortcutKey.Render("enter") + " " + t.ShortcutDesc.Render("start chatting"))

	default:
		b.WriteString(t.ThinkingText.Render("Preparing the model..."))
	}

	return b.String()
}
