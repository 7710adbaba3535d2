// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/offchat-tui/internal/ui/styles"
)

// =============================================================================
// GREETING SCREEN
// =============================================================================

const greetingLogo = `
         ___  __  __      _           _
  ___   / _|/ _|/ _| ___| |__   __ _| |_
 / _ \ | |_| |_| |  / __| '_ \ / _' | __|
| (_) ||  _|  _| |__\__ \ | | | (_| | |_
 \___/ |_| |_|  \____|___/_| |_|\__,_|\__|
`

// greetingModel is the landing screen. It holds no state; any key
// moves on to model selection.
type greetingModel struct{}

func newGreetingModel() greetingModel {
	return greetingModel{}
}

func (m greetingModel) view(t *styles.Theme, width, height int) string {
	var b strings.Builder

	b.WriteString(t.GreetingLogo.Render(strings.TrimLeft(greetingLogo, "\n")))
	b.WriteString("\n\n")
	b.WriteString(t.GreetingInfo.Render("Chat with language models that run entirely on this machine."))
	b.WriteString("\n")
	b.WriteString(t.GreetingInfo.Render("No accounts. No cloud. Your conversations stay local."))
	b.WriteString("\n\n")
	b.WriteString(t.GreetingPressKey.Render("Press any key to choose a model"))

	box := t.GreetingBox.Render(b.String())
	if width == 0 || height == 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
