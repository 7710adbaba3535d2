// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages.
package model

import "fmt"

// =============================================================================
// MODEL DESCRIPTOR
// =============================================================================

// Descriptor contains metadata about one of the bundled on-device models.
// Descriptors are immutable; the catalog is fixed at compile time and
// entries are only ever selected, never created or destroyed at runtime.
type Descriptor struct {
	// ID is the repository identifier used to resolve the model
	ID string `json:"id"`

	// Title is the human-readable display name
	Title string `json:"title"`

	// Subtitle is a short tagline for the selection screen
	Subtitle string `json:"subtitle"`

	// Description explains the model's strengths
	Description string `json:"description"`

	// Params is the parameter count label (e.g. "0.6B")
	Params string `json:"params"`

	// SizeEstimate is the approximate download size (e.g. "~1.0 GB")
	SizeEstimate string `json:"size_estimate"`

	// ContextWindow is the context window size in tokens
	ContextWindow int `json:"context_window"`

	// License is the model's license label
	License string `json:"license"`
}

// ContextString returns a formatted context window string.
func (d Descriptor) ContextString() string {
	if d.ContextWindow >= 1000 {
		return fmt.Sprintf("%dK context", d.ContextWindow/1000)
	}
	return fmt.Sprintf("%d context", d.ContextWindow)
}

// =============================================================================
// MODEL CATALOG
// =============================================================================

// Catalog is the fixed, ordered set of models the app can run.
var Catalog = []Descriptor{
	{
		ID:            "Qwen/Qwen2.5-Coder-0.5B-Instruct",
		Title:         "Qwen 2.5 Coder",
		Subtitle:      "0.5B • Code assistant",
		Description:   "Lightweight code assistant optimized for completion, debugging, and small development tasks.",
		Params:        "0.5B",
		SizeEstimate:  "~0.8 GB",
		ContextWindow: 8192,
		License:       "Apache 2.0",
	},
	{
		ID:            "Qwen/Qwen3-0.6B",
		Title:         "Qwen3",
		Subtitle:      "0.6B • General purpose",
		Description:   "Compact general-purpose model built for fast on-device answers and efficient inference.",
		Params:        "0.6B",
		SizeEstimate:  "~1.0 GB",
		ContextWindow: 8192,
		License:       "Apache 2.0",
	},
	{
		ID:            "deepseek-ai/DeepSeek-R1-Distill-Qwen-1.5B",
		Title:         "DeepSeek R1",
		Subtitle:      "1.5B • Reasoning model",
		Description:   "Advanced reasoning model with chain-of-thought capabilities, optimized for small devices.",
		Params:        "1.5B",
		SizeEstimate:  "~2.0 GB",
		ContextWindow: 8192,
		License:       "MIT",
	},
}

// DefaultDescriptor returns the default model selection.
func DefaultDescriptor() Descriptor {
	return Catalog[1] // Qwen3
}

// DescriptorByID looks up a catalog entry by repository identifier.
// Returns the Descriptor and true if found, otherwise a zero Descriptor
// and false.
func DescriptorByID(id string) (Descriptor, bool) {
	for _, d := range Catalog {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}
