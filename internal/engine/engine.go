// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine defines the boundary to the on-device inference engine.
package engine

import "context"

// =============================================================================
// ENGINE INTERFACE
// =============================================================================

// Engine is the capability handle granting access to model resolution,
// weight download, and inference sessions. Implementations must be safe
// for concurrent use.
type Engine interface {
	// ResolveModel resolves a model by its repository identifier.
	ResolveModel(ctx context.Context, repoID string) (ModelHandle, error)

	// Download fetches the model's weights, reporting fractional progress
	// (0..1) through onProgress. Implementations may invoke onProgress
	// zero times when the weights are already present locally. onProgress
	// is called serially from the goroutine running Download and never
	// after Download returns; callers may update unsynchronized state
	// from it. Cancellation is cooperative via ctx.
	Download(ctx context.Context, model ModelHandle, onProgress func(fraction float64)) error

	// OpenSession opens a new inference session for the model.
	// Sessions accumulate conversation context according to the config.
	OpenSession(model ModelHandle, cfg SessionConfig) (Session, error)
}

// ModelHandle is an opaque reference to a resolved model.
type ModelHandle struct {
	// RepoID is the repository identifier the handle was resolved from.
	RepoID string
}

// Session is an opaque per-conversation context maintained by the engine
// across turns. A session belongs to exactly one chat; it is dropped, not
// closed, when the chat changes.
type Session interface {
	// Run submits input to the session and blocks until the response is
	// complete. onToken is called for every partial chunk; returning
	// false stops generation early. Passing a nil onToken collects the
	// full response.
	Run(ctx context.Context, input string, cfg RunConfig, onToken func(chunk string) bool) (Output, error)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// ContextMode controls how a session's conversation context evolves.
type ContextMode int

const (
	// ContextStatic recomputes context from scratch on every run.
	ContextStatic ContextMode = iota

	// ContextDynamic grows context incrementally across turns. Multi-turn
	// chat requires this mode: context must accumulate, not be rebuilt.
	ContextDynamic
)

// String returns the string representation of the context mode.
func (m ContextMode) String() string {
	switch m {
	case ContextStatic:
		return "static"
	case ContextDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// SessionConfig configures a new inference session.
type SessionConfig struct {
	// ContextMode controls context accumulation across turns.
	ContextMode ContextMode

	// SystemPrompt is an optional system prompt for the session.
	SystemPrompt string
}

// RunConfig holds per-run inference parameters. The zero value uses the
// engine's defaults.
type RunConfig struct {
	// Temperature for sampling (0 = engine default).
	Temperature float64

	// MaxTokens limits the response length (0 = unlimited).
	MaxTokens int
}

// =============================================================================
// OUTPUT
// =============================================================================

// Output is the completed result of a session run.
type Output struct {
	// Text is the full response text.
	Text string

	// PromptTokens is the number of tokens in the prompt, if reported.
	PromptTokens int

	// CompletionTokens is the number of generated tokens, if reported.
	CompletionTokens int
}
