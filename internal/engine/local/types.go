// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package local provides the HTTP client for the local inference daemon.
package local

// =============================================================================
// REQUEST TYPES
// =============================================================================

// showRequest is the request body for the show endpoint.
type showRequest struct {
	Name string `json:"name"`
}

// pullRequest is the request body for the pull endpoint.
type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// chatMessage is one message in a chat request.
type chatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// chatOptions contains model parameters for inference.
type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens to generate
}

// chatRequest is the request body for the chat endpoint.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Context  []int         `json:"context,omitempty"` // Carried context for incremental growth
	Options  *chatOptions  `json:"options,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// pullProgress is one line of the streamed pull response.
type pullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// chatChunk is one line of the streamed chat response.
type chatChunk struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason,omitempty"`
	Context         []int  `json:"context,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
	Error           string `json:"error,omitempty"`
}

// daemonError is the error body the daemon returns on failures.
type daemonError struct {
	Error string `json:"error"`
}
