// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine defines the boundary to the on-device inference engine.
package engine

import "errors"

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes engine errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeAuth
	ErrTypeNotFound
	ErrTypeNetwork
	ErrTypeCancelled
	ErrTypeResource
	ErrTypeInference
)

// Error represents an error from the inference engine boundary.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches engine errors by type, so sentinel comparisons work through
// wrapped errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Sentinel errors for easy checking.
var (
	ErrAuth      = &Error{Type: ErrTypeAuth, Message: "engine credential rejected"}
	ErrNotFound  = &Error{Type: ErrTypeNotFound, Message: "model not found"}
	ErrNetwork   = &Error{Type: ErrTypeNetwork, Message: "network failure"}
	ErrCancelled = &Error{Type: ErrTypeCancelled, Message: "operation cancelled"}
	ErrResource  = &Error{Type: ErrTypeResource, Message: "session resources unavailable"}
	ErrInference = &Error{Type: ErrTypeInference, Message: "inference failed"}
)

// IsCancelled checks if an error indicates user cancellation.
// Cancellation is distinguished from other failures: it terminates the
// operation but must not populate an error display.
func IsCancelled(err error) bool {
	if errors.Is(err, ErrCancelled) {
		return true
	}
	var engErr *Error
	if errors.As(err, &engErr) {
		return engErr.Type == ErrTypeCancelled
	}
	return false
}

// IsNotFound checks if an error is a model resolution failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
