// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jeffbrennan/mario/lib/factory"
)

// ErrorCategory classifies command failures so scripts can decide
// whether to fix input, retry, or escalate without parsing messages.
type ErrorCategory string

const (
	// CategoryValidation: bad arguments, flags, or local files. Fix the
	// input and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound: the factory, a pipeline, or a run does not exist.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryForbidden: the credential lacks access to the factory.
	CategoryForbidden ErrorCategory = "forbidden"

	// CategoryConflict: the operation conflicts with service state.
	CategoryConflict ErrorCategory = "conflict"

	// CategoryTransient: throttling, timeouts, or service errors. Retry
	// later.
	CategoryTransient ErrorCategory = "transient"

	// CategoryInternal: anything else.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized command error. It wraps the underlying
// error, so errors.Is and errors.As still see the full chain.
type ToolError struct {
	Category ErrorCategory
	Err      error
}

func (e *ToolError) Error() string { return e.Err.Error() }

func (e *ToolError) Unwrap() error { return e.Err }

// Validation creates a validation error.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Forbidden creates a forbidden error.
func Forbidden(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryForbidden, Err: fmt.Errorf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryConflict, Err: fmt.Errorf(format, args...)}
}

// Transient creates a transient error.
func Transient(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryTransient, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// Category returns the category of err: the category of the outermost
// ToolError in its chain, else one derived from a management API status
// code, else CategoryInternal.
func Category(err error) ErrorCategory {
	var toolError *ToolError
	if errors.As(err, &toolError) {
		return toolError.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}
	switch status := factory.StatusCode(err); {
	case status == http.StatusNotFound:
		return CategoryNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return CategoryForbidden
	case status == http.StatusConflict || status == http.StatusPreconditionFailed:
		return CategoryConflict
	case status == http.StatusTooManyRequests || status >= 500:
		return CategoryTransient
	}
	return CategoryInternal
}

// Remote wraps a management API error with context and classifies it
// by status code. A nil err returns nil.
func Remote(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf(format+": %w", append(args, err)...)
	return &ToolError{Category: Category(err), Err: wrapped}
}
