// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates the caller supplied invalid input.
var ErrValidation = errors.New("validation failed")

// ErrNotReady indicates the entity exists but has not reached the requested state yet.
var ErrNotReady = errors.New("not ready")

// ErrNoContent indicates a pipeline stage legitimately produced nothing to work with.
// It is an expected outcome, not a fault.
var ErrNoContent = errors.New("no content")
