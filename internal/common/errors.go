// Package common defines shared constants and sentinel errors used across
// the orderboard pipeline. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Upstream fetch errors, raised by source adapters.
	ErrAuth     = errors.New("upstream authentication failed")
	ErrUpstream = errors.New("upstream request failed")
	ErrSchema   = errors.New("upstream response could not be decoded")

	// Caller-supplied input errors (400-class).
	ErrValidation = errors.New("validation error")

	// Completion persistence errors (500-class on the write path).
	ErrStore = errors.New("completion store unavailable")
)
