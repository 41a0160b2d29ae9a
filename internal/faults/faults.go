// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package faults classifies pipeline failures so callers can decide between
// retry, fail-fast, and graceful degradation without string matching.
// Implements: prd004-agent R3.1-R3.4; docs/ARCHITECTURE.md § Error Handling.
package faults

import (
	"errors"
	"fmt"
)

// Kind partitions failures by how the caller should react.
type Kind string

const (
	// Validation marks missing or malformed input. Fail immediately, no retry.
	Validation Kind = "validation"

	// RateLimited marks an upstream 429 or quota-style 403. The only kind
	// the retry policy backs off and retries on.
	RateLimited Kind = "rate_limited"

	// Misconfigured marks missing credentials or config. Fatal, never retried.
	Misconfigured Kind = "misconfigured"

	// Upstream marks a generic provider failure.
	Upstream Kind = "upstream_error"

	// Parse marks a malformed structured response from a generation
	// collaborator. Not retried; surfaced as an analysis failure.
	Parse Kind = "parse_error"

	// NoResults marks a search that returned nothing.
	NoResults Kind = "no_results"

	// NoRelevantResults marks a ranking pass where every result scored zero.
	NoRelevantResults Kind = "no_relevant_results"

	// SelectionEmpty marks a diversity selection with no candidate above
	// the quality floor.
	SelectionEmpty Kind = "selection_empty"
)

// Error pairs a Kind with an underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error from a format string.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies an existing error, preserving it for errors.Is/As.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the classification of err, or "" when err is unclassified.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsRateLimited reports whether err is classified RateLimited anywhere in
// its chain.
func IsRateLimited(err error) bool {
	return KindOf(err) == RateLimited
}
