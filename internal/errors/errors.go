// Package errors provides the error kinds shared by the alignment pipeline.
//
// Every typed error unwraps to a sentinel so callers can classify with errors.Is
// without caring about the concrete type.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the alignment error kinds.
var (
	// ErrInput indicates unusable input: an empty sentence sequence, a chapter index out
	// of range, a picked index outside the destination bounds.
	ErrInput = errors.New("invalid input")
	// ErrFit indicates that no line could be fitted through the trusted sentence pairs.
	ErrFit = errors.New("line fit failed")
	// ErrConsistency indicates an internal invariant violation (a programming error).
	ErrConsistency = errors.New("consistency violation")
	// ErrCacheCorruption indicates a persisted record that does not match current bounds.
	ErrCacheCorruption = errors.New("cache corruption")
	// ErrNotFound indicates a missing session, chapter or cache record.
	ErrNotFound = errors.New("not found")
)

// InputError represents unusable caller input.
type InputError struct {
	Field   string // Field or argument that was rejected
	Message string // Human-readable detail
}

func (e *InputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

func (e *InputError) Unwrap() error { return ErrInput }

// FitError reports that the line fit had nothing to work with.
type FitError struct {
	Pairs   int // Number of trusted pairs available to the fit
	Message string
}

func (e *FitError) Error() string {
	return fmt.Sprintf("cannot fit alignment line (%d trusted pairs): %s", e.Pairs, e.Message)
}

func (e *FitError) Unwrap() error { return ErrFit }

// ConsistencyError reports mismatched internal lengths, e.g. a kernel slice that does not
// cover exactly the similarity window it is applied to.
type ConsistencyError struct {
	Where string
	Want  int
	Got   int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency violation in %s: want length %d, got %d", e.Where, e.Want, e.Got)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// CacheCorruptionError reports a persisted record that references indices outside the
// current chapter bounds. It is surfaced, never repaired.
type CacheCorruptionError struct {
	Key     string
	Message string
}

func (e *CacheCorruptionError) Error() string {
	return fmt.Sprintf("corrupt cache record %s: %s", e.Key, e.Message)
}

func (e *CacheCorruptionError) Unwrap() error { return ErrCacheCorruption }

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewInput creates an InputError.
func NewInput(field, format string, args ...any) *InputError {
	return &InputError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewFit creates a FitError.
func NewFit(pairs int, message string) *FitError {
	return &FitError{Pairs: pairs, Message: message}
}

// NewConsistency creates a ConsistencyError.
func NewConsistency(where string, want, got int) *ConsistencyError {
	return &ConsistencyError{Where: where, Want: want, Got: got}
}

// NewCacheCorruption creates a CacheCorruptionError.
func NewCacheCorruption(key, format string, args ...any) *CacheCorruptionError {
	return &CacheCorruptionError{Key: key, Message: fmt.Sprintf(format, args...)}
}

// NewNotFound creates a NotFoundError.
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsAutoAlignFailure reports whether err means the chapter cannot be aligned
// automatically (bad data, not a bug): the caller should fall back to manual alignment.
func IsAutoAlignFailure(err error) bool {
	return errors.Is(err, ErrInput) || errors.Is(err, ErrFit)
}
