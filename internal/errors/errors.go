// Package errors extends the standard library errors with failure categories
// used across the alert engine. Nothing here is fatal to the host process;
// categories let callers decide between degrading to a failed notification
// attempt and surfacing the error to the API caller.
package errors

import (
	"errors"
	"fmt"
)

// Failure categories.
const (
	CategoryConfiguration = "configuration" // transport or integration not configured
	CategoryTransport     = "transport"     // network/auth failure talking to a provider
	CategoryNotFound      = "not_found"     // unknown user or alert event
	CategoryDatabase      = "database"      // ledger read/write failure
)

// Stdlib passthroughs so callers only import one errors package.

func New(text string) error                  { return errors.New(text) }
func Is(err, target error) bool              { return errors.Is(err, target) }
func As(err error, target any) bool          { return errors.As(err, target) }
func Unwrap(err error) error                 { return errors.Unwrap(err) }
func Join(errs ...error) error               { return errors.Join(errs...) }
func Newf(format string, args ...any) error  { return fmt.Errorf(format, args...) }

// categorizedError wraps an error with a failure category.
type categorizedError struct {
	err      error
	category string
}

func (e *categorizedError) Error() string { return e.err.Error() }
func (e *categorizedError) Unwrap() error { return e.err }

// WithCategory tags err with a failure category. Returns nil for a nil err.
func WithCategory(err error, category string) error {
	if err == nil {
		return nil
	}
	return &categorizedError{err: err, category: category}
}

// GetCategory returns the category of err, or "" if it carries none.
func GetCategory(err error) string {
	var ce *categorizedError
	if errors.As(err, &ce) {
		return ce.category
	}
	return ""
}
