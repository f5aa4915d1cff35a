// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Ruleset errors.
	ErrInvalidRuleset   = errors.New("invalid ruleset")
	ErrMalformedPattern = errors.New("malformed pattern")
	ErrMissingGroup     = errors.New("capture group not in pattern")
	ErrNoUsableSender   = errors.New("no usable sender segment")

	// Extraction errors.
	ErrUnparseableAmount = errors.New("unparseable amount")
	ErrMissingAmount     = errors.New("missing amount")

	// Message store errors.
	ErrUnsupportedFormat = errors.New("unsupported message backup format")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// PatternError records a problem with one pattern, identified by its position
// in the ruleset.
type PatternError struct {
	Err     error
	Regex   string
	Rule    int
	Pattern int
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("rule %d pattern %d (%q): %v", e.Rule, e.Pattern, e.Regex, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// IsUserFacing reports whether err carries a message meant for end users.
func IsUserFacing(err error) bool {
	var userErr *UserError
	return errors.As(err, &userErr)
}
