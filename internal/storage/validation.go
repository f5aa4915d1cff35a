package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-sms-must-flow/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidMessage   = errors.New("invalid message")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMessage ensures a raw message carries a sender and a body.
func validateMessage(msg *model.RawMessage) error {
	if strings.TrimSpace(msg.Address) == "" {
		return fmt.Errorf("%w: missing address", ErrInvalidMessage)
	}
	if msg.Body == "" {
		return fmt.Errorf("%w: missing body", ErrInvalidMessage)
	}
	return nil
}

// validateRange ensures since is not after until when both are set.
func validateRange(since, until time.Time) error {
	if !since.IsZero() && !until.IsZero() && since.After(until) {
		return ErrInvalidDateRange
	}
	return nil
}
