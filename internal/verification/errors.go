package verification

import (
	"errors"
	"fmt"
	"time"
)

// Flow errors. Handlers map these to API error codes; the flow never
// surfaces store or transport detail to callers.
var (
	ErrConflict        = errors.New("identifier already registered")
	ErrNotFound        = errors.New("no active code for identifier")
	ErrExpired         = errors.New("code has expired")
	ErrMismatch        = errors.New("code does not match")
	ErrTooManyAttempts = errors.New("too many verification attempts")
	ErrDelivery        = errors.New("could not deliver code")
	ErrTransient       = errors.New("verification backend unavailable")
)

// ValidationError carries field-level messages for rejected input.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// CooldownError signals a resend attempt inside the cooldown window.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("resend allowed in %d seconds", int(e.RetryAfter.Seconds()))
}
