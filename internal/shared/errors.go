package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken indicates the email belongs to another account.
	ErrEmailTaken = errors.New("email already in use")
	// ErrNoSession indicates no session exists for a token.
	ErrNoSession = errors.New("session not found")
)

// ValidationError carries the message redisplayed on the originating form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// StoreError wraps a persistence failure. Handlers answer these with a
// generic error page, never with form-level recovery.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }
