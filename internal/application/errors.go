package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/room-reservations/internal/scheduler"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique resource is created twice.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned for failed sign-in attempts and unusable tokens.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSlotTaken is returned when the store keeps refusing a reservation whose
	// blocking reservation can no longer be read.
	ErrSlotTaken = errors.New("application: slot taken")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// ConflictError reports the existing reservations that overlap a request.
type ConflictError struct {
	Conflicts []scheduler.Conflict
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	if len(c.Conflicts) == 0 {
		return "reservation conflicts with an existing booking"
	}
	ids := make([]string, 0, len(c.Conflicts))
	for _, conflict := range c.Conflicts {
		ids = append(ids, conflict.WithReservationID)
	}
	return fmt.Sprintf("reservation conflicts with %s", strings.Join(ids, ", "))
}

// AuthorizationError is a negative authorization outcome. It matches
// ErrUnauthorized under errors.Is.
type AuthorizationError struct {
	UID    string
	Action string
	Reason string
}

// Error implements the error interface.
func (a *AuthorizationError) Error() string {
	if a == nil {
		return ""
	}
	msg := "application: unauthorized"
	if a.Action != "" {
		msg += ": " + a.Action
	}
	if a.Reason != "" {
		msg += " (" + a.Reason + ")"
	}
	return msg
}

// Unwrap exposes ErrUnauthorized.
func (a *AuthorizationError) Unwrap() error {
	return ErrUnauthorized
}

func unauthorized(identity *Identity, action, reason string) *AuthorizationError {
	err := &AuthorizationError{Action: action, Reason: reason}
	if identity != nil {
		err.UID = identity.UID
	}
	return err
}
