package domain

import "errors"

var (
	// ErrValidation marks malformed or missing caller input.
	ErrValidation = errors.New("validation failed")
	// ErrUserNotFound is returned when a user id does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrPersistenceUnavailable wraps storage failures. Safe to retry.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)
