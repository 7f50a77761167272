package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrEmailConflict is returned when a user with the email already exists
	ErrEmailConflict = errors.New("email already registered")

	// ErrOAuthIDConflict is returned when the external OAuth id is already
	// linked to another user or team
	ErrOAuthIDConflict = errors.New("oauth id already linked")
)
