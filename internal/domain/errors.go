package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrMissingProfile means a plan was requested without a user profile.
	// Nothing is computed; the caller should ask the user to fill the form.
	ErrMissingProfile = errors.New("no user profile provided")

	// ErrUnrecognizedShape means the plan service answered with JSON that
	// carries the plan in none of the known places.
	ErrUnrecognizedShape = errors.New("unrecognized plan response shape")

	ErrInvalidEmail = errors.New("invalid email address")
)
