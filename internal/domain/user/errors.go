package user

import "errors"

var (
	// ErrInvalidInput indicates invalid user input.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrUnauthorized indicates an unknown or missing API key.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmailTaken indicates another user already has the email.
	ErrEmailTaken = errors.New("email already registered")
)
