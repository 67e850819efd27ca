package auth

import "errors"

var (
	// ErrInvalidCredentials covers bad passwords and malformed, tampered,
	// expired or orphaned tokens. Maps to 401.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInsufficientScope means the identity is valid but lacks a required
	// scope. Maps to 403.
	ErrInsufficientScope = errors.New("insufficient scope")
)
