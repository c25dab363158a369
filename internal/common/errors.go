// Package common defines shared constants and sentinel errors used across
// spacecloud components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenSuperseded means a refresh token is cryptographically valid but
	// no longer matches the single active token stored for the user.
	ErrTokenSuperseded = errors.New("refresh token superseded")

	// Attachment errors.
	ErrFileTooLarge = errors.New("file too large")
)
