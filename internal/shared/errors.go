package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInventoryClosed indicates a write against a closed carbon report.
	ErrInventoryClosed = errors.New("inventory closed")
	// ErrTokenRevoked indicates an access token that was explicitly revoked.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrValidation marks input that failed validation.
	ErrValidation = errors.New("validation failed")
)
