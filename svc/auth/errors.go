package auth

import "errors"

var (
	ErrUnknownProvider  = errors.New("auth.unknown_provider")
	ErrInvalidCode      = errors.New("auth.invalid_code")
	ErrInvalidState     = errors.New("auth.invalid_state")
	ErrNoEmail          = errors.New("auth.no_email")
	ErrEmailNotVerified = errors.New("auth.email_not_verified")
)
