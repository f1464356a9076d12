package email

import "errors"

var (
	ErrFailedToSend   = errors.New("email.send_failed")
	ErrInvalidConfig  = errors.New("email.invalid_config")
	ErrInvalidMessage = errors.New("email.invalid_message")
)
