package authtoken

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken is the single error class callers branch on. All
	// verification failures wrap it so rejection reasons never leak past
	// the authentication boundary.
	ErrInvalidToken = errors.New("authtoken.invalid_token")

	// ErrMalformedToken covers structural failures: wrong segment count,
	// bad base64, or undecodable JSON.
	ErrMalformedToken = fmt.Errorf("%w: malformed", ErrInvalidToken)

	// ErrInvalidSignature indicates the HMAC did not verify.
	ErrInvalidSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)

	// ErrUnexpectedAlgorithm indicates a header algorithm other than HS256.
	ErrUnexpectedAlgorithm = fmt.Errorf("%w: unexpected algorithm", ErrInvalidToken)

	ErrMissingSecret  = errors.New("authtoken.missing_secret")
	ErrSecretTooShort = errors.New("authtoken.secret_too_short")
)
