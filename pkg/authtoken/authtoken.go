// Package authtoken signs and verifies the compact session credential
// carried in the auth cookie. The wire format is a JWT (RFC 7519) restricted
// to HMAC-SHA256: tokens carry only user and session identifiers, never an
// expiry. Session lifetime lives in the session row, so revocation works by
// deleting the row rather than waiting out a token TTL.
package authtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"

	// minSecretLength keeps HMAC-SHA256 keys at a usable security margin.
	minSecretLength = 32
)

type header struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
}

// Data identifies the authenticated principal. Both identifiers must match
// a live session row for the token to be worth anything.
type Data struct {
	UserID    uuid.UUID `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
}

// Payload is the token body. The extra "data" envelope mirrors the cookie
// format already deployed, keeping previously issued cookies valid.
type Payload struct {
	Data Data `json:"data"`
}

// Codec signs and verifies session tokens with a shared secret.
type Codec struct {
	secret []byte
}

// New creates a Codec from the shared signing secret.
func New(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if len(secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}

	return &Codec{secret: []byte(secret)}, nil
}

// Sign encodes the payload as base64url(header).base64url(body) and appends
// the base64url-encoded HMAC-SHA256 signature over those two segments.
// Deterministic for identical payload and secret.
func (c *Codec) Sign(payload Payload) (string, error) {
	headerJSON, err := json.Marshal(header{Algorithm: headerAlgorithm, Type: headerType})
	if err != nil {
		return "", err
	}

	bodyJSON, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	signingInput := base64URLEncode(headerJSON) + "." + base64URLEncode(bodyJSON)

	return signingInput + "." + c.sign(signingInput), nil
}

// Verify checks the token's structure and signature and returns the decoded
// payload. Every failure mode reports ErrInvalidToken to callers; the more
// specific sentinels wrap it so tests and logs can tell the cases apart.
func (c *Codec) Verify(token string) (Payload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Payload{}, ErrMalformedToken
	}

	signingInput := parts[0] + "." + parts[1]
	expected := c.sign(signingInput)
	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(expected)) != 1 {
		return Payload{}, ErrInvalidSignature
	}

	headerJSON, err := base64URLDecode(parts[0])
	if err != nil {
		return Payload{}, ErrMalformedToken
	}

	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return Payload{}, ErrMalformedToken
	}

	// Only HS256 is ever produced; anything else is an algorithm
	// confusion attempt.
	if hdr.Algorithm != headerAlgorithm {
		return Payload{}, ErrUnexpectedAlgorithm
	}

	bodyJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return Payload{}, ErrMalformedToken
	}

	var payload Payload
	if err := json.Unmarshal(bodyJSON, &payload); err != nil {
		return Payload{}, ErrMalformedToken
	}

	return payload, nil
}

func (c *Codec) sign(input string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(input))
	return base64URLEncode(mac.Sum(nil))
}

// base64url without padding, as required by RFC 7515.
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
