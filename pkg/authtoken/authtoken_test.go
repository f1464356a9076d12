package authtoken_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfill/inkfill/pkg/authtoken"
)

const testSecret = "test-secret-key-that-is-long-enough-for-hmac"

func hmacSign(input, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func newCodec(t *testing.T, secret string) *authtoken.Codec {
	t.Helper()

	codec, err := authtoken.New(secret)
	require.NoError(t, err)
	return codec
}

func testPayload() authtoken.Payload {
	return authtoken.Payload{
		Data: authtoken.Data{
			UserID:    uuid.New(),
			SessionID: uuid.New(),
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty secret", func(t *testing.T) {
		t.Parallel()

		_, err := authtoken.New("")
		assert.ErrorIs(t, err, authtoken.ErrMissingSecret)
	})

	t.Run("rejects short secret", func(t *testing.T) {
		t.Parallel()

		_, err := authtoken.New("too-short")
		assert.ErrorIs(t, err, authtoken.ErrSecretTooShort)
	})
}

func TestSignVerifyRoundtrip(t *testing.T) {
	t.Parallel()

	codec := newCodec(t, testSecret)
	payload := testPayload()

	token, err := codec.Sign(payload)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	got, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestSignIsDeterministic(t *testing.T) {
	t.Parallel()

	codec := newCodec(t, testSecret)
	payload := testPayload()

	first, err := codec.Sign(payload)
	require.NoError(t, err)
	second, err := codec.Sign(payload)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWireFormat(t *testing.T) {
	t.Parallel()

	codec := newCodec(t, testSecret)
	payload := testPayload()

	token, err := codec.Sign(payload)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"alg":"HS256","typ":"JWT"}`, string(headerJSON))

	bodyJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(bodyJSON, &body))
	assert.Equal(t, payload.Data.UserID.String(), body["data"]["user_id"])
	assert.Equal(t, payload.Data.SessionID.String(), body["data"]["session_id"])

	// No padding anywhere in the token.
	assert.NotContains(t, token, "=")
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	t.Parallel()

	signer := newCodec(t, testSecret)
	verifier := newCodec(t, "another-secret-key-that-is-long-enough")

	token, err := signer.Sign(testPayload())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, authtoken.ErrInvalidToken)
	assert.ErrorIs(t, err, authtoken.ErrInvalidSignature)
}

func TestVerifyRejectsTampering(t *testing.T) {
	t.Parallel()

	codec := newCodec(t, testSecret)

	token, err := codec.Sign(testPayload())
	require.NoError(t, err)

	parts := strings.Split(token, ".")

	// Flip one byte in each segment in turn.
	for i, name := range []string{"header", "body", "signature"} {
		t.Run("tampered "+name, func(t *testing.T) {
			tampered := make([]string, 3)
			copy(tampered, parts)

			raw := []byte(tampered[i])
			if raw[0] == 'A' {
				raw[0] = 'B'
			} else {
				raw[0] = 'A'
			}
			tampered[i] = string(raw)

			_, err := codec.Verify(strings.Join(tampered, "."))
			assert.ErrorIs(t, err, authtoken.ErrInvalidToken)
		})
	}
}

func TestVerifyRejectsBadStructure(t *testing.T) {
	t.Parallel()

	codec := newCodec(t, testSecret)

	token, err := codec.Sign(testPayload())
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"one segment", "abc"},
		{"two segments", "abc.def"},
		{"four segments", token + ".extra"},
		{"garbage", "not a token at all"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Verify(tc.token)
			assert.ErrorIs(t, err, authtoken.ErrInvalidToken)
		})
	}
}

func TestVerifyRejectsForeignAlgorithm(t *testing.T) {
	t.Parallel()

	codec := newCodec(t, testSecret)

	// Build a token whose header claims "none" but whose signature is a
	// valid HMAC over the segments, so only the algorithm check can
	// reject it.
	forge := func(alg string) string {
		headerJSON, _ := json.Marshal(map[string]string{"alg": alg, "typ": "JWT"})
		bodyJSON, _ := json.Marshal(testPayload())

		signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) +
			"." + base64.RawURLEncoding.EncodeToString(bodyJSON)

		return signingInput + "." + hmacSign(signingInput, testSecret)
	}

	for _, alg := range []string{"none", "HS512", "RS256", ""} {
		t.Run("alg "+alg, func(t *testing.T) {
			_, err := codec.Verify(forge(alg))
			assert.ErrorIs(t, err, authtoken.ErrInvalidToken)
			assert.ErrorIs(t, err, authtoken.ErrUnexpectedAlgorithm)
		})
	}
}
