package token

import (
	"strings"
	"testing"
	"time"

	usecase "photoshare/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate_Success(t *testing.T) {
	t.Parallel()

	m := NewJWTManager("super-secret")
	tok, err := m.Generate("64b7f0c2a1e3d4f5a6b7c8d9")
	require.NoError(t, err)

	got, err := m.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1e3d4f5a6b7c8d9", got)
}

func TestGenerate_SevenDayWindow(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewJWTManager("secret")
	m.nowFunc = func() time.Time { return issued }

	tok, err := m.Generate("u1")
	require.NoError(t, err)

	m.nowFunc = func() time.Time { return issued.Add(Validity - time.Minute) }
	_, err = m.Validate(tok)
	require.NoError(t, err)

	m.nowFunc = func() time.Time { return issued.Add(Validity + time.Minute) }
	_, err = m.Validate(tok)
	assert.ErrorIs(t, err, usecase.ErrTokenInvalid)
}

func TestValidate_UniformFailure(t *testing.T) {
	t.Parallel()

	signer := NewJWTManager("right-secret")
	good, err := signer.Generate("u2")
	require.NoError(t, err)

	expiredSigner := NewJWTManager("right-secret")
	expiredSigner.nowFunc = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	expired, err := expiredSigner.Generate("u2")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u2"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("right-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "u2"}).
		SignedString([]byte("right-secret"))
	require.NoError(t, err)

	verifier := NewJWTManager("right-secret")
	tests := map[string]string{
		"wrong secret":   mustSign(t, NewJWTManager("wrong-secret"), "u2"),
		"expired":        expired,
		"malformed":      "not.a.jwt",
		"empty":          "",
		"alg none":       noneAlg,
		"missing claim":  noSubject,
		"missing expiry": noExpiry,
		"tampered":       tamper(good),
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Validate(tok)
			assert.Same(t, usecase.ErrTokenInvalid, err)
		})
	}
}

// tamper flips the first character of the signature segment.
func tamper(tok string) string {
	i := strings.LastIndex(tok, ".") + 1
	c := byte('A')
	if tok[i] == 'A' {
		c = 'B'
	}
	return tok[:i] + string(c) + tok[i+1:]
}

func mustSign(t *testing.T, m *JWTManager, userID string) string {
	t.Helper()
	tok, err := m.Generate(userID)
	require.NoError(t, err)
	return tok
}
