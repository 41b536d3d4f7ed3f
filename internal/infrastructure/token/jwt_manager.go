package token

import (
	"time"

	usecase "photoshare/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
)

// Validity is the fixed lifetime of an issued token.
const Validity = 7 * 24 * time.Hour

// JWTManager issues and validates HS256 tokens carrying a single subject claim.
type JWTManager struct {
	secret  []byte
	nowFunc func() time.Time
}

// NewJWTManager constructs a manager with the process-wide signing secret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret:  []byte(secret),
		nowFunc: time.Now,
	}
}

// Ensure JWTManager implements the TokenManager interface.
var _ usecase.TokenManager = (*JWTManager)(nil)

// Claims represents token claims.
type Claims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// Generate creates a signed JWT containing the user id.
func (m *JWTManager) Generate(userID string) (string, error) {
	now := m.nowFunc().UTC()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(Validity)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses and validates the token returning the user id when valid.
// Malformed, forged and expired tokens all yield usecase.ErrTokenInvalid.
func (m *JWTManager) Validate(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return "", usecase.ErrTokenInvalid
	}
	return claims.UserID, nil
}
