package auth

import "photoshare/backend/internal/apperror"

// ErrTokenInvalid is the single failure for a missing, malformed, forged or
// expired token.
var ErrTokenInvalid = apperror.New(apperror.Unauthenticated, "Authorization required")

// TokenManager abstracts token issuance and verification.
type TokenManager interface {
	Generate(userID string) (string, error)
	// Validate returns the subject id or ErrTokenInvalid.
	Validate(token string) (string, error)
}

// PasswordHasher abstracts the credential hashing primitive.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify returns (false, nil) on mismatch and an error only when the
	// comparison itself could not be performed.
	Verify(password, hash string) (bool, error)
}

// Identity is the verified caller of a protected operation.
type Identity struct {
	UserID string
}
