// Package ref generates and parses the opaque 24-character hexadecimal
// references that identify users and cards.
package ref

import (
	"encoding/hex"
	"strings"

	"photoshare/backend/internal/apperror"

	"github.com/google/uuid"
)

// Length is the textual length of a reference.
const Length = 24

// ErrMalformed is returned for strings that are not a valid reference.
var ErrMalformed = apperror.New(apperror.BadInput, "malformed identifier")

// New returns a fresh reference built from the random bytes of a v4 UUID.
func New() string {
	id := uuid.New()
	return hex.EncodeToString(id[:Length/2])
}

// Parse validates s and returns its canonical lower-case form. s must be
// exactly Length hex characters; surrounding whitespace is rejected.
func Parse(s string) (string, error) {
	if len(s) != Length {
		return "", ErrMalformed
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", ErrMalformed
	}
	return strings.ToLower(s), nil
}
