package user

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"photoshare/backend/internal/apperror"
)

var (
	// ErrInvalidCredentials indicates a login failure. It never says which
	// half of the credentials was wrong.
	ErrInvalidCredentials = apperror.New(apperror.Unauthenticated, "Incorrect email or password")
	// ErrEmailExists signals a duplicate email registration.
	ErrEmailExists = apperror.New(apperror.Conflict, "A user with this email already exists")
	// ErrNotFound indicates missing user.
	ErrNotFound = apperror.New(apperror.NotFound, "User not found")
	// ErrInvalidProfile indicates a name, about or avatar outside the stored constraints.
	ErrInvalidProfile = apperror.New(apperror.BadInput, "Invalid user data")
	// ErrInvalidEmail indicates an email that is not a bare address.
	ErrInvalidEmail = apperror.New(apperror.BadInput, "Invalid email")
	// ErrPasswordRequired indicates an empty password.
	ErrPasswordRequired = apperror.New(apperror.BadInput, "Password is required")
)

// Defaults applied to fields omitted at registration.
const (
	DefaultName   = "Jacques-Yves Cousteau"
	DefaultAbout  = "Explorer"
	DefaultAvatar = "https://pictures.s3.yandex.net/resources/jacques-cousteau_1604399756.png"
)

// Length bounds for name and about, in characters.
const (
	MinTextLen = 2
	MaxTextLen = 30
)

// User models the profile persisted in storage. PasswordHash never leaves
// the process: it is excluded from JSON and cleared by Sanitize.
type User struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	About        string `json:"about"`
	Avatar       string `json:"avatar"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Credentials captures raw credential input for login.
type Credentials struct {
	Email    string
	Password string
}

// Sanitize returns a copy without the password hash.
func (u *User) Sanitize() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}

// Validate checks the stored-field constraints of a profile.
func (u *User) Validate() error {
	if err := ValidateText(u.Name); err != nil {
		return err
	}
	if err := ValidateText(u.About); err != nil {
		return err
	}
	if err := ValidateLink(u.Avatar); err != nil {
		return err
	}
	if _, err := NormalizeEmail(u.Email); err != nil {
		return err
	}
	return nil
}

// ValidateText enforces the name/about length bounds.
func ValidateText(s string) error {
	n := utf8.RuneCountInString(s)
	if n < MinTextLen || n > MaxTextLen {
		return ErrInvalidProfile
	}
	return nil
}

// ValidateLink requires an absolute http(s) URL.
func ValidateLink(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidProfile
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address after checking it is a
// bare address without a display name.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// SanitizeAll strips password hashes from every user.
func SanitizeAll(items []*User) []*User {
	out := make([]*User, 0, len(items))
	for _, item := range items {
		out = append(out, item.Sanitize())
	}
	return out
}
