package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"photoshare/backend/internal/apperror"
	"photoshare/backend/internal/domain/ref"
	domain "photoshare/backend/internal/domain/user"

	"github.com/samber/oops"
)

// maxPasswordBytes is the longest secret bcrypt accepts.
const maxPasswordBytes = 72

// ErrPasswordTooLong rejects secrets the hashing primitive cannot represent.
var ErrPasswordTooLong = apperror.New(apperror.BadInput, "Password is too long")

// Service coordinates registration, login and token verification.
type Service struct {
	users     domain.Repository
	tokens    TokenManager
	hasher    PasswordHasher
	dummyHash func() string
}

// NewService constructs an auth service.
func NewService(users domain.Repository, tokens TokenManager, hasher PasswordHasher) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		dummyHash: sync.OnceValue(func() string {
			h, _ := hasher.Hash("photoshare-timing-equaliser")
			return h
		}),
	}
}

// RegisterInput carries the signup fields. Empty profile fields take the
// domain defaults.
type RegisterInput struct {
	Name     string
	About    string
	Avatar   string
	Email    string
	Password string
}

// Register creates a new user and returns the persisted entity without a password hash.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email, err := domain.NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if input.Password == "" {
		return nil, domain.ErrPasswordRequired
	}
	if len(input.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	user := &domain.User{
		ID:     ref.New(),
		Name:   orDefault(input.Name, domain.DefaultName),
		About:  orDefault(input.About, domain.DefaultAbout),
		Avatar: orDefault(input.Avatar, domain.DefaultAvatar),
		Email:  email,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hashed

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

// Login validates credentials and returns a signed token. Unknown emails and
// wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	email, err := domain.NormalizeEmail(creds.Email)
	if err != nil || creds.Password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_, _ = s.hasher.Verify(creds.Password, s.dummyHash())
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	matched, err := s.hasher.Verify(creds.Password, user.PasswordHash)
	if err != nil {
		return "", oops.With("user_id", user.ID).Wrap(err)
	}
	if !matched {
		return "", domain.ErrInvalidCredentials
	}

	return s.tokens.Generate(user.ID)
}

// Authenticate verifies a bearer token and returns the caller's identity.
func (s *Service) Authenticate(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrTokenInvalid
	}
	userID, err := s.tokens.Validate(token)
	if err != nil {
		return Identity{}, ErrTokenInvalid
	}
	return Identity{UserID: userID}, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
