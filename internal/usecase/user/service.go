package user

import (
	"context"
	"strings"

	"photoshare/backend/internal/domain/ref"
	domain "photoshare/backend/internal/domain/user"
	"photoshare/backend/internal/usecase/auth"
)

// Service provides profile reads and self-service updates.
type Service struct {
	repo domain.Repository
}

// NewService constructs a user service around the provided repository.
func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo}
}

// UpdateProfileInput defines the payload to update a profile. Nil fields are kept.
type UpdateProfileInput struct {
	Name  *string
	About *string
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.SanitizeAll(users), nil
}

// Get retrieves a single user by its identifier.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	id, err := ref.Parse(id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context, identity auth.Identity) (*domain.User, error) {
	return s.Get(ctx, identity.UserID)
}

// UpdateProfile changes the caller's name and/or about text.
func (s *Service) UpdateProfile(ctx context.Context, identity auth.Identity, input UpdateProfileInput) (*domain.User, error) {
	id, err := ref.Parse(identity.UserID)
	if err != nil {
		return nil, err
	}
	name, err := trimmedText(input.Name)
	if err != nil {
		return nil, err
	}
	about, err := trimmedText(input.About)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateProfile(ctx, id, name, about)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

// UpdateAvatar replaces the caller's avatar link.
func (s *Service) UpdateAvatar(ctx context.Context, identity auth.Identity, avatar string) (*domain.User, error) {
	id, err := ref.Parse(identity.UserID)
	if err != nil {
		return nil, err
	}
	avatar = strings.TrimSpace(avatar)
	if err := domain.ValidateLink(avatar); err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateAvatar(ctx, id, avatar)
	if err != nil {
		return nil, err
	}
	return user.Sanitize(), nil
}

func trimmedText(value *string) (*string, error) {
	if value == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*value)
	if err := domain.ValidateText(v); err != nil {
		return nil, err
	}
	return &v, nil
}
