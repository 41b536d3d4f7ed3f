package card

import (
	"context"
	"log/slog"
	"strings"
	"time"

	domain "photoshare/backend/internal/domain/card"
	"photoshare/backend/internal/domain/ref"
	"photoshare/backend/internal/usecase/auth"
)

// Cache holds the rendered card feed. A miss is (nil, false, nil).
//
// Every Invalidate advances a generation counter. SetList stores the feed
// only while the counter still equals gen, so a snapshot read from the store
// before an invalidation is never written back after it.
type Cache interface {
	GetList(ctx context.Context) ([]*domain.Card, bool, error)
	Generation(ctx context.Context) (int64, error)
	SetList(ctx context.Context, gen int64, cards []*domain.Card) error
	Invalidate(ctx context.Context) error
}

// Service encapsulates card use cases.
type Service struct {
	repo    domain.Repository
	cache   Cache
	log     *slog.Logger
	nowFunc func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithCache serves List from cache and invalidates it on every mutation.
func WithCache(cache Cache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithLogger sets the logger used for cache failures.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// NewService constructs a card service.
func NewService(repo domain.Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		log:     slog.Default(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput contains the payload required for card creation.
type CreateInput struct {
	Name string
	Link string
}

// List retrieves all cards.
func (s *Service) List(ctx context.Context) ([]*domain.Card, error) {
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		cards, ok, err := s.cache.GetList(ctx)
		if err != nil {
			s.log.WarnContext(ctx, "card cache read failed", "error", err)
		} else if ok {
			return cards, nil
		}

		// The generation must be read before the store.
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.log.WarnContext(ctx, "card cache generation read failed", "error", err)
		} else {
			cacheable = true
		}
	}

	cards, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []*domain.Card{}
	}

	if cacheable {
		if err := s.cache.SetList(ctx, gen, cards); err != nil {
			s.log.WarnContext(ctx, "card cache write failed", "error", err)
		}
	}
	return cards, nil
}

// Create stores a new card owned by the caller.
func (s *Service) Create(ctx context.Context, identity auth.Identity, input CreateInput) (*domain.Card, error) {
	owner, err := ref.Parse(identity.UserID)
	if err != nil {
		return nil, err
	}

	card := &domain.Card{
		ID:        ref.New(),
		Name:      strings.TrimSpace(input.Name),
		Link:      strings.TrimSpace(input.Link),
		Owner:     owner,
		Likes:     []string{},
		CreatedAt: s.nowFunc().UTC().Truncate(time.Microsecond),
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, card); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return card, nil
}

// Delete removes a card after checking the caller owns it. A concurrent
// delete between the check and the write surfaces as ErrNotFound.
func (s *Service) Delete(ctx context.Context, identity auth.Identity, cardID string) error {
	id, err := ref.Parse(cardID)
	if err != nil {
		return err
	}

	card, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !card.OwnedBy(identity.UserID) {
		return domain.ErrNotOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Like adds the caller to the card's likes. Repeating it is a no-op.
func (s *Service) Like(ctx context.Context, identity auth.Identity, cardID string) (*domain.Card, error) {
	return s.mutateLikes(ctx, identity, cardID, s.repo.AddLike)
}

// Dislike removes the caller from the card's likes. Removing an absent like
// succeeds.
func (s *Service) Dislike(ctx context.Context, identity auth.Identity, cardID string) (*domain.Card, error) {
	return s.mutateLikes(ctx, identity, cardID, s.repo.RemoveLike)
}

func (s *Service) mutateLikes(
	ctx context.Context,
	identity auth.Identity,
	cardID string,
	mutate func(ctx context.Context, id, userID string) (*domain.Card, error),
) (*domain.Card, error) {
	id, err := ref.Parse(cardID)
	if err != nil {
		return nil, err
	}
	userID, err := ref.Parse(identity.UserID)
	if err != nil {
		return nil, err
	}

	card, err := mutate(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return card, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.WarnContext(ctx, "card cache invalidation failed", "error", err)
	}
}
