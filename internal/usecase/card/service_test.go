package card_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"photoshare/backend/internal/apperror"
	domain "photoshare/backend/internal/domain/card"
	"photoshare/backend/internal/domain/ref"
	"photoshare/backend/internal/infrastructure/sqlite"
	"photoshare/backend/internal/usecase/auth"
	"photoshare/backend/internal/usecase/card"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu          sync.Mutex
	list        []*domain.Card
	ok          bool
	gen         int64
	hits        int
	invalidated int
	staleWrites int
	failReads   bool
}

func (c *memoryCache) GetList(context.Context) ([]*domain.Card, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failReads {
		return nil, false, errors.New("cache down")
	}
	if c.ok {
		c.hits++
	}
	return c.list, c.ok, nil
}

func (c *memoryCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *memoryCache) SetList(_ context.Context, gen int64, list []*domain.Card) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.staleWrites++
		return nil
	}
	c.list, c.ok = list, true
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list, c.ok = nil, false
	c.gen++
	c.invalidated++
	return nil
}

// interleavingRepo runs afterList once, between the store read of List and
// its return.
type interleavingRepo struct {
	domain.Repository
	afterList func()
}

func (r *interleavingRepo) List(ctx context.Context) ([]*domain.Card, error) {
	cards, err := r.Repository.List(ctx)
	if hook := r.afterList; hook != nil {
		r.afterList = nil
		hook()
	}
	return cards, err
}

func newService(t *testing.T, opts ...card.Option) *card.Service {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return card.NewService(sqlite.NewCardRepository(db), opts...)
}

func identity() auth.Identity { return auth.Identity{UserID: ref.New()} }

var lake = card.CreateInput{Name: "Lake", Link: "https://example.com/lake.jpg"}

func kindOf(t *testing.T, err error) apperror.Kind {
	t.Helper()
	kind, ok := apperror.KindOf(err)
	require.True(t, ok, "expected a classified error, got %v", err)
	return kind
}

func TestService_CreateAndList(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	me := identity()

	empty, err := svc.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	c, err := svc.Create(ctx, me, lake)
	require.NoError(t, err)
	assert.Equal(t, me.UserID, c.Owner)
	assert.Equal(t, []string{}, c.Likes)
	assert.Len(t, c.ID, ref.Length)
	assert.False(t, c.CreatedAt.IsZero())

	cards, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, c.ID, cards[0].ID)
}

func TestService_CreateRejectsInvalid(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, identity(), card.CreateInput{Name: "L", Link: "https://example.com/l.jpg"})
	assert.Same(t, domain.ErrInvalidCard, err)

	_, err = svc.Create(ctx, identity(), card.CreateInput{Name: "Lake", Link: "lake.jpg"})
	assert.Same(t, domain.ErrInvalidCard, err)
}

func TestService_DeleteChecksOwnership(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	owner, stranger := identity(), identity()

	c, err := svc.Create(ctx, owner, lake)
	require.NoError(t, err)

	err = svc.Delete(ctx, stranger, c.ID)
	assert.Same(t, domain.ErrNotOwner, err)
	assert.Equal(t, apperror.Forbidden, kindOf(t, err))

	cards, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 1, "a forbidden delete must leave the card in place")

	require.NoError(t, svc.Delete(ctx, owner, c.ID))
	assert.Same(t, domain.ErrNotFound, svc.Delete(ctx, owner, c.ID))
}

func TestService_DeleteMalformedID(t *testing.T) {
	svc := newService(t)
	err := svc.Delete(context.Background(), identity(), "zzz")
	assert.Equal(t, apperror.BadInput, kindOf(t, err))
}

func TestService_LikesAreIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	owner, fan := identity(), identity()

	c, err := svc.Create(ctx, owner, lake)
	require.NoError(t, err)

	liked, err := svc.Like(ctx, fan, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{fan.UserID}, liked.Likes)

	liked, err = svc.Like(ctx, fan, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{fan.UserID}, liked.Likes)

	disliked, err := svc.Dislike(ctx, owner, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{fan.UserID}, disliked.Likes)

	disliked, err = svc.Dislike(ctx, fan, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, disliked.Likes)

	disliked, err = svc.Dislike(ctx, fan, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{}, disliked.Likes)
}

func TestService_LikeFailures(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Like(ctx, identity(), ref.New())
	assert.Same(t, domain.ErrNotFound, err)

	_, err = svc.Dislike(ctx, identity(), ref.New())
	assert.Same(t, domain.ErrNotFound, err)

	_, err = svc.Like(ctx, identity(), "bad")
	assert.Equal(t, apperror.BadInput, kindOf(t, err))
}

func TestService_CacheServesAndInvalidates(t *testing.T) {
	cache := &memoryCache{}
	svc := newService(t, card.WithCache(cache))
	ctx := context.Background()
	me := identity()

	c, err := svc.Create(ctx, me, lake)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	_, err = svc.List(ctx)
	require.NoError(t, err)
	cards, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	require.Len(t, cards, 1)

	_, err = svc.Like(ctx, me, c.ID)
	require.NoError(t, err)
	_, err = svc.Dislike(ctx, me, c.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, me, c.ID))
	assert.Equal(t, 4, cache.invalidated)

	cards, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestService_CacheFailureFallsBackToStore(t *testing.T) {
	cache := &memoryCache{failReads: true}
	svc := newService(t, card.WithCache(cache))
	ctx := context.Background()

	_, err := svc.Create(ctx, identity(), lake)
	require.NoError(t, err)

	cards, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}

func TestService_MutationDuringListIsNotCachedOver(t *testing.T) {
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cache := &memoryCache{}
	repo := &interleavingRepo{Repository: sqlite.NewCardRepository(db)}
	svc := card.NewService(repo, card.WithCache(cache))
	ctx := context.Background()
	owner := identity()

	c, err := svc.Create(ctx, owner, lake)
	require.NoError(t, err)

	repo.afterList = func() {
		require.NoError(t, svc.Delete(ctx, owner, c.ID))
	}
	snapshot, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshot, 1, "the in-flight read still sees its own snapshot")
	assert.Equal(t, 1, cache.staleWrites)

	cards, err := svc.List(ctx)
	require.NoError(t, err)
	require.Empty(t, cards, "a deleted card must not come back from the cache")

	_, err = svc.Like(ctx, identity(), c.ID)
	assert.Same(t, domain.ErrNotFound, err)
}
