package card

import "context"

// Repository defines persistence behaviours for cards.
//
// AddLike and RemoveLike are single atomic set mutations performed by the
// store; both return ErrNotFound when the card does not exist.
type Repository interface {
	Create(ctx context.Context, card *Card) error
	GetByID(ctx context.Context, id string) (*Card, error)
	List(ctx context.Context) ([]*Card, error)
	Delete(ctx context.Context, id string) error
	AddLike(ctx context.Context, id, userID string) (*Card, error)
	RemoveLike(ctx context.Context, id, userID string) (*Card, error)
}
