package postgres

import (
	"context"
	"errors"

	domain "photoshare/backend/internal/domain/card"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

const cardColumns = `id, name, link, owner_id, likes, created_at`

// CardRepository persists cards in PostgreSQL. Likes live in a TEXT[] column
// that each like or dislike rewrites in a single statement.
type CardRepository struct {
	pool Querier
}

var _ domain.Repository = (*CardRepository)(nil)

// NewCardRepository constructs a repository.
func NewCardRepository(pool Querier) *CardRepository {
	return &CardRepository{pool: pool}
}

// Create inserts a new card.
func (r *CardRepository) Create(ctx context.Context, card *domain.Card) error {
	const query = `
INSERT INTO cards (id, name, link, owner_id, likes, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	likes := card.Likes
	if likes == nil {
		likes = []string{}
	}
	_, err := r.pool.Exec(ctx, query,
		card.ID,
		card.Name,
		card.Link,
		card.Owner,
		likes,
		card.CreatedAt,
	)
	if err != nil {
		return oops.In("postgres").With("card_id", card.ID).Wrapf(err, "insert card")
	}
	return nil
}

// GetByID fetches a card by id.
func (r *CardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id)
	return oneCard(row, "select card")
}

// List returns all cards oldest first.
func (r *CardRepository) List(ctx context.Context) ([]*domain.Card, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, oops.In("postgres").Wrapf(err, "list cards")
	}
	defer rows.Close()

	cards := []*domain.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, oops.In("postgres").Wrapf(err, "scan card")
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// Delete removes a card by id.
func (r *CardRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return oops.In("postgres").With("card_id", id).Wrapf(err, "delete card")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddLike appends userID to the likes unless it is already present.
func (r *CardRepository) AddLike(ctx context.Context, id, userID string) (*domain.Card, error) {
	const query = `
UPDATE cards
SET likes = CASE WHEN $2::text = ANY(likes) THEN likes ELSE array_append(likes, $2::text) END
WHERE id = $1
RETURNING ` + cardColumns
	row := r.pool.QueryRow(ctx, query, id, userID)
	return oneCard(row, "add like")
}

// RemoveLike drops userID from the likes if present.
func (r *CardRepository) RemoveLike(ctx context.Context, id, userID string) (*domain.Card, error) {
	const query = `
UPDATE cards
SET likes = array_remove(likes, $2::text)
WHERE id = $1
RETURNING ` + cardColumns
	row := r.pool.QueryRow(ctx, query, id, userID)
	return oneCard(row, "remove like")
}

func oneCard(row pgx.Row, op string) (*domain.Card, error) {
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, oops.In("postgres").Wrapf(err, "%s", op)
	}
	return card, nil
}

func scanCard(row pgx.Row) (*domain.Card, error) {
	var c domain.Card
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Link,
		&c.Owner,
		&c.Likes,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.Likes == nil {
		c.Likes = []string{}
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}
