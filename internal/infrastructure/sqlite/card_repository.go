package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	domain "photoshare/backend/internal/domain/card"

	"github.com/samber/oops"
)

const cardColumns = `id, name, link, owner_id, likes, created_at`

// CardRepository persists cards in SQLite. Likes are a JSON array of user ids
// mutated in place by a single UPDATE.
type CardRepository struct {
	db *DB
}

var _ domain.Repository = (*CardRepository)(nil)

// NewCardRepository constructs a repository.
func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

// Create inserts a new card.
func (r *CardRepository) Create(ctx context.Context, card *domain.Card) error {
	likes, err := json.Marshal(nonNil(card.Likes))
	if err != nil {
		return oops.In("sqlite").Wrapf(err, "encode likes")
	}
	const query = `
INSERT INTO cards (id, name, link, owner_id, likes, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`
	_, err = r.db.ExecContext(ctx, query,
		card.ID,
		card.Name,
		card.Link,
		card.Owner,
		string(likes),
		toUnixMicro(card.CreatedAt),
	)
	if err != nil {
		return oops.In("sqlite").With("card_id", card.ID).Wrapf(err, "insert card")
	}
	return nil
}

// GetByID fetches a card by id.
func (r *CardRepository) GetByID(ctx context.Context, id string) (*domain.Card, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	return r.one(row, "select card")
}

// List returns all cards oldest first.
func (r *CardRepository) List(ctx context.Context) ([]*domain.Card, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, oops.In("sqlite").Wrapf(err, "list cards")
	}
	defer rows.Close()

	cards := []*domain.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, oops.In("sqlite").Wrapf(err, "scan card")
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// Delete removes a card by id.
func (r *CardRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return oops.In("sqlite").With("card_id", id).Wrapf(err, "delete card")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return oops.In("sqlite").Wrapf(err, "delete card")
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddLike appends userID to the likes unless it is already there.
func (r *CardRepository) AddLike(ctx context.Context, id, userID string) (*domain.Card, error) {
	const query = `
UPDATE cards
SET likes = CASE
	WHEN EXISTS (SELECT 1 FROM json_each(cards.likes) WHERE value = ?) THEN likes
	ELSE json_insert(likes, '$[#]', ?)
END
WHERE id = ?
RETURNING ` + cardColumns
	row := r.db.QueryRowContext(ctx, query, userID, userID, id)
	return r.one(row, "add like")
}

// RemoveLike drops userID from the likes if present.
func (r *CardRepository) RemoveLike(ctx context.Context, id, userID string) (*domain.Card, error) {
	const query = `
UPDATE cards
SET likes = (
	SELECT json_group_array(value) FROM json_each(cards.likes) WHERE value <> ?
)
WHERE id = ?
RETURNING ` + cardColumns
	row := r.db.QueryRowContext(ctx, query, userID, id)
	return r.one(row, "remove like")
}

func (r *CardRepository) one(row *sql.Row, op string) (*domain.Card, error) {
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, oops.In("sqlite").Wrapf(err, "%s", op)
	}
	return card, nil
}

func scanCard(row scanner) (*domain.Card, error) {
	var (
		c       domain.Card
		likes   string
		created int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Link, &c.Owner, &likes, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(likes), &c.Likes); err != nil {
		return nil, err
	}
	c.Likes = nonNil(c.Likes)
	c.CreatedAt = fromUnixMicro(created)
	return &c, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
