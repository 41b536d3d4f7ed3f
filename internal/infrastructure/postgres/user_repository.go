package postgres

import (
	"context"
	"errors"

	domain "photoshare/backend/internal/domain/user"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"
)

const userColumns = `id, name, about, avatar, email, password_hash`

// UserRepository persists users in PostgreSQL.
type UserRepository struct {
	pool Querier
}

var _ domain.Repository = (*UserRepository)(nil)

// NewUserRepository constructs a repository.
func NewUserRepository(pool Querier) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
INSERT INTO users (id, name, about, avatar, email, password_hash)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.About,
		user.Avatar,
		user.Email,
		user.PasswordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailExists
		}
		return oops.In("postgres").With("user_id", user.ID).Wrapf(err, "insert user")
	}
	return nil
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return oneUser(row, "select user by email")
}

// GetByID fetches a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return oneUser(row, "select user by id")
}

// List returns all users in id order.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, oops.In("postgres").Wrapf(err, "list users")
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, oops.In("postgres").Wrapf(err, "scan user")
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile sets the non-nil fields and returns the updated user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, name, about *string) (*domain.User, error) {
	const query = `
UPDATE users
SET name = COALESCE($2, name),
    about = COALESCE($3, about)
WHERE id = $1
RETURNING ` + userColumns
	row := r.pool.QueryRow(ctx, query, id, name, about)
	return oneUser(row, "update profile")
}

// UpdateAvatar replaces the avatar link and returns the updated user.
func (r *UserRepository) UpdateAvatar(ctx context.Context, id, avatar string) (*domain.User, error) {
	const query = `UPDATE users SET avatar = $2 WHERE id = $1 RETURNING ` + userColumns
	row := r.pool.QueryRow(ctx, query, id, avatar)
	return oneUser(row, "update avatar")
}

func oneUser(row pgx.Row, op string) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, oops.In("postgres").Wrapf(err, "%s", op)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.About,
		&u.Avatar,
		&u.Email,
		&u.PasswordHash,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
