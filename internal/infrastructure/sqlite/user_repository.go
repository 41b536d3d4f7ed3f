package sqlite

import (
	"context"
	"database/sql"
	"errors"

	domain "photoshare/backend/internal/domain/user"

	"github.com/samber/oops"
)

const userColumns = `id, name, about, avatar, email, password_hash`

// UserRepository persists users in SQLite.
type UserRepository struct {
	db *DB
}

var _ domain.Repository = (*UserRepository)(nil)

// NewUserRepository constructs a repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
INSERT INTO users (id, name, about, avatar, email, password_hash)
VALUES (?, ?, ?, ?, ?, ?)
`
	_, err := r.db.ExecContext(ctx, query,
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
		return oops.In("sqlite").With("user_id", user.ID).Wrapf(err, "insert user")
	}
	return nil
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return r.one(row, "select user by email")
}

// GetByID fetches a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.one(row, "select user by id")
}

// List returns all users in id order.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, oops.In("sqlite").Wrapf(err, "list users")
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, oops.In("sqlite").Wrapf(err, "scan user")
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile sets the non-nil fields and returns the updated user.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, name, about *string) (*domain.User, error) {
	const query = `
UPDATE users
SET name = COALESCE(?, name),
    about = COALESCE(?, about)
WHERE id = ?
RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, query, name, about, id)
	return r.one(row, "update profile")
}

// UpdateAvatar replaces the avatar link and returns the updated user.
func (r *UserRepository) UpdateAvatar(ctx context.Context, id, avatar string) (*domain.User, error) {
	const query = `UPDATE users SET avatar = ? WHERE id = ? RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, query, avatar, id)
	return r.one(row, "update avatar")
}

func (r *UserRepository) one(row *sql.Row, op string) (*domain.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, oops.In("sqlite").Wrapf(err, "%s", op)
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.About, &u.Avatar, &u.Email, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}
