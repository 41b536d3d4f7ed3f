package user

import "context"

// Repository defines persistence operations for users.
//
// Implementations return ErrNotFound for missing records and ErrEmailExists
// when the unique email constraint rejects a write.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	// UpdateProfile sets the non-nil fields and returns the updated record.
	UpdateProfile(ctx context.Context, id string, name, about *string) (*User, error)
	UpdateAvatar(ctx context.Context, id, avatar string) (*User, error)
}
