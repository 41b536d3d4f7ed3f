package card

import (
	"slices"
	"time"

	"photoshare/backend/internal/apperror"
	"photoshare/backend/internal/domain/user"
)

var (
	// ErrNotFound indicates a card could not be located.
	ErrNotFound = apperror.New(apperror.NotFound, "Card not found")
	// ErrNotOwner is returned when a caller tries to delete someone else's card.
	ErrNotOwner = apperror.New(apperror.Forbidden, "You cannot delete another user's card")
	// ErrInvalidCard indicates a name or link outside the stored constraints.
	ErrInvalidCard = apperror.New(apperror.BadInput, "Invalid card data")
)

// Card is a published photo. Owner is set once at creation; Likes holds each
// liker's id at most once.
type Card struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
	Owner     string    `json:"owner"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks the stored-field constraints of a card.
func (c *Card) Validate() error {
	if user.ValidateText(c.Name) != nil || user.ValidateLink(c.Link) != nil {
		return ErrInvalidCard
	}
	return nil
}

// OwnedBy reports whether userID created the card.
func (c *Card) OwnedBy(userID string) bool {
	return c.Owner == userID
}

// LikedBy reports whether userID is in the likes set.
func (c *Card) LikedBy(userID string) bool {
	return slices.Contains(c.Likes, userID)
}
