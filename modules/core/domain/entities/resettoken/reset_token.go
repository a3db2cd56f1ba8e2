package resettoken

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("reset token not found")

// ResetToken is a single-use password reset credential mailed to the user.
type ResetToken struct {
	ID        uuid.UUID
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still redeem a password change.
func (t *ResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

type Repository interface {
	GetByToken(ctx context.Context, token string) (*ResetToken, error)
	Create(ctx context.Context, t *ResetToken) error
	MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error
}
