package lead

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("lead not found")

// Move relocates one lead to (StageID, Position). Moves are applied scoped
// by (lead id, owner), so a move naming a lead the caller does not own
// matches zero rows instead of failing.
type Move struct {
	ID       uuid.UUID
	StageID  uuid.UUID
	Position int
}

type FindParams struct {
	UserID uuid.UUID
	// WithStage populates the stage relation on returned leads.
	WithStage bool
}

type Repository interface {
	// List returns the user's leads in canonical order: stage order asc,
	// position asc, created_at desc. Stageless leads sort last.
	List(ctx context.Context, params *FindParams) ([]Lead, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (Lead, error)
	// MaxPositionInStage returns the highest position among the user's
	// leads in the given stage, and false when the stage holds none.
	MaxPositionInStage(ctx context.Context, userID, stageID uuid.UUID) (int, bool, error)
	Create(ctx context.Context, l Lead) (Lead, error)
	Update(ctx context.Context, l Lead) (Lead, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// MoveMany applies every move in input order, each scoped by
	// (move.ID, userID). Callers wrap it in a transaction; a move that
	// matches no row is a no-op, not an error.
	MoveMany(ctx context.Context, userID uuid.UUID, moves []Move) error
}
