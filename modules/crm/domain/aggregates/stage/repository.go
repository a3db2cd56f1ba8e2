package stage

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("stage not found")
	// ErrInvalidReference is returned when a batch names a stage that does
	// not exist or is not owned by the caller.
	ErrInvalidReference = errors.New("invalid stage reference")
)

// Update is one rename/reorder applied by the stage batch operation.
type Update struct {
	ID    uuid.UUID
	Name  string
	Order int
}

type Repository interface {
	// List returns the user's stages ordered by order asc, id asc.
	List(ctx context.Context, userID uuid.UUID) ([]Stage, error)
	GetByID(ctx context.Context, userID, id uuid.UUID) (Stage, error)
	// First returns the user's lowest-order stage, ErrNotFound when the
	// user has none.
	First(ctx context.Context, userID uuid.UUID) (Stage, error)
	// CountOwned reports how many of the given stage ids belong to the user.
	CountOwned(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error)
	CreateMany(ctx context.Context, stages []Stage) error
	// UpdateMany applies each update scoped by (id, userID); updates that
	// match no row are skipped silently.
	UpdateMany(ctx context.Context, userID uuid.UUID, updates []Update) error
}
