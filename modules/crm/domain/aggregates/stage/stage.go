package stage

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stage is one pipeline column on a user's board. Order defines the
// left-to-right column sequence; ties are broken deterministically by id.
type Stage struct {
	id        uuid.UUID
	userID    uuid.UUID
	name      string
	order     int
	createdAt time.Time
	updatedAt time.Time
}

func New(userID uuid.UUID, name string, order int) Stage {
	return Stage{
		id:     uuid.New(),
		userID: userID,
		name:   strings.TrimSpace(name),
		order:  order,
	}
}

func Hydrate(
	id uuid.UUID,
	userID uuid.UUID,
	name string,
	order int,
	createdAt time.Time,
	updatedAt time.Time,
) Stage {
	return Stage{
		id:        id,
		userID:    userID,
		name:      strings.TrimSpace(name),
		order:     order,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (s Stage) ID() uuid.UUID        { return s.id }
func (s Stage) UserID() uuid.UUID    { return s.userID }
func (s Stage) Name() string         { return s.name }
func (s Stage) Order() int           { return s.order }
func (s Stage) CreatedAt() time.Time { return s.createdAt }
func (s Stage) UpdatedAt() time.Time { return s.updatedAt }
func (s Stage) IsZero() bool         { return s.id == uuid.Nil }
