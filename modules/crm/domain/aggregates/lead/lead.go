package lead

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
)

type Option func(*Lead)

func WithID(id uuid.UUID) Option {
	return func(l *Lead) {
		l.id = id
	}
}

func WithCompany(company string) Option {
	return func(l *Lead) {
		l.company = strings.TrimSpace(company)
	}
}

func WithEmail(email string) Option {
	return func(l *Lead) {
		l.email = strings.TrimSpace(email)
	}
}

func WithPhone(phone string) Option {
	return func(l *Lead) {
		l.phone = strings.TrimSpace(phone)
	}
}

func WithValue(value decimal.Decimal) Option {
	return func(l *Lead) {
		v := value
		l.value = &v
	}
}

func WithNotes(notes string) Option {
	return func(l *Lead) {
		l.notes = notes
	}
}

// Lead is a sales prospect owned by one user. A lead optionally sits in one
// of the owner's stages; its position orders it top-to-bottom inside that
// column. A lead without a stage stays addressable but is not rendered on
// the board.
type Lead struct {
	id        uuid.UUID
	userID    uuid.UUID
	stageID   *uuid.UUID
	name      string
	company   string
	email     string
	phone     string
	value     *decimal.Decimal
	notes     string
	position  int
	createdAt time.Time
	updatedAt time.Time

	// populated stage relation, present on canonical reads
	stage *stage.Stage
}

func New(userID uuid.UUID, name string, stageID *uuid.UUID, position int, opts ...Option) Lead {
	l := Lead{
		id:       uuid.New(),
		userID:   userID,
		stageID:  stageID,
		name:     strings.TrimSpace(name),
		position: position,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

func Hydrate(
	id uuid.UUID,
	userID uuid.UUID,
	stageID *uuid.UUID,
	name string,
	company string,
	email string,
	phone string,
	value *decimal.Decimal,
	notes string,
	position int,
	createdAt time.Time,
	updatedAt time.Time,
) Lead {
	return Lead{
		id:        id,
		userID:    userID,
		stageID:   stageID,
		name:      name,
		company:   company,
		email:     email,
		phone:     phone,
		value:     value,
		notes:     notes,
		position:  position,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (l Lead) ID() uuid.UUID     { return l.id }
func (l Lead) UserID() uuid.UUID { return l.userID }

func (l Lead) StageID() *uuid.UUID {
	if l.stageID == nil {
		return nil
	}
	id := *l.stageID
	return &id
}
func (l Lead) Name() string            { return l.name }
func (l Lead) Company() string         { return l.company }
func (l Lead) Email() string           { return l.email }
func (l Lead) Phone() string           { return l.phone }
func (l Lead) Value() *decimal.Decimal { return l.value }
func (l Lead) Notes() string           { return l.notes }
func (l Lead) Position() int           { return l.position }
func (l Lead) CreatedAt() time.Time    { return l.createdAt }
func (l Lead) UpdatedAt() time.Time    { return l.updatedAt }
func (l Lead) Stage() *stage.Stage     { return l.stage }
func (l Lead) IsZero() bool            { return l.id == uuid.Nil }

func (l Lead) WithStage(s stage.Stage) Lead {
	l.stage = &s
	return l
}

func (l Lead) WithStageID(stageID *uuid.UUID) Lead {
	l.stageID = stageID
	return l
}

func (l Lead) WithPosition(position int) Lead {
	l.position = position
	return l
}
