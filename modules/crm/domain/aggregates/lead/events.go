package lead

import "github.com/google/uuid"

// CreatedEvent is published after a lead row is committed.
type CreatedEvent struct {
	Result Lead
}

// DeletedEvent is published after a lead row is removed.
type DeletedEvent struct {
	UserID uuid.UUID
	LeadID uuid.UUID
}

// ReorderedEvent is published after a move batch commits.
type ReorderedEvent struct {
	UserID    uuid.UUID
	MoveCount int
}
