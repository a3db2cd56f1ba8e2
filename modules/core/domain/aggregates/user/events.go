package user

import "github.com/google/uuid"

// RegisteredEvent is published after a user and their default pipeline have
// been committed.
type RegisteredEvent struct {
	UserID uuid.UUID
	Email  string
}
