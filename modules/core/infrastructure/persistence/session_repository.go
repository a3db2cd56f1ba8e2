package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/flowcrm/flowcrm/modules/core/domain/entities/session"
	"github.com/flowcrm/flowcrm/pkg/composables"
)

const (
	sessionFindQuery = `
        SELECT token, user_id, ip, user_agent, expires_at, created_at
        FROM sessions
        WHERE token = $1`

	sessionInsertQuery = `
        INSERT INTO sessions (token, user_id, ip, user_agent, expires_at)
        VALUES ($1, $2, $3, $4, $5)`

	sessionDeleteQuery = `DELETE FROM sessions WHERE token = $1`

	sessionDeleteExpiredQuery = `DELETE FROM sessions WHERE expires_at < now()`
)

type PgSessionRepository struct{}

func NewSessionRepository() session.Repository {
	return &PgSessionRepository{}
}

func (g *PgSessionRepository) GetByToken(ctx context.Context, token string) (*session.Session, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	s := &session.Session{}
	row := tx.QueryRow(ctx, sessionFindQuery, token)
	if err := row.Scan(&s.Token, &s.UserID, &s.IP, &s.UserAgent, &s.ExpiresAt, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, gerrors.Wrap(err, "get session")
	}
	return s, nil
}

func (g *PgSessionRepository) Create(ctx context.Context, s *session.Session) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sessionInsertQuery, s.Token, s.UserID, s.IP, s.UserAgent, s.ExpiresAt); err != nil {
		return gerrors.Wrap(err, "create session")
	}
	return nil
}

func (g *PgSessionRepository) Delete(ctx context.Context, token string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sessionDeleteQuery, token); err != nil {
		return gerrors.Wrap(err, "delete session")
	}
	return nil
}

func (g *PgSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tag, err := tx.Exec(ctx, sessionDeleteExpiredQuery)
	if err != nil {
		return 0, gerrors.Wrap(err, "delete expired sessions")
	}
	return tag.RowsAffected(), nil
}
