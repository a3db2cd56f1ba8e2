package persistence

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flowcrm/flowcrm/modules/core/domain/entities/resettoken"
	"github.com/flowcrm/flowcrm/pkg/composables"
)

const (
	resetTokenFindQuery = `
        SELECT id, token, user_id, expires_at, used_at, created_at
        FROM password_reset_tokens
        WHERE token = $1`

	resetTokenInsertQuery = `
        INSERT INTO password_reset_tokens (id, token, user_id, expires_at)
        VALUES ($1, $2, $3, $4)`

	resetTokenMarkUsedQuery = `
        UPDATE password_reset_tokens SET used_at = $2 WHERE id = $1`
)

type PgResetTokenRepository struct{}

func NewResetTokenRepository() resettoken.Repository {
	return &PgResetTokenRepository{}
}

func (g *PgResetTokenRepository) GetByToken(ctx context.Context, token string) (*resettoken.ResetToken, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	t := &resettoken.ResetToken{}
	row := tx.QueryRow(ctx, resetTokenFindQuery, token)
	if err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resettoken.ErrNotFound
		}
		return nil, gerrors.Wrap(err, "get reset token")
	}
	return t, nil
}

func (g *PgResetTokenRepository) Create(ctx context.Context, t *resettoken.ResetToken) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, resetTokenInsertQuery, t.ID, t.Token, t.UserID, t.ExpiresAt); err != nil {
		return gerrors.Wrap(err, "create reset token")
	}
	return nil
}

func (g *PgResetTokenRepository) MarkUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, resetTokenMarkUsedQuery, id, usedAt); err != nil {
		return gerrors.Wrap(err, "mark reset token used")
	}
	return nil
}
