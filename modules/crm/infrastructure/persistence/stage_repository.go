package persistence

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/pkg/composables"
)

const (
	stageFindQuery = `
        SELECT s.id, s.user_id, s.name, s."order", s.created_at, s.updated_at
        FROM lead_stages s`

	stageInsertQuery = `
        INSERT INTO lead_stages (id, user_id, name, "order")
        VALUES ($1, $2, $3, $4)`

	stageCountOwnedQuery = `
        SELECT COUNT(*) FROM lead_stages WHERE user_id = $1 AND id = ANY($2)`

	stageUpdateQuery = `
        UPDATE lead_stages
        SET name = $3, "order" = $4, updated_at = $5
        WHERE id = $1 AND user_id = $2`
)

type PgStageRepository struct{}

func NewStageRepository() stage.Repository {
	return &PgStageRepository{}
}

func (g *PgStageRepository) List(ctx context.Context, userID uuid.UUID) ([]stage.Stage, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, stageFindQuery+` WHERE s.user_id = $1 ORDER BY s."order" ASC, s.id ASC`, userID)
	if err != nil {
		return nil, gerrors.Wrap(err, "list stages")
	}
	defer rows.Close()

	out := make([]stage.Stage, 0)
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (g *PgStageRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (stage.Stage, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return stage.Stage{}, err
	}
	row := tx.QueryRow(ctx, stageFindQuery+` WHERE s.id = $1 AND s.user_id = $2`, id, userID)
	s, err := scanStage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stage.Stage{}, stage.ErrNotFound
		}
		return stage.Stage{}, gerrors.Wrap(err, "get stage")
	}
	return s, nil
}

func (g *PgStageRepository) First(ctx context.Context, userID uuid.UUID) (stage.Stage, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return stage.Stage{}, err
	}
	row := tx.QueryRow(ctx, stageFindQuery+` WHERE s.user_id = $1 ORDER BY s."order" ASC, s.id ASC LIMIT 1`, userID)
	s, err := scanStage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stage.Stage{}, stage.ErrNotFound
		}
		return stage.Stage{}, gerrors.Wrap(err, "first stage")
	}
	return s, nil
}

func (g *PgStageRepository) CountOwned(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	var count int
	if err := tx.QueryRow(ctx, stageCountOwnedQuery, userID, ids).Scan(&count); err != nil {
		return 0, gerrors.Wrap(err, "count owned stages")
	}
	return count, nil
}

func (g *PgStageRepository) CreateMany(ctx context.Context, stages []stage.Stage) error {
	if len(stages) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, s := range stages {
		batch.Queue(stageInsertQuery, s.ID(), s.UserID(), s.Name(), s.Order())
	}
	results := tx.SendBatch(ctx, batch)
	defer func() {
		_ = results.Close()
	}()
	for range stages {
		if _, err := results.Exec(); err != nil {
			return gerrors.Wrap(err, "create stages")
		}
	}
	return nil
}

func (g *PgStageRepository) UpdateMany(ctx context.Context, userID uuid.UUID, updates []stage.Update) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, u := range updates {
		if _, err := tx.Exec(ctx, stageUpdateQuery, u.ID, userID, u.Name, u.Order, now); err != nil {
			return gerrors.Wrap(err, "update stage")
		}
	}
	return nil
}

func scanStage(row pgx.Row) (stage.Stage, error) {
	var (
		id        uuid.UUID
		userID    uuid.UUID
		name      string
		order     int
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &userID, &name, &order, &createdAt, &updatedAt); err != nil {
		return stage.Stage{}, err
	}
	return stage.Hydrate(id, userID, name, order, createdAt, updatedAt), nil
}
