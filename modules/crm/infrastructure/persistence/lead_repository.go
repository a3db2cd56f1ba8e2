package persistence

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/lead"
	"github.com/flowcrm/flowcrm/modules/crm/domain/aggregates/stage"
	"github.com/flowcrm/flowcrm/pkg/composables"
)

const (
	leadColumns = `
            l.id,
            l.user_id,
            l.stage_id,
            l.name,
            l.company,
            l.email,
            l.phone,
            l.value,
            l.notes,
            l.position,
            l.created_at,
            l.updated_at`

	leadFindWithStageQuery = `
        SELECT ` + leadColumns + `,
            s.id,
            s.user_id,
            s.name,
            s."order",
            s.created_at,
            s.updated_at
        FROM leads l
        LEFT JOIN lead_stages s ON s.id = l.stage_id`

	// Canonical board order: stage order asc (deterministic tie-break by
	// stage id), position asc, newest first among position ties.
	leadCanonicalOrder = ` ORDER BY s."order" ASC NULLS LAST, s.id ASC, l.position ASC, l.created_at DESC`

	leadMaxPositionQuery = `
        SELECT MAX(l.position) FROM leads l WHERE l.user_id = $1 AND l.stage_id = $2`

	leadInsertQuery = `
        INSERT INTO leads (id, user_id, stage_id, name, company, email, phone, value, notes, position)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	leadUpdateQuery = `
        UPDATE leads
        SET stage_id = $3, name = $4, company = $5, email = $6, phone = $7,
            value = $8, notes = $9, position = $10, updated_at = $11
        WHERE id = $1 AND user_id = $2`

	leadDeleteQuery = `DELETE FROM leads WHERE id = $1 AND user_id = $2`

	leadMoveQuery = `
        UPDATE leads
        SET stage_id = $3, position = $4, updated_at = $5
        WHERE id = $1 AND user_id = $2`
)

type PgLeadRepository struct{}

func NewLeadRepository() lead.Repository {
	return &PgLeadRepository{}
}

func (g *PgLeadRepository) List(ctx context.Context, params *lead.FindParams) ([]lead.Lead, error) {
	if params == nil {
		return nil, gerrors.New("missing find params")
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, leadFindWithStageQuery+` WHERE l.user_id = $1`+leadCanonicalOrder, params.UserID)
	if err != nil {
		return nil, gerrors.Wrap(err, "list leads")
	}
	defer rows.Close()

	out := make([]lead.Lead, 0)
	for rows.Next() {
		l, err := scanLeadWithStage(rows, params.WithStage)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (g *PgLeadRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (lead.Lead, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return lead.Lead{}, err
	}
	rows, err := tx.Query(ctx, leadFindWithStageQuery+` WHERE l.id = $1 AND l.user_id = $2`, id, userID)
	if err != nil {
		return lead.Lead{}, gerrors.Wrap(err, "get lead")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return lead.Lead{}, gerrors.Wrap(err, "get lead")
		}
		return lead.Lead{}, lead.ErrNotFound
	}
	return scanLeadWithStage(rows, true)
}

func (g *PgLeadRepository) MaxPositionInStage(ctx context.Context, userID, stageID uuid.UUID) (int, bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, false, err
	}
	var max *int
	if err := tx.QueryRow(ctx, leadMaxPositionQuery, userID, stageID).Scan(&max); err != nil {
		return 0, false, gerrors.Wrap(err, "max position")
	}
	if max == nil {
		return 0, false, nil
	}
	return *max, true, nil
}

func (g *PgLeadRepository) Create(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return lead.Lead{}, err
	}
	if _, err := tx.Exec(ctx, leadInsertQuery,
		l.ID(),
		l.UserID(),
		l.StageID(),
		l.Name(),
		l.Company(),
		l.Email(),
		l.Phone(),
		nullDecimal(l.Value()),
		l.Notes(),
		l.Position(),
	); err != nil {
		return lead.Lead{}, gerrors.Wrap(err, "create lead")
	}
	return g.GetByID(ctx, l.UserID(), l.ID())
}

func (g *PgLeadRepository) Update(ctx context.Context, l lead.Lead) (lead.Lead, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return lead.Lead{}, err
	}
	tag, err := tx.Exec(ctx, leadUpdateQuery,
		l.ID(),
		l.UserID(),
		l.StageID(),
		l.Name(),
		l.Company(),
		l.Email(),
		l.Phone(),
		nullDecimal(l.Value()),
		l.Notes(),
		l.Position(),
		time.Now(),
	)
	if err != nil {
		return lead.Lead{}, gerrors.Wrap(err, "update lead")
	}
	if tag.RowsAffected() == 0 {
		return lead.Lead{}, lead.ErrNotFound
	}
	return g.GetByID(ctx, l.UserID(), l.ID())
}

func (g *PgLeadRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, leadDeleteQuery, id, userID)
	if err != nil {
		return gerrors.Wrap(err, "delete lead")
	}
	if tag.RowsAffected() == 0 {
		return lead.ErrNotFound
	}
	return nil
}

func (g *PgLeadRepository) MoveMany(ctx context.Context, userID uuid.UUID, moves []lead.Move) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	// Input order is significant: with duplicate lead ids in one batch the
	// last occurrence wins.
	for _, m := range moves {
		if _, err := tx.Exec(ctx, leadMoveQuery, m.ID, userID, m.StageID, m.Position, now); err != nil {
			return gerrors.Wrap(err, "move lead")
		}
	}
	return nil
}

func scanLeadWithStage(row pgx.Row, withStage bool) (lead.Lead, error) {
	var (
		id        uuid.UUID
		userID    uuid.UUID
		stageID   *uuid.UUID
		name      string
		company   string
		email     string
		phone     string
		value     decimal.NullDecimal
		notes     string
		position  int
		createdAt time.Time
		updatedAt time.Time

		sID        *uuid.UUID
		sUserID    *uuid.UUID
		sName      *string
		sOrder     *int
		sCreatedAt *time.Time
		sUpdatedAt *time.Time
	)
	if err := row.Scan(
		&id, &userID, &stageID, &name, &company, &email, &phone, &value, &notes, &position, &createdAt, &updatedAt,
		&sID, &sUserID, &sName, &sOrder, &sCreatedAt, &sUpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lead.Lead{}, lead.ErrNotFound
		}
		return lead.Lead{}, err
	}

	var leadValue *decimal.Decimal
	if value.Valid {
		v := value.Decimal
		leadValue = &v
	}

	l := lead.Hydrate(id, userID, stageID, name, company, email, phone, leadValue, notes, position, createdAt, updatedAt)
	if withStage && sID != nil {
		l = l.WithStage(stage.Hydrate(*sID, *sUserID, *sName, *sOrder, *sCreatedAt, *sUpdatedAt))
	}
	return l, nil
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}
