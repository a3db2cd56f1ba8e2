package persistence

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/flowcrm/flowcrm/modules/core/domain/aggregates/user"
	"github.com/flowcrm/flowcrm/pkg/composables"
)

const (
	userFindQuery = `
        SELECT
            u.id,
            u.name,
            u.email,
            u.password_hash,
            u.avatar_url,
            u.created_at,
            u.updated_at
        FROM users u`

	userInsertQuery = `
        INSERT INTO users (id, name, email, password_hash, avatar_url)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, name, email, password_hash, avatar_url, created_at, updated_at`

	userUpdateQuery = `
        UPDATE users
        SET name = $2, email = $3, password_hash = $4, avatar_url = $5, updated_at = $6
        WHERE id = $1
        RETURNING id, name, email, password_hash, avatar_url, created_at, updated_at`
)

type PgUserRepository struct{}

func NewUserRepository() user.Repository {
	return &PgUserRepository{}
}

func (g *PgUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return user.User{}, err
	}
	row := tx.QueryRow(ctx, userFindQuery+` WHERE u.id = $1`, id)
	return scanUser(row)
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return user.User{}, err
	}
	row := tx.QueryRow(ctx, userFindQuery+` WHERE u.email = $1`, email)
	return scanUser(row)
}

func (g *PgUserRepository) Create(ctx context.Context, u user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return user.User{}, err
	}
	row := tx.QueryRow(ctx, userInsertQuery,
		u.ID(),
		u.Name(),
		u.Email(),
		u.PasswordHash(),
		nullString(u.AvatarURL()),
	)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, gerrors.Wrap(err, "create user")
	}
	return created, nil
}

func (g *PgUserRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return user.User{}, err
	}
	row := tx.QueryRow(ctx, userUpdateQuery,
		u.ID(),
		u.Name(),
		u.Email(),
		u.PasswordHash(),
		nullString(u.AvatarURL()),
		time.Now(),
	)
	updated, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, gerrors.Wrap(err, "update user")
	}
	return updated, nil
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		id           uuid.UUID
		name         string
		email        string
		passwordHash string
		avatarURL    *string
		createdAt    time.Time
		updatedAt    time.Time
	)
	if err := row.Scan(&id, &name, &email, &passwordHash, &avatarURL, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	avatar := ""
	if avatarURL != nil {
		avatar = *avatarURL
	}
	return user.Hydrate(id, name, email, passwordHash, avatar, createdAt, updatedAt), nil
}

func nullString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
