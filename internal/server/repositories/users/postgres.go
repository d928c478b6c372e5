package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vars/internal/common"
	"github.com/dmitrijs2005/vars/internal/dbx"
	"github.com/dmitrijs2005/vars/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, password_hash, role_id, avatar, created_at, last_seen, deleted_at, is_active`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var avatar sql.NullString
	var deletedAt sql.NullTime

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.RoleID,
		&avatar, &u.CreatedAt, &u.LastSeen, &deletedAt, &u.IsActive)
	if err != nil {
		return nil, err
	}

	if avatar.Valid {
		u.Avatar = &avatar.String
	}
	if deletedAt.Valid {
		u.DeletedAt = &deletedAt.Time
	}
	return u, nil
}

func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return common.ErrorConflict
	}
	return fmt.Errorf("db error: %w", err)
}

// FindByNameOrEmail returns the live account whose name equals name or
// whose email equals email.
func (r *PostgresRepository) FindByNameOrEmail(ctx context.Context, name, email string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE (name = $1 OR email = $2) AND deleted_at IS NULL
		 ORDER BY id
		 LIMIT 1
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, name, email))
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int32) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = $1 AND deleted_at IS NULL
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.NewUser) (*models.User, error) {
	query :=
		`INSERT INTO users (name, email, password_hash, avatar)
		 VALUES ($1, $2, $3, NULLIF($4, ''))
		 RETURNING ` + userColumns + `
		 `

	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Avatar))
	if err != nil {
		return nil, mapError(err)
	}

	return created, nil
}

// Update overwrites name and email and, when upd.Avatar is not empty, the
// avatar.
func (r *PostgresRepository) Update(ctx context.Context, id int32, upd *models.UserUpdate) (*models.User, error) {
	query :=
		`UPDATE users SET name = $1, email = $2, avatar = COALESCE(NULLIF($3, ''), avatar)
		 WHERE id = $4 AND deleted_at IS NULL
		 RETURNING ` + userColumns + `
		 `

	updated, err := scanUser(r.db.QueryRowContext(ctx, query, upd.Name, upd.Email, upd.Avatar, id))
	if err != nil {
		return nil, mapError(err)
	}

	return updated, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*models.PublicUser, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE deleted_at IS NULL
		 ORDER BY id
		 LIMIT $1 OFFSET $2
		 `

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	list := make([]*models.PublicUser, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, u.Public())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`

	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}
