package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/skyport/internal/domain/entity"
	"github.com/oksasatya/skyport/internal/domain/repository"
)

const userColumns = `id, username, email, password_hash, confirmed, confirmed_at, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, confirmed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, u.Username, u.Email, u.PasswordHash, u.Confirmed)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		switch uniqueViolation(err) {
		case "users_username_key":
			return repository.ErrDuplicateUsername
		case "users_email_key":
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	u := &entity.User{}
	row := r.db.QueryRow(ctx, query, arg)
	if err := scanUser(row, u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// SetConfirmed only touches rows that are still unconfirmed, so repeating
// it is a no-op. An unknown id is reported as ErrNotFound.
func (r *UserRepository) SetConfirmed(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET confirmed = TRUE, confirmed_at = now(), updated_at = now()
		WHERE id = $1 AND confirmed = FALSE
	`, id)
	if err != nil {
		return fmt.Errorf("confirm user: %w", err)
	}
	if res.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("confirm user: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SearchByUsername(ctx context.Context, q string, limit int) ([]entity.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username ILIKE $1
		ORDER BY username
		LIMIT $2
	`, likePattern(q), limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var out []entity.User
	for rows.Next() {
		var u entity.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("search users: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row, u *entity.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Confirmed,
		&u.ConfirmedAt, &u.CreatedAt, &u.UpdatedAt)
}

var _ repository.UserRepository = (*UserRepository)(nil)
