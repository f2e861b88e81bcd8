package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
)

type userRepository struct {
	storage *Storage
}

const selectUser = `SELECT id, login, password_hash, COALESCE(account_id, ''), reviewer, created_at FROM users`

func (r *userRepository) Create(ctx context.Context, user model.User) (*model.User, error) {
	const query = `INSERT INTO users (login, password_hash, account_id, reviewer)
                   VALUES ($1, $2, NULLIF($3, ''), $4) RETURNING id, created_at`
	u := user
	err := r.storage.pool.QueryRow(ctx, query, user.Login, user.PasswordHash, user.AccountID, user.Reviewer).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, unavailable(err)
	}
	return &u, nil
}

func (r *userRepository) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	return r.get(ctx, selectUser+` WHERE login=$1`, login)
}

func (r *userRepository) get(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Login, &u.PasswordHash, &u.AccountID, &u.Reviewer, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, unavailable(err)
	}
	return &u, nil
}
