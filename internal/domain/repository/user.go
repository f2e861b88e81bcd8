package repository

import (
	"context"

	"github.com/polkiloo/cashout/internal/domain/model"
)

// UserRepository describes persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user model.User) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
}
