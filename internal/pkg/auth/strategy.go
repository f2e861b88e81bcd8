package auth

import (
	"time"

	"github.com/polkiloo/cashout/internal/domain/model"
)

type Strategy interface {
	IssueToken(principal model.Principal) (string, error)
	ParseToken(token string) (model.Principal, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
