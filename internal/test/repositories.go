package test

import (
	"context"
	"sync"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/domain/repository"
)

// UserRepositoryStub stores users in-memory for tests.
type UserRepositoryStub struct {
	Users map[string]*model.User
	Next  int64
	Err   error
	mu    sync.Mutex
}

// NewUserRepositoryStub constructs stub repository with initialized maps.
func NewUserRepositoryStub() *UserRepositoryStub {
	return &UserRepositoryStub{
		Users: make(map[string]*model.User),
		Next:  1,
	}
}

// Create registers user unless already exists or stub has explicit error.
func (s *UserRepositoryStub) Create(ctx context.Context, user model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Users == nil {
		s.Users = make(map[string]*model.User)
	}
	if _, exists := s.Users[user.Login]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if s.Next == 0 {
		s.Next = 1
	}
	stored := user
	stored.ID = s.Next
	s.Next++
	s.Users[stored.Login] = &stored
	return &stored, nil
}

// GetByLogin fetches user by login or returns not found.
func (s *UserRepositoryStub) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if user, ok := s.Users[login]; ok {
		return user, nil
	}
	return nil, domainErrors.ErrNotFound
}

// LedgerStoreStub allows tests to customize ledger behaviour.
type LedgerStoreStub struct {
	CreateFn       func(context.Context, model.Account) error
	GetFn          func(context.Context, string) (*model.Account, error)
	ApplyFn        func(context.Context, string, int64, repository.Mutation) (*model.Account, error)
	ListAccountsFn func(context.Context) ([]string, error)
}

// Create delegates to CreateFn or accepts the account.
func (s LedgerStoreStub) Create(ctx context.Context, account model.Account) error {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, account)
	}
	return nil
}

// Get delegates to GetFn or reports not found.
func (s LedgerStoreStub) Get(ctx context.Context, accountID string) (*model.Account, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, accountID)
	}
	return nil, domainErrors.ErrNotFound
}

// ApplyIfBalanceAtLeast delegates to ApplyFn or reports not found.
func (s LedgerStoreStub) ApplyIfBalanceAtLeast(ctx context.Context, accountID string, required int64, mutation repository.Mutation) (*model.Account, error) {
	if s.ApplyFn != nil {
		return s.ApplyFn(ctx, accountID, required, mutation)
	}
	return nil, domainErrors.ErrNotFound
}

// ListAccounts delegates to ListAccountsFn or returns nothing.
func (s LedgerStoreStub) ListAccounts(ctx context.Context) ([]string, error) {
	if s.ListAccountsFn != nil {
		return s.ListAccountsFn(ctx)
	}
	return nil, nil
}

// FactoryStub bundles repositories for code depending on repository.Factory.
type FactoryStub struct {
	UsersRepo  repository.UserRepository
	LedgerRepo repository.LedgerStore
}

// Users returns configured user repository.
func (f FactoryStub) Users() repository.UserRepository { return f.UsersRepo }

// Ledger returns configured ledger store.
func (f FactoryStub) Ledger() repository.LedgerStore { return f.LedgerRepo }

var (
	_ repository.UserRepository = (*UserRepositoryStub)(nil)
	_ repository.LedgerStore    = LedgerStoreStub{}
	_ repository.Factory        = FactoryStub{}
)
