package ledger

import (
	"context"
	"sort"
	"sync"

	domainErrors "github.com/polkiloo/cashout/internal/domain/errors"
	"github.com/polkiloo/cashout/internal/domain/model"
	"github.com/polkiloo/cashout/internal/domain/repository"
)

// MemoryStore keeps accounts in process memory and serializes updates per account.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	locks    map[string]*sync.Mutex
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*model.Account),
		locks:    make(map[string]*sync.Mutex),
	}
}

var _ repository.LedgerStore = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, account model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return domainErrors.ErrAlreadyExists
	}
	s.accounts[account.ID] = account.Clone()
	s.locks[account.ID] = &sync.Mutex{}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, accountID string) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return account.Clone(), nil
}

func (s *MemoryStore) ApplyIfBalanceAtLeast(_ context.Context, accountID string, required int64, mutation repository.Mutation) (*model.Account, error) {
	s.mu.Lock()
	lock, ok := s.locks[accountID]
	s.mu.Unlock()
	if !ok {
		return nil, domainErrors.ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	current := s.accounts[accountID]
	s.mu.Unlock()

	next, err := Apply(current, required, mutation)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.accounts[accountID] = next
	s.mu.Unlock()
	return next.Clone(), nil
}

func (s *MemoryStore) ListAccounts(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
