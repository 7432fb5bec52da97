package store

import (
	"context"
	"sync"

	"caspomat/internal/account/models"
)

// InMemoryAccountStore keeps the directory in a map guarded by a RWMutex.
// It is the default backend and also serves as the working set in front of a
// durable backend; state lives for the process lifetime only.
type InMemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

// NewInMemoryAccountStore seeds the store with the built-in defaults.
func NewInMemoryAccountStore() *InMemoryAccountStore {
	return NewInMemoryAccountStoreWith(Defaults())
}

// NewInMemoryAccountStoreWith seeds the store with an explicit directory,
// typically the result of a durable Load or a test fixture.
func NewInMemoryAccountStoreWith(seed map[string]models.Account) *InMemoryAccountStore {
	return &InMemoryAccountStore{accounts: clone(seed)}
}

func (s *InMemoryAccountStore) Load(_ context.Context) (map[string]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.accounts), nil
}

func (s *InMemoryAccountStore) Save(_ context.Context, accounts map[string]models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = clone(accounts)
	return nil
}

func (s *InMemoryAccountStore) Get(_ context.Context, identity string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if account, ok := s.accounts[identity]; ok {
		return account, nil
	}
	return models.Account{}, ErrNotFound
}

func (s *InMemoryAccountStore) Put(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Identity] = account
	return nil
}
