package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"caspomat/internal/account/models"
)

// JSONFileAccountStore persists the directory as a flat JSON file keyed by
// identity. Writes go to a temp file first and are renamed into place, so a
// crash mid-write never leaves a file behind that a later Load would reject.
// An absent file is not an error; it means no durable state exists yet.
type JSONFileAccountStore struct {
	mu   sync.Mutex
	path string
}

func NewJSONFileAccountStore(path string) *JSONFileAccountStore {
	return &JSONFileAccountStore{path: path}
}

// record is the wire shape of one account in the durable file:
// {"Avi Cohen": {"pin": "1234", "balance": 1000}, ...}
type record struct {
	PIN     string `json:"pin"`
	Balance int64  `json:"balance"`
}

func (s *JSONFileAccountStore) Load(_ context.Context) (map[string]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *JSONFileAccountStore) Save(_ context.Context, accounts map[string]models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(accounts)
}

func (s *JSONFileAccountStore) Get(_ context.Context, identity string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts, err := s.load()
	if err != nil {
		return models.Account{}, err
	}
	if account, ok := accounts[identity]; ok {
		return account, nil
	}
	return models.Account{}, ErrNotFound
}

func (s *JSONFileAccountStore) Put(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts, err := s.load()
	if err != nil {
		return err
	}
	accounts[account.Identity] = account
	return s.save(accounts)
}

func (s *JSONFileAccountStore) load() (map[string]models.Account, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	var records map[string]record
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, ErrCorruptState)
	}
	accounts := make(map[string]models.Account, len(records))
	for identity, r := range records {
		if r.Balance < 0 {
			return nil, fmt.Errorf("%s: negative balance for %q: %w", s.path, identity, ErrCorruptState)
		}
		accounts[identity] = models.Account{Identity: identity, PIN: r.PIN, Balance: r.Balance}
	}
	return accounts, nil
}

func (s *JSONFileAccountStore) save(accounts map[string]models.Account) error {
	records := make(map[string]record, len(accounts))
	for identity, a := range accounts {
		records[identity] = record{PIN: a.PIN, Balance: a.Balance}
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}
