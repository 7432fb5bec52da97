// Package service holds the authentication and account mutation logic. It sits
// between the session controller and the account stores: every balance change
// is validated, applied to the working store, then flushed to the durable
// backend when one is configured.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"caspomat/internal/account/metrics"
	"caspomat/internal/account/models"
	"caspomat/internal/account/store"
	"caspomat/internal/account/validation"
)

var (
	// ErrUnknownIdentity: the claimed identity is not in the directory.
	ErrUnknownIdentity = errors.New("unknown identity")

	// ErrWrongPIN: the identity exists but the presented PIN does not match.
	ErrWrongPIN = errors.New("wrong PIN")
)

// Flusher mirrors the Save half of store.AccountStore. A nil Flusher means
// state lives for the process lifetime only.
type Flusher interface {
	Save(ctx context.Context, accounts map[string]models.Account) error
}

// Service applies validated transactions to the working store. All
// read-modify-write sequences run under a single mutex so they appear atomic
// to any observer; a future multi-session extension can swap in per-identity
// locks without changing this interface.
type Service struct {
	mu      sync.Mutex
	store   store.AccountStore
	durable Flusher
	logger  *logrus.Entry
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

// WithDurable flushes the full directory to f after every mutation.
func WithDurable(f Flusher) Option {
	return func(s *Service) {
		s.durable = f
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the receipt timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(st store.AccountStore, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("account store is required")
	}
	svc := &Service{
		store:  st,
		logger: logrus.NewEntry(logrus.StandardLogger()),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Authenticate checks a claimed identity and PIN against the directory. PINs
// are stored and compared as plain strings; hashing and constant-time
// comparison are deliberately out of scope for this simulator. No outcome has
// side effects on account state.
func (s *Service) Authenticate(ctx context.Context, identity, pin string) error {
	account, err := s.store.Get(ctx, identity)
	if errors.Is(err, store.ErrNotFound) {
		s.metrics.IncAuthFailures()
		return ErrUnknownIdentity
	}
	if err != nil {
		return fmt.Errorf("lookup %q: %w", identity, err)
	}
	if account.PIN != pin {
		s.metrics.IncAuthFailures()
		return ErrWrongPIN
	}
	return nil
}

// Deposit credits amount and returns the new balance. When the durable flush
// fails, the credited balance is still returned together with an error
// wrapping store.ErrWriteFailed: the in-memory state stays authoritative and
// the caller decides how loudly to warn.
func (s *Service) Deposit(ctx context.Context, identity string, amount int64) (int64, error) {
	if err := validation.Deposit(amount); err != nil {
		s.metrics.ObserveOperation("deposit", "rejected")
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.store.Get(ctx, identity)
	if err != nil {
		return 0, fmt.Errorf("lookup %q: %w", identity, err)
	}
	account.Balance += amount
	if err := s.store.Put(ctx, account); err != nil {
		return 0, fmt.Errorf("update %q: %w", identity, err)
	}
	s.metrics.ObserveOperation("deposit", "accepted")
	s.logger.WithFields(logrus.Fields{"identity": identity, "amount": amount}).Debug("deposit applied")
	return account.Balance, s.flush(ctx)
}

// Withdraw debits amount and returns the new balance. The format rule is
// checked before balance sufficiency, and the durable flush behaves exactly
// as in Deposit.
func (s *Service) Withdraw(ctx context.Context, identity string, amount int64) (int64, error) {
	return s.withdraw(ctx, identity, amount, validation.Withdrawal)
}

// WithdrawPreset debits one of the machine's quick-pick notes bundles. A
// preset is dispensable by construction, so only balance sufficiency is
// checked; the multiple-of-20 rule applies to typed amounts alone.
func (s *Service) WithdrawPreset(ctx context.Context, identity string, amount int64) (int64, error) {
	return s.withdraw(ctx, identity, amount, func(amount, balance int64) error {
		if amount > balance {
			return validation.ErrInsufficientFunds
		}
		return nil
	})
}

func (s *Service) withdraw(ctx context.Context, identity string, amount int64, validate func(amount, balance int64) error) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.store.Get(ctx, identity)
	if err != nil {
		return 0, fmt.Errorf("lookup %q: %w", identity, err)
	}
	if err := validate(amount, account.Balance); err != nil {
		s.metrics.ObserveOperation("withdraw", "rejected")
		return 0, err
	}
	account.Balance -= amount
	if err := s.store.Put(ctx, account); err != nil {
		return 0, fmt.Errorf("update %q: %w", identity, err)
	}
	s.metrics.ObserveOperation("withdraw", "accepted")
	s.logger.WithFields(logrus.Fields{"identity": identity, "amount": amount}).Debug("withdrawal applied")
	return account.Balance, s.flush(ctx)
}

// ChangePIN replaces the stored PIN after format validation.
func (s *Service) ChangePIN(ctx context.Context, identity, newPIN string) error {
	if err := validation.PIN(newPIN); err != nil {
		s.metrics.ObserveOperation("change_pin", "rejected")
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.store.Get(ctx, identity)
	if err != nil {
		return fmt.Errorf("lookup %q: %w", identity, err)
	}
	account.PIN = newPIN
	if err := s.store.Put(ctx, account); err != nil {
		return fmt.Errorf("update %q: %w", identity, err)
	}
	s.metrics.ObserveOperation("change_pin", "accepted")
	s.logger.WithField("identity", identity).Info("PIN changed")
	return s.flush(ctx)
}

// Balance is a pure read.
func (s *Service) Balance(ctx context.Context, identity string) (int64, error) {
	account, err := s.store.Get(ctx, identity)
	if err != nil {
		return 0, fmt.Errorf("lookup %q: %w", identity, err)
	}
	return account.Balance, nil
}

// Receipt snapshots the account for printing: identity, balance, the time of
// issue and a fresh reference number.
func (s *Service) Receipt(ctx context.Context, identity string) (models.Receipt, error) {
	account, err := s.store.Get(ctx, identity)
	if err != nil {
		return models.Receipt{}, fmt.Errorf("lookup %q: %w", identity, err)
	}
	s.metrics.ObserveOperation("receipt", "accepted")
	return models.Receipt{
		Identity:  identity,
		IssuedAt:  s.now(),
		Balance:   account.Balance,
		Reference: uuid.New(),
	}, nil
}

// flush writes the full directory to the durable backend. A failure is
// reported but not fatal: callers keep the in-memory result.
func (s *Service) flush(ctx context.Context) error {
	if s.durable == nil {
		return nil
	}
	accounts, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("snapshot accounts: %w", err)
	}
	if err := s.durable.Save(ctx, accounts); err != nil {
		s.metrics.IncWriteFailures()
		s.logger.WithError(err).Warn("durable save failed, in-memory state stands")
		return err
	}
	return nil
}
