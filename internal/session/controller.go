// Package session implements the per-customer session state machine: one
// login attempt, then a loop of operation requests until quit.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"caspomat/internal/account/models"
	"caspomat/internal/account/service"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
	Terminated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// Op is a menu operation key.
type Op string

const (
	OpDeposit   Op = "d"
	OpWithdraw  Op = "w"
	OpBalance   Op = "c"
	OpChangePIN Op = "p"
	OpReceipt   Op = "r"
	OpQuit      Op = "q"
)

var (
	// ErrNotAuthenticated: an operation was requested outside the
	// Authenticated state.
	ErrNotAuthenticated = errors.New("no authenticated session")

	// ErrUnknownOperation: the request matched no menu operation. The
	// session state is unchanged and the caller re-prompts.
	ErrUnknownOperation = errors.New("unrecognized operation")

	// ErrTerminated: the session is over; Terminated is final.
	ErrTerminated = errors.New("session terminated")
)

// ParseOp maps a raw menu key to an operation.
func ParseOp(input string) (Op, error) {
	op := Op(strings.ToLower(strings.TrimSpace(input)))
	switch op {
	case OpDeposit, OpWithdraw, OpBalance, OpChangePIN, OpReceipt, OpQuit:
		return op, nil
	}
	return "", ErrUnknownOperation
}

// Controller holds the authenticated identity for the lifetime of one
// interaction and routes operation requests to the account service. It serves
// exactly one login attempt: authentication failure terminates the session.
type Controller struct {
	accounts *service.Service
	logger   *logrus.Entry
	state    State
	identity string
}

func New(accounts *service.Service, logger *logrus.Entry) *Controller {
	return &Controller{accounts: accounts, logger: logger}
}

func (c *Controller) State() State {
	return c.state
}

// Identity returns the authenticated identity, empty before login.
func (c *Controller) Identity() string {
	return c.identity
}

// Recognizes reports whether identity exists in the directory. The terminal
// uses it to greet known customers before the PIN prompt; it performs no
// authentication and no state change.
func (c *Controller) Recognizes(ctx context.Context, identity string) bool {
	_, err := c.accounts.Balance(ctx, identity)
	return err == nil
}

// Login performs the single authentication attempt. Success moves the session
// to Authenticated; any failure moves it to Terminated for good.
func (c *Controller) Login(ctx context.Context, identity, pin string) error {
	if c.state != Unauthenticated {
		return ErrTerminated
	}
	if err := c.accounts.Authenticate(ctx, identity, pin); err != nil {
		c.state = Terminated
		c.logger.WithField("identity", identity).WithError(err).Info("login rejected")
		return err
	}
	c.state = Authenticated
	c.identity = identity
	c.logger.WithField("identity", identity).Info("login accepted")
	return nil
}

// Quit ends the session. Terminated is final; there is no way back.
func (c *Controller) Quit() {
	if c.state == Authenticated {
		c.logger.WithField("identity", c.identity).Info("session closed")
	}
	c.state = Terminated
}

func (c *Controller) Deposit(ctx context.Context, amount int64) (int64, error) {
	if err := c.requireAuth(); err != nil {
		return 0, err
	}
	return c.accounts.Deposit(ctx, c.identity, amount)
}

func (c *Controller) Withdraw(ctx context.Context, amount int64) (int64, error) {
	if err := c.requireAuth(); err != nil {
		return 0, err
	}
	return c.accounts.Withdraw(ctx, c.identity, amount)
}

// WithdrawPreset routes a quick-pick withdrawal; see service.WithdrawPreset.
func (c *Controller) WithdrawPreset(ctx context.Context, amount int64) (int64, error) {
	if err := c.requireAuth(); err != nil {
		return 0, err
	}
	return c.accounts.WithdrawPreset(ctx, c.identity, amount)
}

func (c *Controller) Balance(ctx context.Context) (int64, error) {
	if err := c.requireAuth(); err != nil {
		return 0, err
	}
	return c.accounts.Balance(ctx, c.identity)
}

func (c *Controller) ChangePIN(ctx context.Context, newPIN string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	return c.accounts.ChangePIN(ctx, c.identity, newPIN)
}

func (c *Controller) Receipt(ctx context.Context) (models.Receipt, error) {
	if err := c.requireAuth(); err != nil {
		return models.Receipt{}, err
	}
	return c.accounts.Receipt(ctx, c.identity)
}

func (c *Controller) requireAuth() error {
	if c.state != Authenticated {
		return ErrNotAuthenticated
	}
	return nil
}
