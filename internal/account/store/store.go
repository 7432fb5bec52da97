package store

import (
	"context"
	"errors"

	"caspomat/internal/account/models"
)

// Stores are interface-driven so the service layer can swap in-memory,
// flat-file, or SQLite persistence without rewiring business code.
type AccountStore interface {
	// Load returns the full directory. Backends with no durable state yet
	// hand back the built-in defaults; durable state that exists but cannot
	// be decoded is ErrCorruptState.
	Load(ctx context.Context) (map[string]models.Account, error)
	// Save replaces the directory. It is atomic from the caller's point of
	// view: a failed Save never leaves state behind that a later Load would
	// read as corrupt.
	Save(ctx context.Context, accounts map[string]models.Account) error
	Get(ctx context.Context, identity string) (models.Account, error)
	// Put upserts a single account.
	Put(ctx context.Context, account models.Account) error
}

// Sentinel errors for storage facts. Services translate these into
// user-visible outcomes; they never escape as panics.
var (
	// ErrNotFound: no account exists under the requested identity.
	ErrNotFound = errors.New("account not found")

	// ErrCorruptState: durable state exists but cannot be decoded.
	ErrCorruptState = errors.New("durable state is corrupt")

	// ErrWriteFailed: durable state could not be written. The in-memory
	// directory remains authoritative for the rest of the session.
	ErrWriteFailed = errors.New("durable write failed")
)
