package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientBalance occurs when a debit would drive the user's
	// balance below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrUserNotFound indicates the target account does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidAmount indicates a non-positive mutation amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

const (
	// DirectionCredit marks a ledger entry that increased the balance.
	DirectionCredit = "credit"
	// DirectionDebit marks a ledger entry that decreased the balance.
	DirectionDebit = "debit"
)

// Entry is an immutable audit record of one balance mutation. Entries are
// append-only: replaying a user's entries in creation order reproduces the
// current balance exactly.
type Entry struct {
	ID           string
	UserID       string
	Direction    string
	Amount       int64
	BalanceAfter int64
	Description  string
	CreatedAt    time.Time
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
// All balance changes are relative deltas; there is deliberately no way to
// set a balance directly.
type Ledger interface {
	Open(ctx context.Context, userID string) (int64, error)
	Balance(ctx context.Context, userID string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, description string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, description string) (int64, error)
	Entries(ctx context.Context, userID string) ([]Entry, error)
}
