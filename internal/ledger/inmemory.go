package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	balances map[string]int64
	entries  map[string][]Entry
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		balances: make(map[string]int64),
		entries:  make(map[string][]Entry),
	}
}

func (l *inMemoryLedger) Open(_ context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if balance, exists := l.balances[userID]; exists {
		return balance, nil
	}
	l.balances[userID] = 0
	return 0, nil
}

func (l *inMemoryLedger) Balance(_ context.Context, userID string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, exists := l.balances[userID]
	if !exists {
		return 0, ErrUserNotFound
	}
	return balance, nil
}

func (l *inMemoryLedger) Credit(_ context.Context, userID string, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, exists := l.balances[userID]
	if !exists {
		return 0, ErrUserNotFound
	}

	balance += amount
	l.balances[userID] = balance
	l.append(userID, DirectionCredit, amount, balance, description)
	return balance, nil
}

func (l *inMemoryLedger) Debit(_ context.Context, userID string, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance, exists := l.balances[userID]
	if !exists {
		return 0, ErrUserNotFound
	}
	if balance < amount {
		return 0, ErrInsufficientBalance
	}

	balance -= amount
	l.balances[userID] = balance
	l.append(userID, DirectionDebit, amount, balance, description)
	return balance, nil
}

func (l *inMemoryLedger) Entries(_ context.Context, userID string) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := make([]Entry, len(l.entries[userID]))
	copy(entries, l.entries[userID])
	return entries, nil
}

// append assumes l.mu is held.
func (l *inMemoryLedger) append(userID, direction string, amount, balanceAfter int64, description string) {
	l.entries[userID] = append(l.entries[userID], Entry{
		ID:           uuid.NewString(),
		UserID:       userID,
		Direction:    direction,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Description:  description,
		CreatedAt:    time.Now().UTC(),
	})
}
