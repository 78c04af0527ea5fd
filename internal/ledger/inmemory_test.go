package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryLedger_CreditDebit(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	SeedAccount(l, "user-a", 0)

	balance, err := l.Credit(ctx, "user-a", 500, "Purchased 500 VCreds")
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if balance != 500 {
		t.Fatalf("expected balance 500, got %d", balance)
	}

	balance, err = l.Debit(ctx, "user-a", 200, "Sold 200 VCreds")
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if balance != 300 {
		t.Fatalf("expected balance 300, got %d", balance)
	}
}

func TestInMemoryLedger_DebitNeverOverdraws(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	SeedAccount(l, "user-a", 100)

	if _, err := l.Debit(ctx, "user-a", 101, "too much"); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balance, err := l.Balance(ctx, "user-a")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 100 {
		t.Fatalf("balance changed on rejected debit: %d", balance)
	}
}

func TestInMemoryLedger_UnknownUser(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if _, err := l.Balance(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := l.Credit(ctx, "missing", 10, ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestInMemoryLedger_InvalidAmount(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	SeedAccount(l, "user-a", 100)

	if _, err := l.Credit(ctx, "user-a", 0, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := l.Debit(ctx, "user-a", -5, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestInMemoryLedger_ReplayReproducesBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	SeedAccount(l, "user-a", 0)

	ops := []struct {
		direction string
		amount    int64
	}{
		{DirectionCredit, 500},
		{DirectionCredit, 1000},
		{DirectionDebit, 300},
		{DirectionCredit, 250},
		{DirectionDebit, 1450},
		{DirectionCredit, 75},
	}
	for _, op := range ops {
		var err error
		if op.direction == DirectionCredit {
			_, err = l.Credit(ctx, "user-a", op.amount, "replay test")
		} else {
			_, err = l.Debit(ctx, "user-a", op.amount, "replay test")
		}
		if err != nil {
			t.Fatalf("%s %d: %v", op.direction, op.amount, err)
		}
	}

	entries, err := l.Entries(ctx, "user-a")
	if err != nil {
		t.Fatalf("entries: %v", err)
	}

	var replayed int64
	for _, e := range entries {
		switch e.Direction {
		case DirectionCredit:
			replayed += e.Amount
		case DirectionDebit:
			replayed -= e.Amount
		}
		if e.BalanceAfter != replayed {
			t.Fatalf("entry %s records balance %d, replay says %d", e.ID, e.BalanceAfter, replayed)
		}
	}

	balance, err := l.Balance(ctx, "user-a")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if replayed != balance {
		t.Fatalf("replayed %d does not match balance %d", replayed, balance)
	}
}

func TestInMemoryLedger_ConcurrentDebits(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	SeedAccount(l, "user-a", 1_000)

	const workers = 20
	const amount = int64(100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.Debit(ctx, "user-a", amount, fmt.Sprintf("debit-%d", i)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, ErrInsufficientBalance) {
				t.Errorf("debit %d: unexpected error %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	// Only ten debits of 100 fit into a balance of 1000.
	if succeeded != 10 {
		t.Fatalf("expected 10 successful debits, got %d", succeeded)
	}
	balance, err := l.Balance(ctx, "user-a")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected balance 0, got %d", balance)
	}
}
