package vcreds

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/skillvault/vcreds-api/internal/ledger"
)

// memoryStore keeps transactions and bank details in process memory, backed
// by a ledger instance for balance mutations. All store-level operations run
// under one mutex so the status transition and ledger mutation of each
// operation are observed atomically, matching the Postgres implementation.
type memoryStore struct {
	mu           sync.Mutex
	ledger       ledger.Ledger
	transactions map[string]*Transaction
	bankDetails  map[string]BankDetails
}

// NewMemoryStore builds an in-memory store for development mode and tests.
func NewMemoryStore(l ledger.Ledger) Store {
	return &memoryStore{
		ledger:       l,
		transactions: make(map[string]*Transaction),
		bankDetails:  make(map[string]BankDetails),
	}
}

func (s *memoryStore) CreatePurchase(_ context.Context, t Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Status = StatusPending
	s.transactions[t.ID] = &t
	return nil
}

func (s *memoryStore) CompletePurchase(ctx context.Context, orderRef, userID, paymentRef string) (CompletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *Transaction
	for _, t := range s.transactions {
		if t.Kind == KindPurchase && t.OrderRef == orderRef && t.UserID == userID {
			found = t
			break
		}
	}
	if found == nil {
		return CompletionResult{}, ErrTransactionNotFound
	}

	switch found.Status {
	case StatusCompleted:
		balance, err := s.ledger.Balance(ctx, userID)
		if err != nil {
			return CompletionResult{}, err
		}
		return CompletionResult{Transaction: *found, Credits: found.Credits, NewBalance: balance, AlreadyCompleted: true}, nil
	case StatusFailed:
		return CompletionResult{}, ErrAlreadyProcessed
	}

	balance, err := s.ledger.Credit(ctx, userID, found.Credits, creditDescription(found.Credits))
	if err != nil {
		return CompletionResult{}, err
	}

	now := time.Now().UTC()
	found.Status = StatusCompleted
	found.PaymentRef = paymentRef
	found.CompletedAt = &now
	return CompletionResult{Transaction: *found, Credits: found.Credits, NewBalance: balance}, nil
}

func (s *memoryStore) CreateSell(ctx context.Context, t Transaction) (Transaction, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, err := s.ledger.Debit(ctx, t.UserID, t.Credits, debitDescription(t.Credits))
	if err != nil {
		return Transaction{}, 0, err
	}

	t.Status = StatusPending
	s.transactions[t.ID] = &t
	return t, balance, nil
}

func (s *memoryStore) GetSellForPayout(_ context.Context, txID string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[txID]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	if t.Kind != KindSell || t.Status != StatusPending {
		return Transaction{}, ErrAlreadyProcessed
	}
	return *t, nil
}

func (s *memoryStore) CompleteSellPayout(_ context.Context, txID, payoutRef string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[txID]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	if t.Kind != KindSell || t.Status != StatusPending {
		return Transaction{}, ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	t.Status = StatusCompleted
	t.PayoutRef = payoutRef
	t.CompletedAt = &now
	return *t, nil
}

func (s *memoryStore) FailSellWithRefund(ctx context.Context, txID, reason string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[txID]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	if t.Kind != KindSell || t.Status != StatusPending {
		return Transaction{}, ErrAlreadyProcessed
	}

	if _, err := s.ledger.Credit(ctx, t.UserID, t.Credits, reason); err != nil {
		return Transaction{}, err
	}

	now := time.Now().UTC()
	t.Status = StatusFailed
	t.CompletedAt = &now
	return *t, nil
}

func (s *memoryStore) List(_ context.Context, userID, kind string, limit, offset int) ([]Transaction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Transaction
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		if kind != "" && t.Kind != kind {
			continue
		}
		matched = append(matched, *t)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]Transaction, end-offset)
	copy(page, matched[offset:end])
	return page, total, nil
}

func (s *memoryStore) BankDetails(_ context.Context, userID string) (BankDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	details, ok := s.bankDetails[userID]
	if !ok {
		return BankDetails{}, ErrBankDetailsNotSet
	}
	return details, nil
}

func (s *memoryStore) UpsertBankDetails(_ context.Context, userID string, details BankDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bankDetails[userID] = details
	return nil
}
