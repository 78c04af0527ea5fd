package vcreds

import "context"

// CompletionResult reports the outcome of a purchase completion.
type CompletionResult struct {
	Transaction      Transaction
	Credits          int64
	NewBalance       int64
	AlreadyCompleted bool
}

// Store persists transactions and bank details. Implementations must make
// each mutating operation a single atomic unit: the status transition and the
// associated ledger mutation either both apply or neither does.
type Store interface {
	// CreatePurchase inserts a pending purchase transaction.
	CreatePurchase(ctx context.Context, t Transaction) error

	// CompletePurchase flips the user's pending purchase for orderRef to
	// completed and credits its credit amount, atomically and at most once.
	// A transaction already completed returns AlreadyCompleted=true and no
	// further credit. A failed transaction returns ErrAlreadyProcessed; a
	// missing one returns ErrTransactionNotFound.
	CompletePurchase(ctx context.Context, orderRef, userID, paymentRef string) (CompletionResult, error)

	// CreateSell debits the credit amount and inserts a pending sell
	// transaction in one atomic unit. Returns the stored transaction and the
	// balance after the debit.
	CreateSell(ctx context.Context, t Transaction) (Transaction, int64, error)

	// GetSellForPayout loads a transaction for payout processing. Returns
	// ErrTransactionNotFound when absent and ErrAlreadyProcessed unless the
	// transaction is a pending sell.
	GetSellForPayout(ctx context.Context, txID string) (Transaction, error)

	// CompleteSellPayout flips a pending sell to completed, recording the
	// payout reference. Returns ErrAlreadyProcessed when the transaction is no
	// longer pending.
	CompleteSellPayout(ctx context.Context, txID, payoutRef string) (Transaction, error)

	// FailSellWithRefund flips a pending sell to failed and credits the
	// debited amount back, atomically. Returns ErrAlreadyProcessed when the
	// transaction is no longer pending.
	FailSellWithRefund(ctx context.Context, txID, reason string) (Transaction, error)

	// List returns the user's transactions newest-first, optionally filtered
	// by kind, plus the total count for pagination.
	List(ctx context.Context, userID, kind string, limit, offset int) ([]Transaction, int, error)

	// BankDetails returns the stored payout destination, or
	// ErrBankDetailsNotSet when none exists.
	BankDetails(ctx context.Context, userID string) (BankDetails, error)

	// UpsertBankDetails replaces the user's payout destination wholesale.
	UpsertBankDetails(ctx context.Context, userID string, details BankDetails) error
}
