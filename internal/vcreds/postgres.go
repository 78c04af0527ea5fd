package vcreds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skillvault/vcreds-api/internal/ledger"
)

// PostgresStore persists transactions and bank details in PostgreSQL. Ledger
// mutations are composed into the same database transaction as the status
// writes via the ledger package's Tx helpers.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed transaction store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const transactionColumns = `id, user_id, kind, amount, credits, net_amount, processing_fee,
    order_ref, payment_ref, payout_ref, bank_details, status, created_at, completed_at`

// CreatePurchase inserts a pending purchase row.
func (s *PostgresStore) CreatePurchase(ctx context.Context, t Transaction) error {
	id, userID, err := parseIDs(t)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO vcreds_transactions
        (id, user_id, kind, amount, credits, order_ref, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, userID, KindPurchase, t.Amount, t.Credits, t.OrderRef, StatusPending, t.CreatedAt.UTC())
	return err
}

// CompletePurchase credits the plan amount and marks the transaction
// completed in one database transaction. The status-guarded update makes the
// credit happen at most once under concurrent verification calls.
func (s *PostgresStore) CompletePurchase(ctx context.Context, orderRef, userID, paymentRef string) (CompletionResult, error) {
	owner, err := uuid.Parse(userID)
	if err != nil {
		return CompletionResult{}, ErrTransactionNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return CompletionResult{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	now := time.Now().UTC()
	row := tx.QueryRow(ctx, `UPDATE vcreds_transactions
        SET status = $1, payment_ref = $2, completed_at = $3
        WHERE order_ref = $4 AND user_id = $5 AND kind = $6 AND status = $7
        RETURNING `+transactionColumns,
		StatusCompleted, paymentRef, now, orderRef, owner, KindPurchase, StatusPending)

	claimed, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Nothing pending: distinguish a gateway callback retry from a
		// genuinely unknown order.
		existing := tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM vcreds_transactions
            WHERE order_ref = $1 AND user_id = $2 AND kind = $3`, orderRef, owner, KindPurchase)
		t, err := scanTransaction(existing)
		if errors.Is(err, pgx.ErrNoRows) {
			return CompletionResult{}, ErrTransactionNotFound
		}
		if err != nil {
			return CompletionResult{}, err
		}
		if t.Status != StatusCompleted {
			return CompletionResult{}, ErrAlreadyProcessed
		}
		var balance int64
		if err := tx.QueryRow(ctx, `SELECT vcreds_balance FROM users WHERE id = $1`, owner).Scan(&balance); err != nil {
			return CompletionResult{}, err
		}
		if err := tx.Commit(ctx); err != nil {
			return CompletionResult{}, err
		}
		return CompletionResult{Transaction: t, Credits: t.Credits, NewBalance: balance, AlreadyCompleted: true}, nil
	}
	if err != nil {
		return CompletionResult{}, err
	}

	balance, err := ledger.CreditTx(ctx, tx, userID, claimed.Credits, creditDescription(claimed.Credits))
	if err != nil {
		return CompletionResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return CompletionResult{}, err
	}
	return CompletionResult{Transaction: claimed, Credits: claimed.Credits, NewBalance: balance}, nil
}

// CreateSell debits the user's balance and inserts the pending sell row in
// one database transaction.
func (s *PostgresStore) CreateSell(ctx context.Context, t Transaction) (Transaction, int64, error) {
	id, userID, err := parseIDs(t)
	if err != nil {
		return Transaction{}, 0, err
	}
	bankJSON, err := json.Marshal(t.BankDetails)
	if err != nil {
		return Transaction{}, 0, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balance, err := ledger.DebitTx(ctx, tx, t.UserID, t.Credits, debitDescription(t.Credits))
	if err != nil {
		return Transaction{}, 0, err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO vcreds_transactions
        (id, user_id, kind, amount, credits, net_amount, processing_fee, bank_details, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, userID, KindSell, t.Amount, t.Credits, t.NetAmount, t.ProcessingFee, bankJSON, StatusPending, t.CreatedAt.UTC()); err != nil {
		return Transaction{}, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, 0, err
	}
	t.Status = StatusPending
	return t, balance, nil
}

// GetSellForPayout loads the transaction and enforces that it is a pending sell.
func (s *PostgresStore) GetSellForPayout(ctx context.Context, txID string) (Transaction, error) {
	id, err := uuid.Parse(txID)
	if err != nil {
		return Transaction{}, ErrTransactionNotFound
	}
	row := s.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM vcreds_transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return Transaction{}, err
	}
	if t.Kind != KindSell || t.Status != StatusPending {
		return Transaction{}, ErrAlreadyProcessed
	}
	return t, nil
}

// CompleteSellPayout records the payout reference on a still-pending sell.
func (s *PostgresStore) CompleteSellPayout(ctx context.Context, txID, payoutRef string) (Transaction, error) {
	id, err := uuid.Parse(txID)
	if err != nil {
		return Transaction{}, ErrTransactionNotFound
	}
	row := s.db.QueryRow(ctx, `UPDATE vcreds_transactions
        SET status = $1, payout_ref = $2, completed_at = $3
        WHERE id = $4 AND kind = $5 AND status = $6
        RETURNING `+transactionColumns,
		StatusCompleted, payoutRef, time.Now().UTC(), id, KindSell, StatusPending)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrAlreadyProcessed
	}
	return t, err
}

// FailSellWithRefund marks a pending sell failed and issues the compensating
// credit in the same database transaction.
func (s *PostgresStore) FailSellWithRefund(ctx context.Context, txID, reason string) (Transaction, error) {
	id, err := uuid.Parse(txID)
	if err != nil {
		return Transaction{}, ErrTransactionNotFound
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `UPDATE vcreds_transactions
        SET status = $1, completed_at = $2
        WHERE id = $3 AND kind = $4 AND status = $5
        RETURNING `+transactionColumns,
		StatusFailed, time.Now().UTC(), id, KindSell, StatusPending)
	t, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrAlreadyProcessed
	}
	if err != nil {
		return Transaction{}, err
	}

	if _, err := ledger.CreditTx(ctx, tx, t.UserID, t.Credits, reason); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// List returns a page of the user's transactions newest-first plus the total count.
func (s *PostgresStore) List(ctx context.Context, userID, kind string, limit, offset int) ([]Transaction, int, error) {
	owner, err := uuid.Parse(userID)
	if err != nil {
		return nil, 0, nil
	}

	query := `SELECT ` + transactionColumns + ` FROM vcreds_transactions WHERE user_id = $1`
	countQuery := `SELECT COUNT(*) FROM vcreds_transactions WHERE user_id = $1`
	args := []any{owner}
	if kind != "" {
		query += ` AND kind = $2`
		countQuery += ` AND kind = $2`
		args = append(args, kind)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// BankDetails loads the stored payout destination.
func (s *PostgresStore) BankDetails(ctx context.Context, userID string) (BankDetails, error) {
	owner, err := uuid.Parse(userID)
	if err != nil {
		return BankDetails{}, ErrBankDetailsNotSet
	}
	var raw []byte
	err = s.db.QueryRow(ctx, `SELECT bank_details FROM user_profiles WHERE user_id = $1`, owner).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && len(raw) == 0) {
		return BankDetails{}, ErrBankDetailsNotSet
	}
	if err != nil {
		return BankDetails{}, err
	}
	var details BankDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return BankDetails{}, err
	}
	return details, nil
}

// UpsertBankDetails replaces the stored payout destination wholesale.
func (s *PostgresStore) UpsertBankDetails(ctx context.Context, userID string, details BankDetails) error {
	owner, err := uuid.Parse(userID)
	if err != nil {
		return ledger.ErrUserNotFound
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO user_profiles (user_id, bank_details, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id) DO UPDATE SET bank_details = EXCLUDED.bank_details, updated_at = EXCLUDED.updated_at`,
		owner, raw, time.Now().UTC())
	return err
}

func parseIDs(t Transaction) (uuid.UUID, uuid.UUID, error) {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	userID, err := uuid.Parse(t.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, userID, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var (
		id          uuid.UUID
		userID      uuid.UUID
		bankJSON    []byte
		createdAt   time.Time
		completedAt *time.Time
		t           Transaction
	)
	if err := row.Scan(&id, &userID, &t.Kind, &t.Amount, &t.Credits, &t.NetAmount, &t.ProcessingFee,
		&t.OrderRef, &t.PaymentRef, &t.PayoutRef, &bankJSON, &t.Status, &createdAt, &completedAt); err != nil {
		return Transaction{}, err
	}
	t.ID = id.String()
	t.UserID = userID.String()
	t.CreatedAt = createdAt.UTC()
	if completedAt != nil {
		utc := completedAt.UTC()
		t.CompletedAt = &utc
	}
	if len(bankJSON) > 0 {
		var details BankDetails
		if err := json.Unmarshal(bankJSON, &details); err != nil {
			return Transaction{}, err
		}
		t.BankDetails = &details
	}
	return t, nil
}
