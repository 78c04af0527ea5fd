package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists balances and audit entries in PostgreSQL. Every
// mutation runs in a single transaction: the user row is locked, the delta is
// validated and applied, and one vcreds_log row is appended.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Open reports the account's balance. The Postgres ledger backs accounts with
// the users row created at registration, so there is nothing to allocate.
func (l *PostgresLedger) Open(ctx context.Context, userID string) (int64, error) {
	return l.Balance(ctx, userID)
}

// Balance returns the current credit balance for the user.
func (l *PostgresLedger) Balance(ctx context.Context, userID string) (int64, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return 0, ErrUserNotFound
	}
	var balance int64
	err = l.db.QueryRow(ctx, `SELECT vcreds_balance FROM users WHERE id = $1`, id).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Credit adds amount to the user's balance and appends an audit entry.
func (l *PostgresLedger) Credit(ctx context.Context, userID string, amount int64, description string) (int64, error) {
	return l.apply(ctx, func(tx pgx.Tx) (int64, error) {
		return CreditTx(ctx, tx, userID, amount, description)
	})
}

// Debit removes amount from the user's balance and appends an audit entry.
// The balance check and the update share one transaction, so concurrent
// debits for the same user cannot overdraw the account.
func (l *PostgresLedger) Debit(ctx context.Context, userID string, amount int64, description string) (int64, error) {
	return l.apply(ctx, func(tx pgx.Tx) (int64, error) {
		return DebitTx(ctx, tx, userID, amount, description)
	})
}

func (l *PostgresLedger) apply(ctx context.Context, fn func(pgx.Tx) (int64, error)) (int64, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balance, err := fn(tx)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

// Entries returns the user's audit log ordered by creation time ascending.
func (l *PostgresLedger) Entries(ctx context.Context, userID string) ([]Entry, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	rows, err := l.db.Query(ctx, `SELECT id, user_id, direction, amount, balance_after, description, created_at
        FROM vcreds_log WHERE user_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entryID   uuid.UUID
			ownerID   uuid.UUID
			createdAt time.Time
			e         Entry
		)
		if err := rows.Scan(&entryID, &ownerID, &e.Direction, &e.Amount, &e.BalanceAfter, &e.Description, &createdAt); err != nil {
			return nil, err
		}
		e.ID = entryID.String()
		e.UserID = ownerID.String()
		e.CreatedAt = createdAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreditTx applies a credit inside a caller-owned transaction. Callers that
// need a balance mutation to be atomic with other writes (e.g. flipping a
// transaction status) compose this helper into their own transaction.
func CreditTx(ctx context.Context, tx pgx.Tx, userID string, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	id, err := lockUser(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	var balance int64
	if err := tx.QueryRow(ctx, `UPDATE users SET vcreds_balance = vcreds_balance + $1 WHERE id = $2
        RETURNING vcreds_balance`, amount, id).Scan(&balance); err != nil {
		return 0, err
	}

	if err := appendEntry(ctx, tx, id, DirectionCredit, amount, balance, description); err != nil {
		return 0, err
	}
	return balance, nil
}

// DebitTx applies a debit inside a caller-owned transaction, failing with
// ErrInsufficientBalance before any write when the locked balance is short.
func DebitTx(ctx context.Context, tx pgx.Tx, userID string, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	id, err := lockUser(ctx, tx, userID)
	if err != nil {
		return 0, err
	}

	var current int64
	if err := tx.QueryRow(ctx, `SELECT vcreds_balance FROM users WHERE id = $1`, id).Scan(&current); err != nil {
		return 0, err
	}
	if current < amount {
		return 0, ErrInsufficientBalance
	}

	var balance int64
	if err := tx.QueryRow(ctx, `UPDATE users SET vcreds_balance = vcreds_balance - $1 WHERE id = $2
        RETURNING vcreds_balance`, amount, id).Scan(&balance); err != nil {
		return 0, err
	}

	if err := appendEntry(ctx, tx, id, DirectionDebit, amount, balance, description); err != nil {
		return 0, err
	}
	return balance, nil
}

func lockUser(ctx context.Context, tx pgx.Tx, userID string) (uuid.UUID, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, ErrUserNotFound
	}
	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrUserNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return locked, nil
}

func appendEntry(ctx context.Context, tx pgx.Tx, userID uuid.UUID, direction string, amount, balanceAfter int64, description string) error {
	_, err := tx.Exec(ctx, `INSERT INTO vcreds_log (id, user_id, direction, amount, balance_after, description, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`, uuid.New(), userID, direction, amount, balanceAfter, description, time.Now().UTC())
	return err
}
