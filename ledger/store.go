/*
store.go - Persistence interfaces for the ledger core

PURPOSE:
  Defines the contract between the lifecycle engine and the database.
  store/sqlite implements these; tests may substitute their own.

SCOPE RULES:
  - Get* methods return the row regardless of soft-delete flags; callers
    decide what a deleted/inactive row means for their operation.
  - All methods called from inside Engine operations run within the
    transaction scope handed out by TxStore.WithTx: a mid-operation error
    rolls the whole scope back and no write is ever left half-applied.
  - MarkDebtSettled is an atomic conditional update (settle-if-unsettled),
    not a read-then-write, so two concurrent settles cannot both win.

SEE ALSO:
  - engine.go: the orchestrator using these interfaces
  - store/sqlite/sqlite.go: the SQLite implementation
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCOUNT STORE - The leaf everything else builds on
// =============================================================================

// AccountStore holds account rows and their current balance.
type AccountStore interface {
	// GetAccount returns the account or ErrAccountNotFound. Inactive
	// accounts are returned; callers check IsActive.
	GetAccount(ctx context.Context, id AccountID) (*Account, error)

	// ApplyDelta atomically adds the signed delta to the account's balance
	// and returns the updated row. The resulting sign is not validated.
	ApplyDelta(ctx context.Context, id AccountID, delta decimal.Decimal) (*Account, error)
}

// =============================================================================
// LEDGER STORE - Everything the lifecycle engine persists
// =============================================================================

// Store is the full persistence surface of the ledger core.
type Store interface {
	AccountStore

	// Transactions. Get returns soft-deleted rows too (IsDeleted set).
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)
	InsertTransaction(ctx context.Context, t *Transaction) error
	// UpdateTransactionMeta persists category, merchant, note and date only.
	UpdateTransactionMeta(ctx context.Context, t *Transaction) error
	MarkTransactionDeleted(ctx context.Context, id TransactionID) error
	CompleteTransaction(ctx context.Context, id TransactionID) error
	SetTransactionAmount(ctx context.Context, id TransactionID, amount decimal.Decimal) error

	// Debts. Settled debts are returned like any other row.
	GetDebt(ctx context.Context, id DebtID) (*Debt, error)
	GetDebtByTransaction(ctx context.Context, txID TransactionID) (*Debt, error)
	InsertDebt(ctx context.Context, d *Debt) error
	// MarkDebtSettled sets settled_at only where it is still null and
	// reports whether this call won the transition.
	MarkDebtSettled(ctx context.Context, id DebtID, at time.Time) (bool, error)
	DeleteDebt(ctx context.Context, id DebtID) error

	// Transaction items (hard-deleted on removal).
	GetTransactionItem(ctx context.Context, id TransactionItemID) (*TransactionItem, error)
	InsertTransactionItem(ctx context.Context, li *TransactionItem) error
	UpdateTransactionItem(ctx context.Context, li *TransactionItem) error
	DeleteTransactionItem(ctx context.Context, id TransactionItemID) error
	// SumTransactionItems returns Σ(amount × quantity) over the current
	// lines, zero when none remain.
	SumTransactionItems(ctx context.Context, txID TransactionID) (decimal.Decimal, error)

	// Reference-data hooks the lifecycle needs.
	GetItem(ctx context.Context, id ItemID) (*Item, error)
	// AdjustMerchantCount adds delta to the merchant usage counter,
	// floored at zero.
	AdjustMerchantCount(ctx context.Context, id MerchantID, delta int) error
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with one-database-transaction-per-operation scope.
type TxStore interface {
	Store

	// WithTx executes fn within a database transaction. If fn returns an
	// error the transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
