/*
Package ledger is the consistency core of BalanceFlow: the types and
rules that keep account balances, transaction status, itemized line
totals, and deferred-debt settlement mutually consistent.

KEY CONCEPTS IN THIS FILE (types.go):
  - Account: a money container with a signed decimal balance
  - Transaction: a categorized money movement with a (status, deleted) state
  - TransactionItem: an itemized line whose totals drive the transaction amount
  - Debt: a deferral marker that postpones a pending transaction's effect

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all money, never float64
  2. Type safety: distinct ID types so an AccountID can't be passed as a DebtID
  3. Closed enums: transaction type/status are tagged variants, not free strings
  4. Single writer: Account.Balance changes only through an Effect (effect.go)

SEE ALSO:
  - effect.go: balance effects and the type→effect mapping
  - engine.go: the lifecycle state machine that owns all mutations
  - store.go: persistence interfaces
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	AccountID         string
	TransactionID     string
	TransactionItemID string
	DebtID            string
	CategoryID        string
	MerchantID        string
	ItemID            string
)

// =============================================================================
// ACCOUNT
// =============================================================================

type AccountType string

const (
	AccountCash   AccountType = "cash"
	AccountBank   AccountType = "bank"
	AccountWallet AccountType = "wallet"
)

// ValidAccountType reports whether t is one of the closed set of account types.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountCash, AccountBank, AccountWallet:
		return true
	}
	return false
}

// Account holds money. Balance is a signed decimal; negative balances are
// accepted behavior (overdraft-like cash accounts), not an error.
//
// INVARIANT: Balance is mutated only by Effect.Apply (effect.go) in response
// to a lifecycle transition. Metadata edits (rename, recolor) never touch it.
type Account struct {
	ID        AccountID
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	Currency  string
	Color     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// =============================================================================
// TRANSACTION
// =============================================================================

type TransactionType string

const (
	TypeExpense  TransactionType = "expense"
	TypeIncome   TransactionType = "income"
	TypeTransfer TransactionType = "transfer"
)

func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TypeExpense, TypeIncome, TypeTransfer:
		return true
	}
	return false
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
)

// State is a transaction's effective lifecycle state: the (status, deleted)
// pair. Deleted is terminal; no transition leaves it. Modeling the pair
// explicitly keeps the legal transitions enumerable in one place (engine.go)
// instead of scattered across two independent booleans.
type State struct {
	Status  TransactionStatus
	Deleted bool
}

var (
	StatePending          = State{Status: StatusPending}
	StateCompleted        = State{Status: StatusCompleted}
	StatePendingDeleted   = State{Status: StatusPending, Deleted: true}
	StateCompletedDeleted = State{Status: StatusCompleted, Deleted: true}
)

// Transaction is a single money movement.
//
// INVARIANT: the balance effect of a transaction is applied exactly once,
// if and only if its state is (completed, not deleted) at the moment the
// effect was computed. Reversal on delete is the algebraic inverse.
type Transaction struct {
	ID          TransactionID
	Type        TransactionType
	Amount      decimal.Decimal // > 0
	AccountID   AccountID
	ToAccountID *AccountID // set iff Type == TypeTransfer
	CategoryID  *CategoryID
	MerchantID  *MerchantID
	Note        string
	Date        time.Time
	Status      TransactionStatus
	IsDeleted   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// State returns the effective (status, deleted) lifecycle state.
func (t *Transaction) State() State {
	return State{Status: t.Status, Deleted: t.IsDeleted}
}

// Completed reports whether the transaction's balance effect is live.
func (t *Transaction) Completed() bool {
	return t.Status == StatusCompleted && !t.IsDeleted
}

// =============================================================================
// TRANSACTION ITEM
// =============================================================================

// TransactionItem is one itemized line of a transaction: unit price times
// quantity. Lines are hard-deleted on removal; the parent transaction's
// recorded amount is recomputed from the surviving lines (engine.go).
type TransactionItem struct {
	ID            TransactionItemID
	TransactionID TransactionID
	ItemID        ItemID
	Amount        decimal.Decimal // unit price, > 0
	Quantity      decimal.Decimal // > 0, defaults to 1
	Remarks       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Total returns Amount × Quantity for this line.
func (i *TransactionItem) Total() decimal.Decimal {
	return i.Amount.Mul(i.Quantity)
}

// =============================================================================
// DEBT
// =============================================================================

type DebtDirection string

const (
	DirectionIOwe    DebtDirection = "i_owe"
	DirectionTheyOwe DebtDirection = "they_owe"
)

func ValidDebtDirection(d DebtDirection) bool {
	return d == DirectionIOwe || d == DirectionTheyOwe
}

// Debt defers a pending transaction's balance effect until a real-world IOU
// is resolved. At most one Debt exists per transaction. Direction is purely
// descriptive; the eventual balance effect follows the transaction's own
// type, never the debt direction.
//
// A settled Debt (SettledAt != nil) is immutable history.
type Debt struct {
	ID            DebtID
	TransactionID TransactionID
	PersonName    string
	Direction     DebtDirection
	SettledAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Settled reports whether the debt has been settled.
func (d *Debt) Settled() bool {
	return d.SettledAt != nil
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

type CategoryType string

const (
	CategoryExpense CategoryType = "expense"
	CategoryIncome  CategoryType = "income"
	CategoryBoth    CategoryType = "both"
)

func ValidCategoryType(t CategoryType) bool {
	switch t {
	case CategoryExpense, CategoryIncome, CategoryBoth:
		return true
	}
	return false
}

type Category struct {
	ID        CategoryID
	Name      string
	Icon      string
	Color     string
	Type      CategoryType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Merchant carries a usage counter maintained by the lifecycle: incremented
// when a completed transaction referencing it is created, decremented
// (floored at zero) when one is deleted.
type Merchant struct {
	ID                MerchantID
	Name              string
	DefaultCategoryID *CategoryID
	TransactionCount  int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Item is a catalog entry line items refer to (e.g. "Milk", "Bus ticket").
type Item struct {
	ID         ItemID
	Name       string
	CategoryID *CategoryID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
