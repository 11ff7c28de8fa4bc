/*
engine.go - The transaction lifecycle state machine

PURPOSE:
  The Engine owns every mutation of ledger state: transaction creation and
  deletion, metadata edits, debt attachment and settlement, and line-item
  recomputation. Each operation runs inside exactly one database
  transaction (TxStore.WithTx); a failure anywhere rolls back the whole
  scope, so partial application is never observable.

STATE MACHINE:
  A transaction's effective state is (status, deleted). Legal transitions:

    Create(completed)          → (completed, false)  effect applied
    Create(pending)            → (pending, false)    no effect
    Settle (via attached Debt) → (pending→completed) effect applied now
    Delete of completed        → (completed, true)   effect reversed
    Delete of pending          → (pending, true)     nothing to reverse

  Deleted is terminal. The effect is applied exactly once, iff the state
  was (completed, false) when it was computed.

ITEM TOTALS:
  Item mutations recompute the transaction's recorded amount as
  Σ(amount × quantity). Recompute deliberately does NOT re-run the balance
  effect for transactions that were already completed; the recorded total
  and the applied effect can diverge on a completed transaction whose
  items are edited afterwards. That is the reference behavior, kept as-is.

SEE ALSO:
  - effect.go: the type→effect mapping and its inverse
  - store.go: the persistence contract
*/
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxNoteLen = 500

// Engine is the sole writer of ledger state.
type Engine struct {
	store TxStore
}

// NewEngine creates an Engine on top of a transactional store.
func NewEngine(store TxStore) *Engine {
	return &Engine{store: store}
}

// =============================================================================
// CREATE
// =============================================================================

// CreateInput carries everything needed to create a transaction.
// Status defaults to completed when empty.
type CreateInput struct {
	Type        TransactionType
	Amount      decimal.Decimal
	AccountID   AccountID
	ToAccountID *AccountID
	CategoryID  *CategoryID
	MerchantID  *MerchantID
	Note        string
	Date        time.Time
	Status      TransactionStatus
}

func (in *CreateInput) validate() error {
	if !ValidTransactionType(in.Type) {
		return invalidf("type", "must be expense, income or transfer")
	}
	if !in.Amount.IsPositive() {
		return invalidf("amount", "must be positive")
	}
	if in.AccountID == "" {
		return invalidf("account_id", "is required")
	}
	if in.Status == "" {
		in.Status = StatusCompleted
	}
	if in.Status != StatusPending && in.Status != StatusCompleted {
		return invalidf("status", "must be pending or completed")
	}
	if len(in.Note) > maxNoteLen {
		return invalidf("note", "must be at most %d characters", maxNoteLen)
	}
	if in.Type == TypeTransfer {
		if in.ToAccountID == nil || *in.ToAccountID == "" {
			return invalidf("to_account_id", "is required for transfers")
		}
		if *in.ToAccountID == in.AccountID {
			return invalidf("to_account_id", "cannot transfer to the same account")
		}
		if in.CategoryID != nil || in.MerchantID != nil {
			return invalidf("type", "transfers cannot carry a category or merchant")
		}
	} else if in.ToAccountID != nil {
		return invalidf("to_account_id", "is only allowed for transfers")
	}
	return nil
}

// Create validates, persists the transaction and, when it is created
// completed, applies its balance effect and bumps the merchant usage
// counter — all in one atomic scope.
func (e *Engine) Create(ctx context.Context, in CreateInput) (*Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	var created *Transaction
	err := e.store.WithTx(ctx, func(s Store) error {
		if err := e.requireActiveAccount(ctx, s, in.AccountID); err != nil {
			return err
		}
		if in.Type == TypeTransfer {
			if err := e.requireActiveAccount(ctx, s, *in.ToAccountID); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		t := &Transaction{
			ID:          TransactionID(uuid.NewString()),
			Type:        in.Type,
			Amount:      in.Amount,
			AccountID:   in.AccountID,
			ToAccountID: in.ToAccountID,
			CategoryID:  in.CategoryID,
			MerchantID:  in.MerchantID,
			Note:        in.Note,
			Date:        in.Date,
			Status:      in.Status,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.InsertTransaction(ctx, t); err != nil {
			return err
		}

		// Pending transactions defer their effect until settlement, and
		// don't count toward merchant usage until then either.
		if t.Status == StatusCompleted {
			eff, err := EffectFor(t)
			if err != nil {
				return err
			}
			if err := eff.Apply(ctx, s); err != nil {
				return err
			}
			if t.MerchantID != nil {
				if err := s.AdjustMerchantCount(ctx, *t.MerchantID, 1); err != nil {
					return err
				}
			}
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (e *Engine) requireActiveAccount(ctx context.Context, s Store, id AccountID) error {
	acct, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if !acct.IsActive {
		return ErrAccountNotFound
	}
	return nil
}

// =============================================================================
// EDIT (metadata only)
// =============================================================================

// UpdateInput patches a transaction's metadata. Nil fields are kept.
// Amount, type and accounts are immutable through this path.
type UpdateInput struct {
	CategoryID *CategoryID
	MerchantID *MerchantID
	Note       *string
	Date       *time.Time
}

// Update edits category, merchant, note and date of a non-deleted
// transaction. No balance effect.
func (e *Engine) Update(ctx context.Context, id TransactionID, in UpdateInput) (*Transaction, error) {
	if in.Note != nil && len(*in.Note) > maxNoteLen {
		return nil, invalidf("note", "must be at most %d characters", maxNoteLen)
	}

	var updated *Transaction
	err := e.store.WithTx(ctx, func(s Store) error {
		t, err := e.liveTransaction(ctx, s, id)
		if err != nil {
			return err
		}
		if in.CategoryID != nil {
			t.CategoryID = in.CategoryID
		}
		if in.MerchantID != nil {
			t.MerchantID = in.MerchantID
		}
		if in.Note != nil {
			t.Note = *in.Note
		}
		if in.Date != nil {
			t.Date = *in.Date
		}
		t.UpdatedAt = time.Now().UTC()
		if err := s.UpdateTransactionMeta(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete soft-deletes a non-deleted transaction. If the transaction was
// completed its balance effect is reversed and the merchant counter
// decremented; a pending transaction never applied anything, so nothing
// is reversed. Atomic with the soft-delete write.
func (e *Engine) Delete(ctx context.Context, id TransactionID) error {
	return e.store.WithTx(ctx, func(s Store) error {
		t, err := e.liveTransaction(ctx, s, id)
		if err != nil {
			return err
		}
		if err := s.MarkTransactionDeleted(ctx, t.ID); err != nil {
			return err
		}
		if t.Status != StatusCompleted {
			return nil
		}
		eff, err := EffectFor(t)
		if err != nil {
			return err
		}
		if err := eff.Inverse().Apply(ctx, s); err != nil {
			return err
		}
		if t.MerchantID != nil {
			if err := s.AdjustMerchantCount(ctx, *t.MerchantID, -1); err != nil {
				return err
			}
		}
		return nil
	})
}

// liveTransaction returns the transaction unless it is soft-deleted, in
// which case it is indistinguishable from a missing row.
func (e *Engine) liveTransaction(ctx context.Context, s Store, id TransactionID) (*Transaction, error) {
	t, err := s.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.IsDeleted {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

// =============================================================================
// DEBTS
// =============================================================================

// AttachDebt records a deferral marker against a pending expense/income
// transaction. At most one debt per transaction; direction is descriptive
// only and never changes the eventual balance effect.
func (e *Engine) AttachDebt(ctx context.Context, txID TransactionID, personName string, direction DebtDirection) (*Debt, error) {
	if personName == "" {
		return nil, invalidf("person_name", "is required")
	}
	if len(personName) > 100 {
		return nil, invalidf("person_name", "must be at most 100 characters")
	}
	if !ValidDebtDirection(direction) {
		return nil, invalidf("direction", "must be i_owe or they_owe")
	}

	var attached *Debt
	err := e.store.WithTx(ctx, func(s Store) error {
		t, err := e.liveTransaction(ctx, s, txID)
		if err != nil {
			return err
		}
		if t.Status != StatusPending {
			return ErrTransactionNotPending
		}
		if t.Type == TypeTransfer {
			return invalidf("transaction_id", "debts can only defer expense or income transactions")
		}
		_, err = s.GetDebtByTransaction(ctx, txID)
		switch {
		case err == nil:
			return ErrDebtExists
		case !errors.Is(err, ErrDebtNotFound):
			return err
		}

		now := time.Now().UTC()
		d := &Debt{
			ID:            DebtID(uuid.NewString()),
			TransactionID: txID,
			PersonName:    personName,
			Direction:     direction,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.InsertDebt(ctx, d); err != nil {
			return err
		}
		attached = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attached, nil
}

// SettleDebt resolves a debt: settled_at is set, the linked transaction
// flips pending→completed, and the deferred balance effect is applied
// using the transaction's current account and amount. One-way; settling
// twice fails the second time without double-applying.
func (e *Engine) SettleDebt(ctx context.Context, id DebtID) error {
	return e.store.WithTx(ctx, func(s Store) error {
		d, err := s.GetDebt(ctx, id)
		if err != nil {
			return err
		}
		if d.Settled() {
			return ErrDebtSettled
		}
		t, err := e.liveTransaction(ctx, s, d.TransactionID)
		if err != nil {
			return err
		}

		// Conditional update, not read-then-write: under concurrent
		// settles only one caller sees rows affected.
		won, err := s.MarkDebtSettled(ctx, d.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if !won {
			return ErrDebtSettled
		}
		if err := s.CompleteTransaction(ctx, t.ID); err != nil {
			return err
		}
		eff, err := EffectFor(t)
		if err != nil {
			return err
		}
		return eff.Apply(ctx, s)
	})
}

// DeleteDebt removes a still-unsettled debt and soft-deletes its linked
// transaction. No balance reversal: a pending transaction never applied
// an effect. Settled debts are immutable history and cannot be deleted.
func (e *Engine) DeleteDebt(ctx context.Context, id DebtID) error {
	return e.store.WithTx(ctx, func(s Store) error {
		d, err := s.GetDebt(ctx, id)
		if err != nil {
			return err
		}
		if d.Settled() {
			return ErrDebtSettled
		}
		if err := s.DeleteDebt(ctx, d.ID); err != nil {
			return err
		}
		return s.MarkTransactionDeleted(ctx, d.TransactionID)
	})
}

// =============================================================================
// ITEMS (line items + amount recomputation)
// =============================================================================

// ItemInput carries a new line item for a transaction.
type ItemInput struct {
	ItemID   ItemID
	Amount   decimal.Decimal // unit price
	Quantity decimal.Decimal // defaults to 1 when zero
	Remarks  string
}

func (in *ItemInput) validate() error {
	if in.ItemID == "" {
		return invalidf("item_id", "is required")
	}
	if !in.Amount.IsPositive() {
		return invalidf("amount", "must be positive")
	}
	if in.Quantity.IsZero() {
		in.Quantity = decimal.NewFromInt(1)
	}
	if !in.Quantity.IsPositive() {
		return invalidf("quantity", "must be positive")
	}
	if len(in.Remarks) > maxNoteLen {
		return invalidf("remarks", "must be at most %d characters", maxNoteLen)
	}
	return nil
}

// AddItem appends a line to a transaction and recomputes its amount.
func (e *Engine) AddItem(ctx context.Context, txID TransactionID, in ItemInput) (*TransactionItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var added *TransactionItem
	err := e.store.WithTx(ctx, func(s Store) error {
		if _, err := e.liveTransaction(ctx, s, txID); err != nil {
			return err
		}
		if _, err := s.GetItem(ctx, in.ItemID); err != nil {
			return err
		}

		now := time.Now().UTC()
		li := &TransactionItem{
			ID:            TransactionItemID(uuid.NewString()),
			TransactionID: txID,
			ItemID:        in.ItemID,
			Amount:        in.Amount,
			Quantity:      in.Quantity,
			Remarks:       in.Remarks,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.InsertTransactionItem(ctx, li); err != nil {
			return err
		}
		if err := recomputeAmount(ctx, s, txID); err != nil {
			return err
		}
		added = li
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// ItemPatch updates a line item. Nil fields are kept.
type ItemPatch struct {
	Amount   *decimal.Decimal
	Quantity *decimal.Decimal
	Remarks  *string
}

// UpdateItem edits a line and recomputes the parent transaction's amount.
func (e *Engine) UpdateItem(ctx context.Context, id TransactionItemID, patch ItemPatch) (*TransactionItem, error) {
	if patch.Amount != nil && !patch.Amount.IsPositive() {
		return nil, invalidf("amount", "must be positive")
	}
	if patch.Quantity != nil && !patch.Quantity.IsPositive() {
		return nil, invalidf("quantity", "must be positive")
	}
	if patch.Remarks != nil && len(*patch.Remarks) > maxNoteLen {
		return nil, invalidf("remarks", "must be at most %d characters", maxNoteLen)
	}

	var updated *TransactionItem
	err := e.store.WithTx(ctx, func(s Store) error {
		li, err := s.GetTransactionItem(ctx, id)
		if err != nil {
			return err
		}
		if patch.Amount != nil {
			li.Amount = *patch.Amount
		}
		if patch.Quantity != nil {
			li.Quantity = *patch.Quantity
		}
		if patch.Remarks != nil {
			li.Remarks = *patch.Remarks
		}
		li.UpdatedAt = time.Now().UTC()
		if err := s.UpdateTransactionItem(ctx, li); err != nil {
			return err
		}
		if err := recomputeAmount(ctx, s, li.TransactionID); err != nil {
			return err
		}
		updated = li
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveItem hard-deletes a line and recomputes the parent's amount.
// Removing the last line leaves the amount at zero.
func (e *Engine) RemoveItem(ctx context.Context, id TransactionItemID) error {
	return e.store.WithTx(ctx, func(s Store) error {
		li, err := s.GetTransactionItem(ctx, id)
		if err != nil {
			return err
		}
		if err := s.DeleteTransactionItem(ctx, li.ID); err != nil {
			return err
		}
		return recomputeAmount(ctx, s, li.TransactionID)
	})
}

// recomputeAmount writes Σ(amount × quantity) over the current lines as
// the transaction's recorded amount. It never touches account balances:
// for an already-completed transaction the applied effect keeps the
// amount it was computed from.
func recomputeAmount(ctx context.Context, s Store, txID TransactionID) error {
	sum, err := s.SumTransactionItems(ctx, txID)
	if err != nil {
		return err
	}
	return s.SetTransactionAmount(ctx, txID, sum)
}
