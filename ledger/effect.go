/*
effect.go - Balance effects (the Balance Mutator)

PURPOSE:
  The one abstraction through which account balances change. An Effect is
  a value describing one or two signed deltas; Apply executes it against
  an AccountStore inside the caller's transaction scope.

EFFECT ALGEBRA:
  Credit(a, x):   balance(a) += x
  Debit(a, x):    balance(a) -= x
  Move(a, b, x):  Debit(a, x) then Credit(b, x), atomically

  Inverse() is the algebraic mirror: Credit↔Debit swapped, Move with the
  roles swapped. Apply-then-inverse-apply is the identity on balances.

TYPE MAPPING:
  expense  → Debit(account, amount)
  income   → Credit(account, amount)
  transfer → Move(account, to_account, amount)

  The mapping is a closed tagged-variant dispatch; effects never inspect
  transaction state. Callers (engine.go) decide WHEN to apply or reverse.

SEE ALSO:
  - engine.go: the only caller
  - store.go: AccountStore.ApplyDelta
*/
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EFFECT
// =============================================================================

type EffectKind string

const (
	EffectCredit EffectKind = "credit"
	EffectDebit  EffectKind = "debit"
	EffectMove   EffectKind = "move"
)

// Effect is the signed change(s) a transaction causes to one or two account
// balances. Effects are plain values; they carry no transaction state.
type Effect struct {
	Kind      EffectKind
	Account   AccountID
	ToAccount AccountID // Move only
	Amount    decimal.Decimal
}

// Credit adds amount to the account's balance.
func Credit(account AccountID, amount decimal.Decimal) Effect {
	return Effect{Kind: EffectCredit, Account: account, Amount: amount}
}

// Debit subtracts amount from the account's balance.
func Debit(account AccountID, amount decimal.Decimal) Effect {
	return Effect{Kind: EffectDebit, Account: account, Amount: amount}
}

// Move debits from and credits to in one atomic scope.
func Move(from, to AccountID, amount decimal.Decimal) Effect {
	return Effect{Kind: EffectMove, Account: from, ToAccount: to, Amount: amount}
}

// Inverse returns the effect that undoes e.
func (e Effect) Inverse() Effect {
	switch e.Kind {
	case EffectCredit:
		return Debit(e.Account, e.Amount)
	case EffectDebit:
		return Credit(e.Account, e.Amount)
	case EffectMove:
		return Move(e.ToAccount, e.Account, e.Amount)
	}
	return e
}

// Apply executes the effect against s. No sign validation is performed on
// the resulting balances; balances may go negative. For Move, both deltas
// run inside the caller's transaction scope: either both land or neither
// does when the surrounding transaction rolls back.
func (e Effect) Apply(ctx context.Context, s AccountStore) error {
	switch e.Kind {
	case EffectCredit:
		_, err := s.ApplyDelta(ctx, e.Account, e.Amount)
		return err
	case EffectDebit:
		_, err := s.ApplyDelta(ctx, e.Account, e.Amount.Neg())
		return err
	case EffectMove:
		if _, err := s.ApplyDelta(ctx, e.Account, e.Amount.Neg()); err != nil {
			return err
		}
		_, err := s.ApplyDelta(ctx, e.ToAccount, e.Amount)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownEffect, e.Kind)
}

// =============================================================================
// TYPE → EFFECT MAPPING
// =============================================================================

// EffectFor maps a transaction to its balance effect per the type table.
func EffectFor(t *Transaction) (Effect, error) {
	switch t.Type {
	case TypeExpense:
		return Debit(t.AccountID, t.Amount), nil
	case TypeIncome:
		return Credit(t.AccountID, t.Amount), nil
	case TypeTransfer:
		if t.ToAccountID == nil {
			return Effect{}, fmt.Errorf("%w: transfer without destination", ErrUnknownEffect)
		}
		return Move(t.AccountID, *t.ToAccountID, t.Amount), nil
	}
	return Effect{}, fmt.Errorf("%w: %q", ErrUnknownEffect, t.Type)
}
