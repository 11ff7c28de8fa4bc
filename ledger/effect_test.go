package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balanceflow/balanceflow/ledger"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// =============================================================================
// TYPE → EFFECT MAPPING
// =============================================================================

func TestEffectFor_Expense_Debits(t *testing.T) {
	tx := &ledger.Transaction{
		Type:      ledger.TypeExpense,
		Amount:    d("25.50"),
		AccountID: "acct-1",
	}

	eff, err := ledger.EffectFor(tx)
	require.NoError(t, err)

	assert.Equal(t, ledger.EffectDebit, eff.Kind)
	assert.Equal(t, ledger.AccountID("acct-1"), eff.Account)
	assert.True(t, eff.Amount.Equal(d("25.50")))
}

func TestEffectFor_Income_Credits(t *testing.T) {
	tx := &ledger.Transaction{
		Type:      ledger.TypeIncome,
		Amount:    d("1000"),
		AccountID: "acct-1",
	}

	eff, err := ledger.EffectFor(tx)
	require.NoError(t, err)

	assert.Equal(t, ledger.EffectCredit, eff.Kind)
	assert.Equal(t, ledger.AccountID("acct-1"), eff.Account)
}

func TestEffectFor_Transfer_Moves(t *testing.T) {
	to := ledger.AccountID("acct-2")
	tx := &ledger.Transaction{
		Type:        ledger.TypeTransfer,
		Amount:      d("300"),
		AccountID:   "acct-1",
		ToAccountID: &to,
	}

	eff, err := ledger.EffectFor(tx)
	require.NoError(t, err)

	assert.Equal(t, ledger.EffectMove, eff.Kind)
	assert.Equal(t, ledger.AccountID("acct-1"), eff.Account)
	assert.Equal(t, to, eff.ToAccount)
}

func TestEffectFor_TransferWithoutDestination_Fails(t *testing.T) {
	tx := &ledger.Transaction{
		Type:      ledger.TypeTransfer,
		Amount:    d("300"),
		AccountID: "acct-1",
	}

	_, err := ledger.EffectFor(tx)
	assert.ErrorIs(t, err, ledger.ErrUnknownEffect)
}

func TestEffectFor_UnknownType_Fails(t *testing.T) {
	tx := &ledger.Transaction{
		Type:      ledger.TransactionType("loan"),
		Amount:    d("300"),
		AccountID: "acct-1",
	}

	_, err := ledger.EffectFor(tx)
	assert.ErrorIs(t, err, ledger.ErrUnknownEffect)
}

// =============================================================================
// INVERSE
// =============================================================================

func TestInverse_FlipsCreditAndDebit(t *testing.T) {
	credit := ledger.Credit("acct-1", d("10"))
	debit := ledger.Debit("acct-1", d("10"))

	assert.Equal(t, ledger.EffectDebit, credit.Inverse().Kind)
	assert.Equal(t, ledger.EffectCredit, debit.Inverse().Kind)
}

func TestInverse_SwapsMoveDirection(t *testing.T) {
	move := ledger.Move("acct-1", "acct-2", d("50"))

	inv := move.Inverse()
	assert.Equal(t, ledger.EffectMove, inv.Kind)
	assert.Equal(t, ledger.AccountID("acct-2"), inv.Account)
	assert.Equal(t, ledger.AccountID("acct-1"), inv.ToAccount)
}

func TestInverse_IsInvolution(t *testing.T) {
	move := ledger.Move("acct-1", "acct-2", d("50"))
	assert.Equal(t, move, move.Inverse().Inverse())
}
