package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balanceflow/balanceflow/ledger"
	"github.com/balanceflow/balanceflow/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T) (*ledger.Engine, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return ledger.NewEngine(store), store
}

func seedAccount(t *testing.T, store *sqlite.Store, id ledger.AccountID, balance string) *ledger.Account {
	now := time.Now().UTC()
	acct := &ledger.Account{
		ID:        id,
		Name:      string(id),
		Type:      ledger.AccountBank,
		Balance:   d(balance),
		Currency:  "USD",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.CreateAccount(context.Background(), acct))
	return acct
}

func seedMerchant(t *testing.T, store *sqlite.Store, id ledger.MerchantID) *ledger.Merchant {
	now := time.Now().UTC()
	m := &ledger.Merchant{
		ID:        id,
		Name:      string(id),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.CreateMerchant(context.Background(), m))
	return m
}

func seedItem(t *testing.T, store *sqlite.Store, name string) *ledger.Item {
	it, _, err := store.FindOrCreateItem(context.Background(), name, nil, ledger.ItemID("item-"+name))
	require.NoError(t, err)
	return it
}

func balanceOf(t *testing.T, store *sqlite.Store, id ledger.AccountID) string {
	acct, err := store.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return acct.Balance.String()
}

func expense(account ledger.AccountID, amount string) ledger.CreateInput {
	return ledger.CreateInput{
		Type:      ledger.TypeExpense,
		Amount:    d(amount),
		AccountID: account,
	}
}

func income(account ledger.AccountID, amount string) ledger.CreateInput {
	return ledger.CreateInput{
		Type:      ledger.TypeIncome,
		Amount:    d(amount),
		AccountID: account,
	}
}

func transfer(from, to ledger.AccountID, amount string) ledger.CreateInput {
	return ledger.CreateInput{
		Type:        ledger.TypeTransfer,
		Amount:      d(amount),
		AccountID:   from,
		ToAccountID: &to,
	}
}

// =============================================================================
// CREATE: BALANCE EFFECTS
// =============================================================================

func TestCreate_CompletedExpense_DebitsAccount(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")

	tx, err := engine.Create(context.Background(), expense("a", "250"))
	require.NoError(t, err)

	assert.Equal(t, ledger.StatusCompleted, tx.Status)
	assert.Equal(t, "750", balanceOf(t, store, "a"))
}

func TestCreate_CompletedIncome_CreditsAccount(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")

	_, err := engine.Create(context.Background(), income("a", "300"))
	require.NoError(t, err)

	assert.Equal(t, "1300", balanceOf(t, store, "a"))
}

func TestCreate_Transfer_MovesBetweenAccounts(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	seedAccount(t, store, "b", "0")

	_, err := engine.Create(context.Background(), transfer("a", "b", "300"))
	require.NoError(t, err)

	assert.Equal(t, "700", balanceOf(t, store, "a"))
	assert.Equal(t, "300", balanceOf(t, store, "b"))
}

func TestCreate_Lifecycle_Sequence(t *testing.T) {
	// GIVEN: A starts at 1000, B at 0
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	seedAccount(t, store, "b", "0")
	ctx := context.Background()

	// WHEN: expense 250, income 300, transfer 300 A→B
	_, err := engine.Create(ctx, expense("a", "250"))
	require.NoError(t, err)
	_, err = engine.Create(ctx, income("a", "300"))
	require.NoError(t, err)
	_, err = engine.Create(ctx, transfer("a", "b", "300"))
	require.NoError(t, err)

	// THEN: A = 1000 - 250 + 300 - 300, B = 300
	assert.Equal(t, "750", balanceOf(t, store, "a"))
	assert.Equal(t, "300", balanceOf(t, store, "b"))
}

func TestCreate_Pending_NoBalanceChange(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")

	in := expense("a", "250")
	in.Status = ledger.StatusPending
	tx, err := engine.Create(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, ledger.StatusPending, tx.Status)
	assert.Equal(t, "1000", balanceOf(t, store, "a"))
}

func TestCreate_BalanceMayGoNegative(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "100")

	_, err := engine.Create(context.Background(), expense("a", "250"))
	require.NoError(t, err)

	assert.Equal(t, "-150", balanceOf(t, store, "a"))
}

// =============================================================================
// CREATE: VALIDATION
// =============================================================================

func TestCreate_RejectsNonPositiveAmount(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")

	_, err := engine.Create(context.Background(), expense("a", "0"))
	assert.True(t, ledger.IsValidation(err))
	assert.Equal(t, "1000", balanceOf(t, store, "a"))
}

func TestCreate_UnknownAccount_NotFound(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Create(context.Background(), expense("missing", "10"))
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestCreate_InactiveAccount_NotFound(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	require.NoError(t, store.DeactivateAccount(context.Background(), "a"))

	_, err := engine.Create(context.Background(), expense("a", "10"))
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestCreate_TransferToSameAccount_Rejected(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")

	_, err := engine.Create(context.Background(), transfer("a", "a", "10"))
	assert.True(t, ledger.IsValidation(err))
}

func TestCreate_TransferWithMerchant_Rejected(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	seedAccount(t, store, "b", "0")
	m := seedMerchant(t, store, "corner-store")

	in := transfer("a", "b", "10")
	in.MerchantID = &m.ID
	_, err := engine.Create(context.Background(), in)
	assert.True(t, ledger.IsValidation(err))
}

// =============================================================================
// DELETE: EXACTLY-ONCE REVERSAL
// =============================================================================

func TestDelete_CompletedExpense_RestoresBalance(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	ctx := context.Background()

	tx, err := engine.Create(ctx, expense("a", "250"))
	require.NoError(t, err)
	require.Equal(t, "750", balanceOf(t, store, "a"))

	require.NoError(t, engine.Delete(ctx, tx.ID))
	assert.Equal(t, "1000", balanceOf(t, store, "a"))
}

func TestDelete_Transfer_RestoresBothBalances(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	seedAccount(t, store, "b", "0")
	ctx := context.Background()

	tx, err := engine.Create(ctx, transfer("a", "b", "300"))
	require.NoError(t, err)

	require.NoError(t, engine.Delete(ctx, tx.ID))
	assert.Equal(t, "1000", balanceOf(t, store, "a"))
	assert.Equal(t, "0", balanceOf(t, store, "b"))
}

func TestDelete_Pending_NoReversal(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	ctx := context.Background()

	in := expense("a", "250")
	in.Status = ledger.StatusPending
	tx, err := engine.Create(ctx, in)
	require.NoError(t, err)

	require.NoError(t, engine.Delete(ctx, tx.ID))
	assert.Equal(t, "1000", balanceOf(t, store, "a"))
}

func TestDelete_Twice_SecondIsNotFound(t *testing.T) {
	// A deleted transaction is indistinguishable from a missing one, and
	// the reversal must not run twice.
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	ctx := context.Background()

	tx, err := engine.Create(ctx, expense("a", "250"))
	require.NoError(t, err)
	require.NoError(t, engine.Delete(ctx, tx.ID))

	err = engine.Delete(ctx, tx.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
	assert.Equal(t, "1000", balanceOf(t, store, "a"))
}

// =============================================================================
// MERCHANT USAGE COUNTER
// =============================================================================

func TestMerchantCounter_CompletedCreateAndDelete(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	m := seedMerchant(t, store, "corner-store")
	ctx := context.Background()

	in := expense("a", "10")
	in.MerchantID = &m.ID
	tx, err := engine.Create(ctx, in)
	require.NoError(t, err)

	got, err := store.GetMerchant(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TransactionCount)

	require.NoError(t, engine.Delete(ctx, tx.ID))
	got, err = store.GetMerchant(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TransactionCount)
}

func TestMerchantCounter_PendingCreate_NotCounted(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	m := seedMerchant(t, store, "corner-store")
	ctx := context.Background()

	in := expense("a", "10")
	in.MerchantID = &m.ID
	in.Status = ledger.StatusPending
	_, err := engine.Create(ctx, in)
	require.NoError(t, err)

	got, err := store.GetMerchant(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TransactionCount)
}

// =============================================================================
// DEBTS: ATTACH
// =============================================================================

func pendingExpense(t *testing.T, engine *ledger.Engine, account ledger.AccountID, amount string) *ledger.Transaction {
	in := expense(account, amount)
	in.Status = ledger.StatusPending
	tx, err := engine.Create(context.Background(), in)
	require.NoError(t, err)
	return tx
}

func TestAttachDebt_PendingExpense_OK(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	tx := pendingExpense(t, engine, "a", "25")

	debt, err := engine.AttachDebt(context.Background(), tx.ID, "sam", ledger.DirectionIOwe)
	require.NoError(t, err)

	assert.Equal(t, tx.ID, debt.TransactionID)
	assert.False(t, debt.Settled())
}

func TestAttachDebt_Duplicate_Conflict(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	tx := pendingExpense(t, engine, "a", "25")
	ctx := context.Background()

	_, err := engine.AttachDebt(ctx, tx.ID, "sam", ledger.DirectionIOwe)
	require.NoError(t, err)

	_, err = engine.AttachDebt(ctx, tx.ID, "alex", ledger.DirectionTheyOwe)
	assert.ErrorIs(t, err, ledger.ErrDebtExists)
}

func TestAttachDebt_CompletedTransaction_Conflict(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	tx, err := engine.Create(context.Background(), expense("a", "25"))
	require.NoError(t, err)

	_, err = engine.AttachDebt(context.Background(), tx.ID, "sam", ledger.DirectionIOwe)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotPending)
}

func TestAttachDebt_Transfer_Rejected(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	seedAccount(t, store, "b", "0")

	in := transfer("a", "b", "25")
	in.Status = ledger.StatusPending
	tx, err := engine.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = engine.AttachDebt(context.Background(), tx.ID, "sam", ledger.DirectionIOwe)
	assert.True(t, ledger.IsValidation(err))
}

// =============================================================================
// DEBTS: SETTLEMENT
// =============================================================================

func TestSettleDebt_AppliesDeferredEffect(t *testing.T) {
	// GIVEN: A at 750 with a pending expense of 1 and a debt attached
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "750")
	tx := pendingExpense(t, engine, "a", "1")
	ctx := context.Background()

	debt, err := engine.AttachDebt(ctx, tx.ID, "sam", ledger.DirectionTheyOwe)
	require.NoError(t, err)
	require.Equal(t, "750", balanceOf(t, store, "a"))

	// WHEN: the debt is settled
	require.NoError(t, engine.SettleDebt(ctx, debt.ID))

	// THEN: the effect lands exactly once and the transaction completes
	assert.Equal(t, "749", balanceOf(t, store, "a"))

	settled, err := store.GetDebt(ctx, debt.ID)
	require.NoError(t, err)
	assert.True(t, settled.Settled())

	completed, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCompleted, completed.Status)
}

func TestSettleDebt_Twice_SecondFailsWithoutDoubleApply(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "750")
	tx := pendingExpense(t, engine, "a", "1")
	ctx := context.Background()

	debt, err := engine.AttachDebt(ctx, tx.ID, "sam", ledger.DirectionIOwe)
	require.NoError(t, err)

	require.NoError(t, engine.SettleDebt(ctx, debt.ID))
	err = engine.SettleDebt(ctx, debt.ID)
	assert.ErrorIs(t, err, ledger.ErrDebtSettled)
	assert.Equal(t, "749", balanceOf(t, store, "a"))
}

func TestSettleDebt_UsesCurrentAmount(t *testing.T) {
	// Line items edited between attach and settle change the recorded
	// amount; settlement applies whatever the amount is NOW.
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	seedItem(t, store, "coffee")
	tx := pendingExpense(t, engine, "a", "5")
	ctx := context.Background()

	debt, err := engine.AttachDebt(ctx, tx.ID, "sam", ledger.DirectionIOwe)
	require.NoError(t, err)

	_, err = engine.AddItem(ctx, tx.ID, ledger.ItemInput{
		ItemID:   "item-coffee",
		Amount:   d("4"),
		Quantity: d("3"),
	})
	require.NoError(t, err)

	require.NoError(t, engine.SettleDebt(ctx, debt.ID))
	assert.Equal(t, "988", balanceOf(t, store, "a"))
}

func TestDeleteDebt_Unsettled_RemovesDebtAndTransaction(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	tx := pendingExpense(t, engine, "a", "25")
	ctx := context.Background()

	debt, err := engine.AttachDebt(ctx, tx.ID, "sam", ledger.DirectionIOwe)
	require.NoError(t, err)

	require.NoError(t, engine.DeleteDebt(ctx, debt.ID))

	_, err = store.GetDebt(ctx, debt.ID)
	assert.ErrorIs(t, err, ledger.ErrDebtNotFound)

	gone, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, gone.IsDeleted)
	assert.Equal(t, "1000", balanceOf(t, store, "a"))
}

func TestDeleteDebt_Settled_Conflict(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	tx := pendingExpense(t, engine, "a", "25")
	ctx := context.Background()

	debt, err := engine.AttachDebt(ctx, tx.ID, "sam", ledger.DirectionIOwe)
	require.NoError(t, err)
	require.NoError(t, engine.SettleDebt(ctx, debt.ID))

	err = engine.DeleteDebt(ctx, debt.ID)
	assert.ErrorIs(t, err, ledger.ErrDebtSettled)
}

// =============================================================================
// LINE ITEMS: AMOUNT RECOMPUTATION
// =============================================================================

func TestAddItem_RecomputesAmount(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	seedItem(t, store, "coffee")
	seedItem(t, store, "bagel")
	tx := pendingExpense(t, engine, "a", "5")
	ctx := context.Background()

	_, err := engine.AddItem(ctx, tx.ID, ledger.ItemInput{
		ItemID: "item-coffee", Amount: d("4.50"), Quantity: d("2"),
	})
	require.NoError(t, err)
	_, err = engine.AddItem(ctx, tx.ID, ledger.ItemInput{
		ItemID: "item-bagel", Amount: d("3.25"),
	})
	require.NoError(t, err)

	got, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(d("12.25")), "got %s", got.Amount)
}

func TestUpdateItem_RecomputesAmount(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	seedItem(t, store, "coffee")
	tx := pendingExpense(t, engine, "a", "5")
	ctx := context.Background()

	li, err := engine.AddItem(ctx, tx.ID, ledger.ItemInput{
		ItemID: "item-coffee", Amount: d("4"), Quantity: d("2"),
	})
	require.NoError(t, err)

	qty := d("5")
	_, err = engine.UpdateItem(ctx, li.ID, ledger.ItemPatch{Quantity: &qty})
	require.NoError(t, err)

	got, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(d("20")), "got %s", got.Amount)
}

func TestRemoveItem_LastItemZeroesAmount(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	seedItem(t, store, "coffee")
	tx := pendingExpense(t, engine, "a", "5")
	ctx := context.Background()

	li, err := engine.AddItem(ctx, tx.ID, ledger.ItemInput{
		ItemID: "item-coffee", Amount: d("4"),
	})
	require.NoError(t, err)

	require.NoError(t, engine.RemoveItem(ctx, li.ID))

	got, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.IsZero(), "got %s", got.Amount)
}

func TestRecompute_DoesNotTouchBalanceOfCompleted(t *testing.T) {
	// Editing items on a completed transaction changes the recorded
	// amount but never re-runs its balance effect.
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	seedItem(t, store, "coffee")
	ctx := context.Background()

	tx, err := engine.Create(ctx, expense("a", "10"))
	require.NoError(t, err)
	require.Equal(t, "990", balanceOf(t, store, "a"))

	_, err = engine.AddItem(ctx, tx.ID, ledger.ItemInput{
		ItemID: "item-coffee", Amount: d("25"),
	})
	require.NoError(t, err)

	got, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(d("25")))
	assert.Equal(t, "990", balanceOf(t, store, "a"))
}

// =============================================================================
// METADATA EDITS
// =============================================================================

func TestUpdate_EditsMetadataOnly(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	ctx := context.Background()

	tx, err := engine.Create(ctx, expense("a", "10"))
	require.NoError(t, err)

	note := "groceries"
	updated, err := engine.Update(ctx, tx.ID, ledger.UpdateInput{Note: &note})
	require.NoError(t, err)

	assert.Equal(t, "groceries", updated.Note)
	assert.True(t, updated.Amount.Equal(d("10")))
	assert.Equal(t, "990", balanceOf(t, store, "a"))
}

func TestUpdate_DeletedTransaction_NotFound(t *testing.T) {
	engine, store := newTestEngine(t)
	seedAccount(t, store, "a", "1000")
	ctx := context.Background()

	tx, err := engine.Create(ctx, expense("a", "10"))
	require.NoError(t, err)
	require.NoError(t, engine.Delete(ctx, tx.ID))

	note := "late edit"
	_, err = engine.Update(ctx, tx.ID, ledger.UpdateInput{Note: &note})
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}
