package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balanceflow/balanceflow/ledger"
	"github.com/balanceflow/balanceflow/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newAccount(id ledger.AccountID, balance string) *ledger.Account {
	now := time.Now().UTC()
	return &ledger.Account{
		ID:        id,
		Name:      string(id),
		Type:      ledger.AccountCash,
		Balance:   d(balance),
		Currency:  "USD",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newTx(id ledger.TransactionID, account ledger.AccountID, amount string) *ledger.Transaction {
	now := time.Now().UTC()
	return &ledger.Transaction{
		ID:        id,
		Type:      ledger.TypeExpense,
		Amount:    d(amount),
		AccountID: account,
		Date:      now,
		Status:    ledger.StatusCompleted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestAccount_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "100.50")))

	got, err := store.GetAccount(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, ledger.AccountID("a"), got.ID)
	assert.True(t, got.Balance.Equal(d("100.50")))
	assert.True(t, got.IsActive)
}

func TestAccount_GetMissing_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetAccount(context.Background(), "nope")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestApplyDelta_KeepsDecimalPrecision(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "0.10")))

	got, err := store.ApplyDelta(ctx, "a", d("0.20"))
	require.NoError(t, err)

	// 0.1 + 0.2 is exactly 0.3, not 0.30000000000000004
	assert.True(t, got.Balance.Equal(d("0.3")), "balance = %s", got.Balance)
}

func TestDeactivateAccount_HiddenFromDefaultList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "0")))
	require.NoError(t, store.CreateAccount(ctx, newAccount("b", "0")))
	require.NoError(t, store.DeactivateAccount(ctx, "a"))

	active, err := store.ListAccounts(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, ledger.AccountID("b"), active[0].ID)

	all, err := store.ListAccounts(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Deactivated rows are still readable by ID
	got, err := store.GetAccount(ctx, "a")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestTransaction_RoundTrip_WithNullables(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "0")))
	require.NoError(t, store.CreateAccount(ctx, newAccount("b", "0")))

	to := ledger.AccountID("b")
	tx := newTx("t1", "a", "25")
	tx.Type = ledger.TypeTransfer
	tx.ToAccountID = &to
	require.NoError(t, store.InsertTransaction(ctx, tx))

	got, err := store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got.ToAccountID)
	assert.Equal(t, to, *got.ToAccountID)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.MerchantID)
}

func TestGetTransaction_ReturnsSoftDeletedRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "0")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t1", "a", "25")))
	require.NoError(t, store.MarkTransactionDeleted(ctx, "t1"))

	got, err := store.GetTransaction(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}

func TestListTransactions_ExcludesDeletedAndFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "0")))
	require.NoError(t, store.CreateAccount(ctx, newAccount("b", "0")))

	require.NoError(t, store.InsertTransaction(ctx, newTx("t1", "a", "10")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t2", "a", "20")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t3", "b", "30")))
	require.NoError(t, store.MarkTransactionDeleted(ctx, "t2"))

	all, err := store.ListTransactions(ctx, sqlite.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyA, err := store.ListTransactions(ctx, sqlite.TransactionFilter{AccountID: "a"})
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, ledger.TransactionID("t1"), onlyA[0].ID)
}

func TestListTransactions_LimitClamped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "0")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t1", "a", "10")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t2", "a", "20")))

	one, err := store.ListTransactions(ctx, sqlite.TransactionFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, one, 1)

	oversized, err := store.ListTransactions(ctx, sqlite.TransactionFilter{Limit: 100000})
	require.NoError(t, err)
	assert.Len(t, oversized, 2)
}

// =============================================================================
// DEBTS
// =============================================================================

func seedDebt(t *testing.T, store *sqlite.Store, id ledger.DebtID, txID ledger.TransactionID) *ledger.Debt {
	now := time.Now().UTC()
	debt := &ledger.Debt{
		ID:            id,
		TransactionID: txID,
		PersonName:    "sam",
		Direction:     ledger.DirectionIOwe,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, store.InsertDebt(context.Background(), debt))
	return debt
}

func TestInsertDebt_SecondForSameTransaction_Conflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "0")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t1", "a", "10")))
	seedDebt(t, store, "d1", "t1")

	err := store.InsertDebt(ctx, &ledger.Debt{
		ID:            "d2",
		TransactionID: "t1",
		PersonName:    "alex",
		Direction:     ledger.DirectionTheyOwe,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ledger.ErrDebtExists)
}

func TestMarkDebtSettled_OnlyFirstCallWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "0")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t1", "a", "10")))
	seedDebt(t, store, "d1", "t1")

	won, err := store.MarkDebtSettled(ctx, "d1", time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, won)

	again, err := store.MarkDebtSettled(ctx, "d1", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, again)
}

func TestListDebts_SettledFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "0")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t1", "a", "10")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t2", "a", "20")))
	seedDebt(t, store, "d1", "t1")
	seedDebt(t, store, "d2", "t2")

	_, err := store.MarkDebtSettled(ctx, "d1", time.Now().UTC())
	require.NoError(t, err)

	settled := true
	got, err := store.ListDebts(ctx, &settled)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ledger.DebtID("d1"), got[0].Debt.ID)
	assert.True(t, got[0].Transaction.Amount.Equal(d("10")))

	open := false
	got, err = store.ListDebts(ctx, &open)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ledger.DebtID("d2"), got[0].Debt.ID)
}

// =============================================================================
// ITEMS
// =============================================================================

func TestFindOrCreateItem_ReturnsExistingByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, created, err := store.FindOrCreateItem(ctx, "coffee", nil, "i1")
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := store.FindOrCreateItem(ctx, "Coffee", nil, "i2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestDeleteItem_Referenced_Conflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "0")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t1", "a", "10")))

	it, _, err := store.FindOrCreateItem(ctx, "coffee", nil, "i1")
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, store.InsertTransactionItem(ctx, &ledger.TransactionItem{
		ID: "li1", TransactionID: "t1", ItemID: it.ID,
		Amount: d("4"), Quantity: d("1"),
		CreatedAt: now, UpdatedAt: now,
	}))

	err = store.DeleteItem(ctx, it.ID)
	assert.ErrorIs(t, err, ledger.ErrItemInUse)
}

func TestSumTransactionItems_EmptyIsZero(t *testing.T) {
	store := newTestStore(t)

	sum, err := store.SumTransactionItems(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

// =============================================================================
// ANALYTICS
// =============================================================================

func TestSummarize_CompletedLiveOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "0")))

	// completed expense, completed income, pending expense, deleted income
	require.NoError(t, store.InsertTransaction(ctx, newTx("t1", "a", "40")))
	in := newTx("t2", "a", "100")
	in.Type = ledger.TypeIncome
	require.NoError(t, store.InsertTransaction(ctx, in))
	pend := newTx("t3", "a", "999")
	pend.Status = ledger.StatusPending
	require.NoError(t, store.InsertTransaction(ctx, pend))
	del := newTx("t4", "a", "888")
	del.Type = ledger.TypeIncome
	require.NoError(t, store.InsertTransaction(ctx, del))
	require.NoError(t, store.MarkTransactionDeleted(ctx, "t4"))

	from := time.Now().UTC().AddDate(0, 0, -1)
	to := time.Now().UTC().AddDate(0, 0, 1)
	s, err := store.Summarize(ctx, from, to, "")
	require.NoError(t, err)

	assert.Equal(t, 2, s.Count)
	assert.True(t, s.TotalExpense.Equal(d("40")))
	assert.True(t, s.TotalIncome.Equal(d("100")))
	assert.True(t, s.Net.Equal(d("60")))
}

func TestSummarize_AccountFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateAccount(ctx, newAccount("a", "500")))
	require.NoError(t, store.CreateAccount(ctx, newAccount("b", "90")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t1", "a", "40")))
	require.NoError(t, store.InsertTransaction(ctx, newTx("t2", "b", "7")))

	from := time.Now().UTC().AddDate(0, 0, -1)
	to := time.Now().UTC().AddDate(0, 0, 1)
	s, err := store.Summarize(ctx, from, to, "a")
	require.NoError(t, err)

	assert.Equal(t, 1, s.Count)
	assert.True(t, s.TotalExpense.Equal(d("40")))
	assert.True(t, s.TotalBalance.Equal(d("500")), "balance = %s", s.TotalBalance)
}

func TestPeriodWindow_CalendarAnchors(t *testing.T) {
	now := time.Date(2026, time.August, 30, 14, 45, 0, 0, time.UTC)

	from, err := sqlite.PeriodWindow("day", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC), from)

	from, err = sqlite.PeriodWindow("month", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), from)

	from, err = sqlite.PeriodWindow("year", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), from)

	_, err = sqlite.PeriodWindow("decade", now)
	assert.True(t, ledger.IsValidation(err))
}

// =============================================================================
// CATALOG
// =============================================================================

func newMerchant(id ledger.MerchantID, name string, count int) *ledger.Merchant {
	now := time.Now().UTC()
	return &ledger.Merchant{
		ID: id, Name: name, TransactionCount: count,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestCreateMerchant_DuplicateName_CaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateMerchant(ctx, newMerchant("m1", "Corner Shop", 0)))
	err := store.CreateMerchant(ctx, newMerchant("m2", "corner shop", 0))
	assert.ErrorIs(t, err, ledger.ErrDuplicateName)
}

func TestListMerchants_RegularFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateMerchant(ctx, newMerchant("m1", "daily", 5)))
	require.NoError(t, store.CreateMerchant(ctx, newMerchant("m2", "rare", 1)))

	all, err := store.ListMerchants(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	regulars, err := store.ListMerchants(ctx, true)
	require.NoError(t, err)
	require.Len(t, regulars, 1)
	assert.Equal(t, ledger.MerchantID("m1"), regulars[0].ID)
}

func TestListItems_SearchFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, _, err := store.FindOrCreateItem(ctx, "oat milk", nil, "i1")
	require.NoError(t, err)
	_, _, err = store.FindOrCreateItem(ctx, "bread", nil, "i2")
	require.NoError(t, err)

	hits, err := store.ListItems(ctx, "milk")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "oat milk", hits[0].Name)
}

// =============================================================================
// TRANSACTION SCOPE (sqlmock)
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := sqlite.NewWithDB(db)
	t.Cleanup(func() { store.Close() })

	boom := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").WillReturnError(boom)
	mock.ExpectRollback()

	err = store.WithTx(context.Background(), func(s ledger.Store) error {
		return s.InsertTransaction(context.Background(), newTx("t1", "a", "10"))
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccount_CorruptBalance_Errors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := sqlite.NewWithDB(db)
	t.Cleanup(func() { store.Close() })

	now := time.Now().UTC().Format(time.RFC3339Nano)
	mock.ExpectQuery("FROM accounts").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "type", "balance", "currency",
			"color", "is_active", "created_at", "updated_at"}).
			AddRow("a", "checking", "bank", "12.#4", "INR", "", true, now, now))

	_, err = store.GetAccount(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt decimal")
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := sqlite.NewWithDB(db)
	t.Cleanup(func() { store.Close() })

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = store.WithTx(context.Background(), func(s ledger.Store) error {
		return s.InsertTransaction(context.Background(), newTx("t1", "a", "10"))
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
