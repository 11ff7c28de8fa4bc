/*
Package sqlite provides the SQLite-backed implementation of the ledger
storage interfaces.

PURPOSE:
  Implements ledger.Store and ledger.TxStore plus the catalog and
  reporting queries the HTTP layer needs. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  ledger.AccountStore: Account rows and balance deltas
  ledger.Store:        Transactions, debts, line items, merchant counters
  ledger.TxStore:      One-database-transaction-per-operation scope

MONEY:
  Amounts and balances are stored as decimal strings (TEXT), never as
  REAL. All arithmetic happens in Go via shopspring/decimal; SQL never
  adds two money columns.

KEY TABLES:
  accounts:          Current balances (mutated only via ApplyDelta)
  transactions:      Soft-deleted financial events, (status, is_deleted)
  debts:             Deferral markers, UNIQUE(transaction_id)
  transaction_items: Line items, hard-deleted
  categories, merchants, items: The catalog

CONCURRENCY:
  Open with WAL for concurrent readers. A single writer mutex guards
  WithTx; the settle race is additionally closed at the SQL level by the
  conditional UPDATE in MarkDebtSettled.

USAGE:
  store, err := sqlite.New("./data/balanceflow.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := ledger.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - ledger/store.go: Interface definitions
  - catalog.go:      Accounts/categories/merchants/items CRUD
  - reports.go:      Read-side lists and analytics
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/balanceflow/balanceflow/ledger"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx, so every query method is
// written once and runs inside or outside a transaction scope.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every statement; it implements ledger.Store.
type queries struct {
	db dbtx
}

// Store implements ledger.TxStore plus the catalog and reporting surface.
type Store struct {
	queries
	sqldb *sql.DB
	mu    sync.Mutex
}

// New creates a SQLite store at the given path (":memory:" for tests)
// and migrates the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := NewWithDB(db)
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// NewWithDB wraps an existing connection without migrating. Used by tests
// that drive the store with a mocked *sql.DB.
func NewWithDB(db *sql.DB) *Store {
	return &Store{queries: queries{db: db}, sqldb: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sqldb.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT 'USD',
		color TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL COLLATE NOCASE,
		icon TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name ON categories(name);

	CREATE TABLE IF NOT EXISTS merchants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL COLLATE NOCASE,
		default_category_id TEXT REFERENCES categories(id),
		transaction_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_merchants_name ON merchants(name);

	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL COLLATE NOCASE,
		category_id TEXT REFERENCES categories(id),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_items_name ON items(name);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		amount TEXT NOT NULL,
		account_id TEXT NOT NULL REFERENCES accounts(id),
		to_account_id TEXT REFERENCES accounts(id),
		category_id TEXT REFERENCES categories(id),
		merchant_id TEXT REFERENCES merchants(id),
		note TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'completed',
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_account_date
		ON transactions(account_id, date DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_live
		ON transactions(is_deleted, date DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_category
		ON transactions(category_id) WHERE category_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_transactions_merchant
		ON transactions(merchant_id) WHERE merchant_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS transaction_items (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL REFERENCES transactions(id),
		item_id TEXT NOT NULL REFERENCES items(id),
		amount TEXT NOT NULL,
		quantity TEXT NOT NULL DEFAULT '1',
		remarks TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transaction_items_tx
		ON transaction_items(transaction_id);
	CREATE INDEX IF NOT EXISTS idx_transaction_items_item
		ON transaction_items(item_id);

	-- UNIQUE(transaction_id): at most one debt per transaction, enforced
	-- at the storage level so a race cannot sneak a second one in.
	CREATE TABLE IF NOT EXISTS debts (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL UNIQUE REFERENCES transactions(id),
		person_name TEXT NOT NULL,
		direction TEXT NOT NULL,
		settled_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_debts_unsettled
		ON debts(settled_at) WHERE settled_at IS NULL;
	`

	_, err := s.sqldb.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL SCOPE (ledger.TxStore)
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{db: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// ACCOUNTS (ledger.AccountStore)
// =============================================================================

func (q *queries) GetAccount(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, type, balance, currency, color, is_active, created_at, updated_at
		FROM accounts WHERE id = ?
	`, id)
	return scanAccount(row)
}

// ApplyDelta is read-modify-write in Go because balances are decimal
// strings. Callers mutating balances run inside WithTx, which serializes
// writers.
func (q *queries) ApplyDelta(ctx context.Context, id ledger.AccountID, delta decimal.Decimal) (*ledger.Account, error) {
	acct, err := q.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	acct.Balance = acct.Balance.Add(delta)
	acct.UpdatedAt = time.Now().UTC()

	_, err = q.db.ExecContext(ctx,
		"UPDATE accounts SET balance = ?, updated_at = ? WHERE id = ?",
		acct.Balance.String(), fmtTime(acct.UpdatedAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to apply balance delta: %w", err)
	}
	return acct, nil
}

func scanAccount(row *sql.Row) (*ledger.Account, error) {
	var (
		a                    ledger.Account
		balance              string
		createdAt, updatedAt string
	)
	err := row.Scan(&a.ID, &a.Name, &a.Type, &balance, &a.Currency, &a.Color,
		&a.IsActive, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	var cv rowConv
	a.Balance = cv.dec(balance)
	a.CreatedAt = cv.ts(createdAt)
	a.UpdatedAt = cv.ts(updatedAt)
	if cv.err != nil {
		return nil, cv.err
	}
	return &a, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

const transactionCols = `id, type, amount, account_id, to_account_id, category_id,
	merchant_id, note, date, status, is_deleted, created_at, updated_at`

func (q *queries) GetTransaction(ctx context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+transactionCols+" FROM transactions WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ledger.ErrTransactionNotFound
	}
	return scanTransaction(rows)
}

func (q *queries) InsertTransaction(ctx context.Context, t *ledger.Transaction) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.Type, t.Amount.String(), t.AccountID,
		nullID(t.ToAccountID), nullID(t.CategoryID), nullID(t.MerchantID),
		t.Note, fmtTime(t.Date), t.Status, t.IsDeleted,
		fmtTime(t.CreatedAt), fmtTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (q *queries) UpdateTransactionMeta(ctx context.Context, t *ledger.Transaction) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, merchant_id = ?, note = ?, date = ?, updated_at = ?
		WHERE id = ?
	`,
		nullID(t.CategoryID), nullID(t.MerchantID), t.Note,
		fmtTime(t.Date), fmtTime(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return requireRow(res, ledger.ErrTransactionNotFound)
}

func (q *queries) MarkTransactionDeleted(ctx context.Context, id ledger.TransactionID) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE transactions SET is_deleted = 1, updated_at = ? WHERE id = ?",
		fmtTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark transaction deleted: %w", err)
	}
	return requireRow(res, ledger.ErrTransactionNotFound)
}

func (q *queries) CompleteTransaction(ctx context.Context, id ledger.TransactionID) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE transactions SET status = ?, updated_at = ? WHERE id = ?",
		ledger.StatusCompleted, fmtTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete transaction: %w", err)
	}
	return requireRow(res, ledger.ErrTransactionNotFound)
}

func (q *queries) SetTransactionAmount(ctx context.Context, id ledger.TransactionID, amount decimal.Decimal) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE transactions SET amount = ?, updated_at = ? WHERE id = ?",
		amount.String(), fmtTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set transaction amount: %w", err)
	}
	return requireRow(res, ledger.ErrTransactionNotFound)
}

func scanTransaction(rows *sql.Rows) (*ledger.Transaction, error) {
	var (
		t                          ledger.Transaction
		amount                     string
		toAccount, category, merch sql.NullString
		date, createdAt, updatedAt string
	)
	err := rows.Scan(&t.ID, &t.Type, &amount, &t.AccountID, &toAccount,
		&category, &merch, &t.Note, &date, &t.Status, &t.IsDeleted,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	var cv rowConv
	t.Amount = cv.dec(amount)
	if toAccount.Valid {
		id := ledger.AccountID(toAccount.String)
		t.ToAccountID = &id
	}
	if category.Valid {
		id := ledger.CategoryID(category.String)
		t.CategoryID = &id
	}
	if merch.Valid {
		id := ledger.MerchantID(merch.String)
		t.MerchantID = &id
	}
	t.Date = cv.ts(date)
	t.CreatedAt = cv.ts(createdAt)
	t.UpdatedAt = cv.ts(updatedAt)
	if cv.err != nil {
		return nil, cv.err
	}
	return &t, nil
}

// =============================================================================
// DEBTS
// =============================================================================

const debtCols = `id, transaction_id, person_name, direction, settled_at, created_at, updated_at`

func (q *queries) GetDebt(ctx context.Context, id ledger.DebtID) (*ledger.Debt, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+debtCols+" FROM debts WHERE id = ?", id)
	return scanDebt(row)
}

func (q *queries) GetDebtByTransaction(ctx context.Context, txID ledger.TransactionID) (*ledger.Debt, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+debtCols+" FROM debts WHERE transaction_id = ?", txID)
	return scanDebt(row)
}

func (q *queries) InsertDebt(ctx context.Context, d *ledger.Debt) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO debts (`+debtCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		d.ID, d.TransactionID, d.PersonName, d.Direction,
		nullTime(d.SettledAt), fmtTime(d.CreatedAt), fmtTime(d.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDebtExists
		}
		return fmt.Errorf("failed to insert debt: %w", err)
	}
	return nil
}

// MarkDebtSettled is the settle-if-unsettled conditional write. Rows
// affected tells the caller whether it won the transition.
func (q *queries) MarkDebtSettled(ctx context.Context, id ledger.DebtID, at time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE debts SET settled_at = ?, updated_at = ?
		WHERE id = ? AND settled_at IS NULL
	`, fmtTime(at), fmtTime(at), id)
	if err != nil {
		return false, fmt.Errorf("failed to settle debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (q *queries) DeleteDebt(ctx context.Context, id ledger.DebtID) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM debts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	return requireRow(res, ledger.ErrDebtNotFound)
}

func scanDebt(row *sql.Row) (*ledger.Debt, error) {
	var (
		d                    ledger.Debt
		settledAt            sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&d.ID, &d.TransactionID, &d.PersonName, &d.Direction,
		&settledAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrDebtNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan debt: %w", err)
	}
	var cv rowConv
	if settledAt.Valid {
		t := cv.ts(settledAt.String)
		d.SettledAt = &t
	}
	d.CreatedAt = cv.ts(createdAt)
	d.UpdatedAt = cv.ts(updatedAt)
	if cv.err != nil {
		return nil, cv.err
	}
	return &d, nil
}

// =============================================================================
// TRANSACTION ITEMS
// =============================================================================

const lineItemCols = `id, transaction_id, item_id, amount, quantity, remarks, created_at, updated_at`

func (q *queries) GetTransactionItem(ctx context.Context, id ledger.TransactionItemID) (*ledger.TransactionItem, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT "+lineItemCols+" FROM transaction_items WHERE id = ?", id)

	var (
		li                   ledger.TransactionItem
		amount, quantity     string
		createdAt, updatedAt string
	)
	err := row.Scan(&li.ID, &li.TransactionID, &li.ItemID, &amount, &quantity,
		&li.Remarks, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrTransactionItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction item: %w", err)
	}
	var cv rowConv
	li.Amount = cv.dec(amount)
	li.Quantity = cv.dec(quantity)
	li.CreatedAt = cv.ts(createdAt)
	li.UpdatedAt = cv.ts(updatedAt)
	if cv.err != nil {
		return nil, cv.err
	}
	return &li, nil
}

func (q *queries) InsertTransactionItem(ctx context.Context, li *ledger.TransactionItem) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO transaction_items (`+lineItemCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		li.ID, li.TransactionID, li.ItemID, li.Amount.String(),
		li.Quantity.String(), li.Remarks, fmtTime(li.CreatedAt), fmtTime(li.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction item: %w", err)
	}
	return nil
}

func (q *queries) UpdateTransactionItem(ctx context.Context, li *ledger.TransactionItem) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transaction_items
		SET amount = ?, quantity = ?, remarks = ?, updated_at = ?
		WHERE id = ?
	`,
		li.Amount.String(), li.Quantity.String(), li.Remarks,
		fmtTime(li.UpdatedAt), li.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction item: %w", err)
	}
	return requireRow(res, ledger.ErrTransactionItemNotFound)
}

func (q *queries) DeleteTransactionItem(ctx context.Context, id ledger.TransactionItemID) error {
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM transaction_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction item: %w", err)
	}
	return requireRow(res, ledger.ErrTransactionItemNotFound)
}

// SumTransactionItems totals amount × quantity in Go; SQLite arithmetic
// on the TEXT money columns would silently go through floats.
func (q *queries) SumTransactionItems(ctx context.Context, txID ledger.TransactionID) (decimal.Decimal, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT amount, quantity FROM transaction_items WHERE transaction_id = ?", txID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query transaction items: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var amount, quantity string
		if err := rows.Scan(&amount, &quantity); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan transaction item: %w", err)
		}
		var cv rowConv
		sum = sum.Add(cv.dec(amount).Mul(cv.dec(quantity)))
		if cv.err != nil {
			return decimal.Zero, cv.err
		}
	}
	return sum, rows.Err()
}

// =============================================================================
// REFERENCE-DATA HOOKS (ledger.Store)
// =============================================================================

func (q *queries) GetItem(ctx context.Context, id ledger.ItemID) (*ledger.Item, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT id, name, category_id, created_at, updated_at FROM items WHERE id = ?", id)
	return scanItem(row)
}

func (q *queries) AdjustMerchantCount(ctx context.Context, id ledger.MerchantID, delta int) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE merchants
		SET transaction_count = MAX(0, transaction_count + ?), updated_at = ?
		WHERE id = ?
	`, delta, fmtTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("failed to adjust merchant count: %w", err)
	}
	return requireRow(res, ledger.ErrMerchantNotFound)
}

func scanItem(row *sql.Row) (*ledger.Item, error) {
	var (
		it                   ledger.Item
		category             sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&it.ID, &it.Name, &category, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	if category.Valid {
		id := ledger.CategoryID(category.String)
		it.CategoryID = &id
	}
	var cv rowConv
	it.CreatedAt = cv.ts(createdAt)
	it.UpdatedAt = cv.ts(updatedAt)
	if cv.err != nil {
		return nil, cv.err
	}
	return &it, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// rowConv converts TEXT cells scanned from a row, capturing the first
// corruption instead of zeroing the value silently.
type rowConv struct{ err error }

func (cv *rowConv) dec(s string) decimal.Decimal {
	if cv.err != nil {
		return decimal.Decimal{}
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		cv.err = fmt.Errorf("corrupt decimal %q: %w", s, err)
	}
	return v
}

func (cv *rowConv) ts(s string) time.Time {
	if cv.err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		cv.err = fmt.Errorf("corrupt timestamp %q: %w", s, err)
		return time.Time{}
	}
	return t.UTC()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

// nullID converts a typed-ID pointer to a driver value.
func nullID[T ~string](id *T) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
