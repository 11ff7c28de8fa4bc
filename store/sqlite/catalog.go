/*
catalog.go - Reference-data CRUD: accounts, categories, merchants, items

PURPOSE:
  Everything the HTTP layer needs to manage the catalog around the
  ledger core. Accounts are deactivated, never deleted, so historical
  transactions keep a valid reference. Items carry a delete guard:
  an item referenced by any line item cannot be removed.

SEE ALSO:
  - sqlite.go:  core store, schema, helpers
  - reports.go: read-side lists and analytics
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/balanceflow/balanceflow/ledger"
)

// =============================================================================
// ACCOUNTS
// =============================================================================

// ListAccounts returns accounts ordered by creation time. Inactive
// accounts are included only when requested.
func (q *queries) ListAccounts(ctx context.Context, includeInactive bool) ([]*ledger.Account, error) {
	query := `
		SELECT id, name, type, balance, currency, color, is_active, created_at, updated_at
		FROM accounts
	`
	if !includeInactive {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY created_at ASC"

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*ledger.Account
	for rows.Next() {
		var (
			a                    ledger.Account
			balance              string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &balance, &a.Currency,
			&a.Color, &a.IsActive, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		var cv rowConv
		a.Balance = cv.dec(balance)
		a.CreatedAt = cv.ts(createdAt)
		a.UpdatedAt = cv.ts(updatedAt)
		if cv.err != nil {
			return nil, cv.err
		}
		accounts = append(accounts, &a)
	}
	return accounts, rows.Err()
}

func (q *queries) CreateAccount(ctx context.Context, a *ledger.Account) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, type, balance, currency, color, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.Name, a.Type, a.Balance.String(), a.Currency, a.Color,
		a.IsActive, fmtTime(a.CreatedAt), fmtTime(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// UpdateAccount persists name, type, currency and color. Balance changes
// only through ApplyDelta.
func (q *queries) UpdateAccount(ctx context.Context, a *ledger.Account) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, type = ?, currency = ?, color = ?, updated_at = ?
		WHERE id = ?
	`, a.Name, a.Type, a.Currency, a.Color, fmtTime(a.UpdatedAt), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return requireRow(res, ledger.ErrAccountNotFound)
}

// DeactivateAccount soft-removes an account. Its balance and history
// stay intact; it simply stops appearing in listings and stops accepting
// new transactions.
func (q *queries) DeactivateAccount(ctx context.Context, id ledger.AccountID) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE accounts SET is_active = 0, updated_at = ? WHERE id = ?",
		fmtTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}
	return requireRow(res, ledger.ErrAccountNotFound)
}

// =============================================================================
// CATEGORIES
// =============================================================================

const categoryCols = `id, name, icon, color, type, created_at, updated_at`

// ListCategories returns categories, optionally filtered by type.
// A filter value of expense or income also matches type "both".
func (q *queries) ListCategories(ctx context.Context, typ ledger.CategoryType) ([]*ledger.Category, error) {
	query := "SELECT " + categoryCols + " FROM categories"
	var args []any
	if typ != "" {
		query += " WHERE type = ? OR type = 'both'"
		args = append(args, typ)
	}
	query += " ORDER BY name ASC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*ledger.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (q *queries) GetCategory(ctx context.Context, id ledger.CategoryID) (*ledger.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+categoryCols+" FROM categories WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ledger.ErrCategoryNotFound
	}
	return scanCategory(rows)
}

func (q *queries) CreateCategory(ctx context.Context, c *ledger.Category) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (`+categoryCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Icon, c.Color, c.Type, fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt))
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateName
		}
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

func (q *queries) UpdateCategory(ctx context.Context, c *ledger.Category) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, icon = ?, color = ?, type = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.Icon, c.Color, c.Type, fmtTime(c.UpdatedAt), c.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateName
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return requireRow(res, ledger.ErrCategoryNotFound)
}

func (q *queries) DeleteCategory(ctx context.Context, id ledger.CategoryID) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireRow(res, ledger.ErrCategoryNotFound)
}

func scanCategory(rows *sql.Rows) (*ledger.Category, error) {
	var (
		c                    ledger.Category
		createdAt, updatedAt string
	)
	if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Type,
		&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	var cv rowConv
	c.CreatedAt = cv.ts(createdAt)
	c.UpdatedAt = cv.ts(updatedAt)
	if cv.err != nil {
		return nil, cv.err
	}
	return &c, nil
}

// =============================================================================
// MERCHANTS
// =============================================================================

const merchantCols = `id, name, default_category_id, transaction_count, created_at, updated_at`

// regularMerchantThreshold is the completed-transaction count at which a
// merchant counts as a regular.
const regularMerchantThreshold = 3

// ListMerchants returns merchants, most-used first. With regularOnly it
// keeps only merchants at or above the regular threshold.
func (q *queries) ListMerchants(ctx context.Context, regularOnly bool) ([]*ledger.Merchant, error) {
	query := "SELECT " + merchantCols + " FROM merchants"
	var args []any
	if regularOnly {
		query += " WHERE transaction_count >= ?"
		args = append(args, regularMerchantThreshold)
	}
	query += " ORDER BY transaction_count DESC, name ASC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchants: %w", err)
	}
	defer rows.Close()

	var merchants []*ledger.Merchant
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}
	return merchants, rows.Err()
}

func (q *queries) GetMerchant(ctx context.Context, id ledger.MerchantID) (*ledger.Merchant, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+merchantCols+" FROM merchants WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ledger.ErrMerchantNotFound
	}
	return scanMerchant(rows)
}

func (q *queries) CreateMerchant(ctx context.Context, m *ledger.Merchant) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO merchants (`+merchantCols+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		m.ID, m.Name, nullID(m.DefaultCategoryID), m.TransactionCount,
		fmtTime(m.CreatedAt), fmtTime(m.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateName
		}
		return fmt.Errorf("failed to insert merchant: %w", err)
	}
	return nil
}

func (q *queries) UpdateMerchant(ctx context.Context, m *ledger.Merchant) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE merchants SET name = ?, default_category_id = ?, updated_at = ?
		WHERE id = ?
	`, m.Name, nullID(m.DefaultCategoryID), fmtTime(m.UpdatedAt), m.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateName
		}
		return fmt.Errorf("failed to update merchant: %w", err)
	}
	return requireRow(res, ledger.ErrMerchantNotFound)
}

func (q *queries) DeleteMerchant(ctx context.Context, id ledger.MerchantID) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM merchants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete merchant: %w", err)
	}
	return requireRow(res, ledger.ErrMerchantNotFound)
}

func scanMerchant(rows *sql.Rows) (*ledger.Merchant, error) {
	var (
		m                    ledger.Merchant
		category             sql.NullString
		createdAt, updatedAt string
	)
	if err := rows.Scan(&m.ID, &m.Name, &category, &m.TransactionCount,
		&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan merchant: %w", err)
	}
	if category.Valid {
		id := ledger.CategoryID(category.String)
		m.DefaultCategoryID = &id
	}
	var cv rowConv
	m.CreatedAt = cv.ts(createdAt)
	m.UpdatedAt = cv.ts(updatedAt)
	if cv.err != nil {
		return nil, cv.err
	}
	return &m, nil
}

// =============================================================================
// ITEMS
// =============================================================================

// ItemUsage is an item plus its usage rollup across all line items.
type ItemUsage struct {
	ledger.Item
	TimesUsed  int
	TotalSpent decimal.Decimal
	LastUsedAt *time.Time
}

// ListItems returns the catalog with usage rollups, alphabetical. A
// non-empty search narrows by name substring.
func (q *queries) ListItems(ctx context.Context, search string) ([]*ItemUsage, error) {
	query := `
		SELECT i.id, i.name, i.category_id, i.created_at, i.updated_at,
		       ti.amount, ti.quantity, ti.created_at
		FROM items i
		LEFT JOIN transaction_items ti ON ti.item_id = i.id`
	var args []any
	if search != "" {
		query += " WHERE i.name LIKE '%' || ? || '%'"
		args = append(args, search)
	}
	query += " ORDER BY i.name ASC, ti.created_at ASC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var (
		result  []*ItemUsage
		current *ItemUsage
	)
	totals := map[ledger.ItemID]*ItemUsage{}

	for rows.Next() {
		var (
			it                   ledger.Item
			category             sql.NullString
			createdAt, updatedAt string
			amount, quantity     sql.NullString
			usedAt               sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.Name, &category, &createdAt, &updatedAt,
			&amount, &quantity, &usedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		current = totals[it.ID]
		if current == nil {
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
			current = &ItemUsage{Item: it, TotalSpent: decimal.Zero}
			totals[it.ID] = current
			result = append(result, current)
		}

		if amount.Valid && quantity.Valid {
			var cv rowConv
			current.TimesUsed++
			current.TotalSpent = current.TotalSpent.
				Add(cv.dec(amount.String).Mul(cv.dec(quantity.String)))
			if usedAt.Valid {
				t := cv.ts(usedAt.String)
				current.LastUsedAt = &t
			}
			if cv.err != nil {
				return nil, cv.err
			}
		}
	}
	return result, rows.Err()
}

// FindOrCreateItem returns the item with the given name, creating it on
// first use. Names are unique in the catalog, case-insensitively. The
// bool reports whether a new row was created.
func (q *queries) FindOrCreateItem(ctx context.Context, name string, categoryID *ledger.CategoryID, newID ledger.ItemID) (*ledger.Item, bool, error) {
	row := q.db.QueryRowContext(ctx,
		"SELECT id, name, category_id, created_at, updated_at FROM items WHERE name = ?", name)
	it, err := scanItem(row)
	if err == nil {
		return it, false, nil
	}
	if err != ledger.ErrItemNotFound {
		return nil, false, err
	}

	now := time.Now().UTC()
	it = &ledger.Item{
		ID:         newID,
		Name:       name,
		CategoryID: categoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO items (id, name, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, it.ID, it.Name, nullID(it.CategoryID), fmtTime(now), fmtTime(now))
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert item: %w", err)
	}
	return it, true, nil
}

func (q *queries) UpdateItem(ctx context.Context, it *ledger.Item) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE items SET name = ?, category_id = ?, updated_at = ?
		WHERE id = ?
	`, it.Name, nullID(it.CategoryID), fmtTime(it.UpdatedAt), it.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateName
		}
		return fmt.Errorf("failed to update item: %w", err)
	}
	return requireRow(res, ledger.ErrItemNotFound)
}

// DeleteItem refuses to remove an item that any line item references.
func (q *queries) DeleteItem(ctx context.Context, id ledger.ItemID) error {
	var refs int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transaction_items WHERE item_id = ?", id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to count item references: %w", err)
	}
	if refs > 0 {
		return ledger.ErrItemInUse
	}

	res, err := q.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return requireRow(res, ledger.ErrItemNotFound)
}
