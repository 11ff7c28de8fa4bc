/*
reports.go - Read-side queries: transaction lists, debt lists, analytics

PURPOSE:
  Everything the HTTP layer reads but never writes. All lists exclude
  soft-deleted transactions; analytics additionally count only completed
  expense/income rows, so pending (deferred) money and transfers never
  show up in spending totals.

MONEY:
  Totals are accumulated in Go with decimal; GROUP BY ... SUM(amount)
  over the TEXT money columns would go through floats.

SEE ALSO:
  - sqlite.go:  core store, schema, helpers
  - catalog.go: reference-data CRUD
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/balanceflow/balanceflow/ledger"
)

// =============================================================================
// TRANSACTION LISTS
// =============================================================================

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// TransactionFilter narrows ListTransactions. Zero values mean "any".
type TransactionFilter struct {
	AccountID  ledger.AccountID
	Type       ledger.TransactionType
	Status     ledger.TransactionStatus
	CategoryID ledger.CategoryID
	MerchantID ledger.MerchantID
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// ListTransactions returns live (non-deleted) transactions, newest first.
// Limit is clamped to [1, 100], defaulting to 50.
func (q *queries) ListTransactions(ctx context.Context, f TransactionFilter) ([]*ledger.Transaction, error) {
	query := "SELECT " + transactionCols + " FROM transactions WHERE is_deleted = 0"
	var args []any

	if f.AccountID != "" {
		query += " AND (account_id = ? OR to_account_id = ?)"
		args = append(args, f.AccountID, f.AccountID)
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.CategoryID != "" {
		query += " AND category_id = ?"
		args = append(args, f.CategoryID)
	}
	if f.MerchantID != "" {
		query += " AND merchant_id = ?"
		args = append(args, f.MerchantID)
	}
	if f.From != nil {
		query += " AND date >= ?"
		args = append(args, fmtTime(*f.From))
	}
	if f.To != nil {
		query += " AND date <= ?"
		args = append(args, fmtTime(*f.To))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	query += " ORDER BY date DESC, created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []*ledger.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// ListTransactionItems returns a transaction's line items, oldest first.
func (q *queries) ListTransactionItems(ctx context.Context, txID ledger.TransactionID) ([]*ledger.TransactionItem, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+lineItemCols+" FROM transaction_items WHERE transaction_id = ? ORDER BY created_at ASC",
		txID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction items: %w", err)
	}
	defer rows.Close()

	var items []*ledger.TransactionItem
	for rows.Next() {
		var (
			li                   ledger.TransactionItem
			amount, quantity     string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&li.ID, &li.TransactionID, &li.ItemID, &amount,
			&quantity, &li.Remarks, &createdAt, &updatedAt); err != nil {
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
		items = append(items, &li)
	}
	return items, rows.Err()
}

// =============================================================================
// DEBT LISTS
// =============================================================================

// DebtRecord is a debt joined with its linked transaction.
type DebtRecord struct {
	ledger.Debt
	Transaction ledger.Transaction
}

// ListDebts returns debts with their transactions, newest first.
// settled == nil returns everything.
func (q *queries) ListDebts(ctx context.Context, settled *bool) ([]*DebtRecord, error) {
	query := `
		SELECT d.id, d.transaction_id, d.person_name, d.direction, d.settled_at,
		       d.created_at, d.updated_at,
		       t.id, t.type, t.amount, t.account_id, t.to_account_id, t.category_id,
		       t.merchant_id, t.note, t.date, t.status, t.is_deleted, t.created_at, t.updated_at
		FROM debts d
		JOIN transactions t ON t.id = d.transaction_id
	`
	if settled != nil {
		if *settled {
			query += " WHERE d.settled_at IS NOT NULL"
		} else {
			query += " WHERE d.settled_at IS NULL"
		}
	}
	query += " ORDER BY d.created_at DESC"

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query debts: %w", err)
	}
	defer rows.Close()

	var debts []*DebtRecord
	for rows.Next() {
		var (
			r                              DebtRecord
			settledAt                      sql.NullString
			dCreated, dUpdated             string
			amount                         string
			toAccount, category, merch     sql.NullString
			date, tCreated, tUpdated       string
		)
		if err := rows.Scan(
			&r.Debt.ID, &r.Debt.TransactionID, &r.PersonName, &r.Direction,
			&settledAt, &dCreated, &dUpdated,
			&r.Transaction.ID, &r.Transaction.Type, &amount, &r.Transaction.AccountID,
			&toAccount, &category, &merch, &r.Transaction.Note, &date,
			&r.Transaction.Status, &r.Transaction.IsDeleted, &tCreated, &tUpdated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		var cv rowConv
		if settledAt.Valid {
			t := cv.ts(settledAt.String)
			r.SettledAt = &t
		}
		r.Debt.CreatedAt = cv.ts(dCreated)
		r.Debt.UpdatedAt = cv.ts(dUpdated)
		r.Transaction.Amount = cv.dec(amount)
		if toAccount.Valid {
			id := ledger.AccountID(toAccount.String)
			r.Transaction.ToAccountID = &id
		}
		if category.Valid {
			id := ledger.CategoryID(category.String)
			r.Transaction.CategoryID = &id
		}
		if merch.Valid {
			id := ledger.MerchantID(merch.String)
			r.Transaction.MerchantID = &id
		}
		r.Transaction.Date = cv.ts(date)
		r.Transaction.CreatedAt = cv.ts(tCreated)
		r.Transaction.UpdatedAt = cv.ts(tUpdated)
		if cv.err != nil {
			return nil, cv.err
		}
		debts = append(debts, &r)
	}
	return debts, rows.Err()
}

// =============================================================================
// ANALYTICS
// =============================================================================

// PeriodWindow maps a named reporting period onto its start time:
//
//	day   → midnight today
//	week  → seven days ago
//	month → the 1st of this month
//	year  → January 1st
func PeriodWindow(period string, now time.Time) (time.Time, error) {
	switch period {
	case "day":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case "year":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, &ledger.ValidationError{Field: "period", Message: "must be day, week, month or year"}
	}
}

// accountClause appends an account_id restriction when the filter is set.
func accountClause(query string, args []any, accountID ledger.AccountID) (string, []any) {
	if accountID == "" {
		return query, args
	}
	return query + " AND account_id = ?", append(args, accountID)
}

// Summary totals completed, live expense/income over a window, plus the
// current balance across active accounts.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Net          decimal.Decimal
	TotalBalance decimal.Decimal
	Count        int
}

func (q *queries) Summarize(ctx context.Context, from, to time.Time, accountID ledger.AccountID) (*Summary, error) {
	query := `
		SELECT type, amount FROM transactions
		WHERE is_deleted = 0 AND status = 'completed'
		  AND type IN ('expense', 'income')
		  AND date >= ? AND date <= ?`
	args := []any{fmtTime(from), fmtTime(to)}
	query, args = accountClause(query, args, accountID)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	defer rows.Close()

	s := &Summary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for rows.Next() {
		var typ, amount string
		if err := rows.Scan(&typ, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		var cv rowConv
		s.Count++
		if typ == string(ledger.TypeIncome) {
			s.TotalIncome = s.TotalIncome.Add(cv.dec(amount))
		} else {
			s.TotalExpense = s.TotalExpense.Add(cv.dec(amount))
		}
		if cv.err != nil {
			return nil, cv.err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpense)

	balanceQuery := "SELECT balance FROM accounts WHERE is_active = 1"
	var balanceArgs []any
	if accountID != "" {
		balanceQuery += " AND id = ?"
		balanceArgs = append(balanceArgs, accountID)
	}
	balances, err := q.db.QueryContext(ctx, balanceQuery, balanceArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer balances.Close()

	s.TotalBalance = decimal.Zero
	for balances.Next() {
		var b string
		if err := balances.Scan(&b); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		var cv rowConv
		s.TotalBalance = s.TotalBalance.Add(cv.dec(b))
		if cv.err != nil {
			return nil, cv.err
		}
	}
	return s, balances.Err()
}

// CategoryTotal is per-category spending over a window. Percent is the
// integer share of the window's total categorized spend.
type CategoryTotal struct {
	CategoryID ledger.CategoryID
	Name       string
	Icon       string
	Color      string
	Count      int
	Total      decimal.Decimal
	Percent    int
}

// SpendingByCategory totals completed live expenses per category,
// biggest first. Uncategorized expenses are skipped.
func (q *queries) SpendingByCategory(ctx context.Context, from, to time.Time, accountID ledger.AccountID) ([]*CategoryTotal, error) {
	query := `
		SELECT c.id, c.name, c.icon, c.color, t.amount
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.is_deleted = 0 AND t.status = 'completed' AND t.type = 'expense'
		  AND t.date >= ? AND t.date <= ?`
	args := []any{fmtTime(from), fmtTime(to)}
	query, args = accountClause(query, args, accountID)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query category spending: %w", err)
	}
	defer rows.Close()

	byID := map[ledger.CategoryID]*CategoryTotal{}
	var result []*CategoryTotal
	for rows.Next() {
		var (
			id                string
			name, icon, color string
			amount            string
		)
		if err := rows.Scan(&id, &name, &icon, &color, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan category spending: %w", err)
		}
		ct := byID[ledger.CategoryID(id)]
		if ct == nil {
			ct = &CategoryTotal{
				CategoryID: ledger.CategoryID(id),
				Name:       name,
				Icon:       icon,
				Color:      color,
				Total:      decimal.Zero,
			}
			byID[ct.CategoryID] = ct
			result = append(result, ct)
		}
		var cv rowConv
		ct.Count++
		ct.Total = ct.Total.Add(cv.dec(amount))
		if cv.err != nil {
			return nil, cv.err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Total.GreaterThan(result[j].Total)
	})

	grand := decimal.Zero
	for _, ct := range result {
		grand = grand.Add(ct.Total)
	}
	if grand.IsPositive() {
		for _, ct := range result {
			ct.Percent = int(ct.Total.Mul(decimal.NewFromInt(100)).Div(grand).Round(0).IntPart())
		}
	}
	return result, nil
}

// MerchantTotal is per-merchant spending over a window.
type MerchantTotal struct {
	MerchantID ledger.MerchantID
	Name       string
	Count      int
	Total      decimal.Decimal
}

// topMerchants caps the by-merchant breakdown.
const topMerchants = 10

// SpendingByMerchant totals completed live expenses per merchant,
// biggest first, capped at topMerchants.
func (q *queries) SpendingByMerchant(ctx context.Context, from, to time.Time, accountID ledger.AccountID) ([]*MerchantTotal, error) {
	query := `
		SELECT m.id, m.name, t.amount
		FROM transactions t
		JOIN merchants m ON m.id = t.merchant_id
		WHERE t.is_deleted = 0 AND t.status = 'completed' AND t.type = 'expense'
		  AND t.date >= ? AND t.date <= ?`
	args := []any{fmtTime(from), fmtTime(to)}
	query, args = accountClause(query, args, accountID)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant spending: %w", err)
	}
	defer rows.Close()

	byID := map[ledger.MerchantID]*MerchantTotal{}
	var result []*MerchantTotal
	for rows.Next() {
		var id, name, amount string
		if err := rows.Scan(&id, &name, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan merchant spending: %w", err)
		}
		mt := byID[ledger.MerchantID(id)]
		if mt == nil {
			mt = &MerchantTotal{MerchantID: ledger.MerchantID(id), Name: name, Total: decimal.Zero}
			byID[mt.MerchantID] = mt
			result = append(result, mt)
		}
		var cv rowConv
		mt.Count++
		mt.Total = mt.Total.Add(cv.dec(amount))
		if cv.err != nil {
			return nil, cv.err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Total.GreaterThan(result[j].Total)
	})
	if len(result) > topMerchants {
		result = result[:topMerchants]
	}
	return result, nil
}

// TrendPoint is one time bucket of income vs expense.
type TrendPoint struct {
	Bucket  string
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// Trends buckets completed live expense/income over a window:
//
//	day   → since midnight today, hourly buckets
//	week  → last 7 days, daily buckets
//	month → since the 1st of this month, daily buckets
//	year  → since January 1st, monthly buckets
func (q *queries) Trends(ctx context.Context, period string, accountID ledger.AccountID) ([]*TrendPoint, error) {
	now := time.Now().UTC()
	from, err := PeriodWindow(period, now)
	if err != nil {
		return nil, err
	}

	var layout string
	switch period {
	case "day":
		layout = "2006-01-02 15:00"
	case "year":
		layout = "2006-01"
	default:
		layout = "2006-01-02"
	}

	query := `
		SELECT date, type, amount FROM transactions
		WHERE is_deleted = 0 AND status = 'completed'
		  AND type IN ('expense', 'income')
		  AND date >= ? AND date <= ?`
	args := []any{fmtTime(from), fmtTime(now)}
	query, args = accountClause(query, args, accountID)
	query += " ORDER BY date ASC"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trends: %w", err)
	}
	defer rows.Close()

	byBucket := map[string]*TrendPoint{}
	var result []*TrendPoint
	for rows.Next() {
		var date, typ, amount string
		if err := rows.Scan(&date, &typ, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan trend row: %w", err)
		}
		var cv rowConv
		bucket := cv.ts(date).Format(layout)
		tp := byBucket[bucket]
		if tp == nil {
			tp = &TrendPoint{Bucket: bucket, Income: decimal.Zero, Expense: decimal.Zero}
			byBucket[bucket] = tp
			result = append(result, tp)
		}
		if typ == string(ledger.TypeIncome) {
			tp.Income = tp.Income.Add(cv.dec(amount))
		} else {
			tp.Expense = tp.Expense.Add(cv.dec(amount))
		}
		if cv.err != nil {
			return nil, cv.err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, tp := range result {
		tp.Net = tp.Income.Sub(tp.Expense)
	}
	return result, nil
}
