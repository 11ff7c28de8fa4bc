/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  All money fields are decimal.Decimal, which marshals as a quoted
  decimal string ("123.45"). Clients never see binary floats.

VALIDATION:
  Validation is done in handlers and the ledger engine, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: The domain model behind them
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/balanceflow/balanceflow/ledger"
	"github.com/balanceflow/balanceflow/store/sqlite"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// ACCOUNTS
// =============================================================================

type AccountDTO struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	Color     string          `json:"color,omitempty"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type AccountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Balance  string `json:"balance,omitempty"` // initial balance, create only
	Currency string `json:"currency,omitempty"`
	Color    string `json:"color,omitempty"`
}

// UpdateAccountRequest deliberately has no balance field: balances move
// only through transaction effects.
type UpdateAccountRequest struct {
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Currency string `json:"currency,omitempty"`
	Color    string `json:"color,omitempty"`
}

func toAccountDTO(a *ledger.Account) AccountDTO {
	return AccountDTO{
		ID:        string(a.ID),
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   a.Balance,
		Currency:  a.Currency,
		Color:     a.Color,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

type TransactionDTO struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	AccountID   string          `json:"account_id"`
	ToAccountID *string         `json:"to_account_id,omitempty"`
	CategoryID  *string         `json:"category_id,omitempty"`
	MerchantID  *string         `json:"merchant_id,omitempty"`
	Note        string          `json:"note,omitempty"`
	Date        time.Time       `json:"date"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CreateTransactionRequest struct {
	Type        string  `json:"type"`
	Amount      string  `json:"amount"`
	AccountID   string  `json:"account_id"`
	ToAccountID *string `json:"to_account_id,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
	MerchantID  *string `json:"merchant_id,omitempty"`
	Note        string  `json:"note,omitempty"`
	Date        string  `json:"date,omitempty"` // RFC 3339
	Status      string  `json:"status,omitempty"`
}

type UpdateTransactionRequest struct {
	CategoryID *string `json:"category_id,omitempty"`
	MerchantID *string `json:"merchant_id,omitempty"`
	Note       *string `json:"note,omitempty"`
	Date       *string `json:"date,omitempty"` // RFC 3339
}

func toTransactionDTO(t *ledger.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:        string(t.ID),
		Type:      string(t.Type),
		Amount:    t.Amount,
		AccountID: string(t.AccountID),
		Note:      t.Note,
		Date:      t.Date,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.ToAccountID != nil {
		s := string(*t.ToAccountID)
		dto.ToAccountID = &s
	}
	if t.CategoryID != nil {
		s := string(*t.CategoryID)
		dto.CategoryID = &s
	}
	if t.MerchantID != nil {
		s := string(*t.MerchantID)
		dto.MerchantID = &s
	}
	return dto
}

// =============================================================================
// LINE ITEMS
// =============================================================================

type TransactionItemDTO struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	ItemID        string          `json:"item_id"`
	Amount        decimal.Decimal `json:"amount"`
	Quantity      decimal.Decimal `json:"quantity"`
	Total         decimal.Decimal `json:"total"`
	Remarks       string          `json:"remarks,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type AddTransactionItemRequest struct {
	ItemID   string `json:"item_id"`
	Amount   string `json:"amount"`
	Quantity string `json:"quantity,omitempty"`
	Remarks  string `json:"remarks,omitempty"`
}

type UpdateTransactionItemRequest struct {
	Amount   *string `json:"amount,omitempty"`
	Quantity *string `json:"quantity,omitempty"`
	Remarks  *string `json:"remarks,omitempty"`
}

func toTransactionItemDTO(li *ledger.TransactionItem) TransactionItemDTO {
	return TransactionItemDTO{
		ID:            string(li.ID),
		TransactionID: string(li.TransactionID),
		ItemID:        string(li.ItemID),
		Amount:        li.Amount,
		Quantity:      li.Quantity,
		Total:         li.Total(),
		Remarks:       li.Remarks,
		CreatedAt:     li.CreatedAt,
		UpdatedAt:     li.UpdatedAt,
	}
}

// =============================================================================
// DEBTS
// =============================================================================

type DebtDTO struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	PersonName    string          `json:"person_name"`
	Direction     string          `json:"direction"`
	SettledAt     *time.Time      `json:"settled_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Transaction   *TransactionDTO `json:"transaction,omitempty"`
}

type CreateDebtRequest struct {
	TransactionID string `json:"transaction_id"`
	PersonName    string `json:"person_name"`
	Direction     string `json:"direction"`
}

func toDebtDTO(d *ledger.Debt) DebtDTO {
	return DebtDTO{
		ID:            string(d.ID),
		TransactionID: string(d.TransactionID),
		PersonName:    d.PersonName,
		Direction:     string(d.Direction),
		SettledAt:     d.SettledAt,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func toDebtRecordDTO(r *sqlite.DebtRecord) DebtDTO {
	dto := toDebtDTO(&r.Debt)
	tx := toTransactionDTO(&r.Transaction)
	dto.Transaction = &tx
	return dto
}

// =============================================================================
// CATALOG
// =============================================================================

type CategoryDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	Color     string    `json:"color,omitempty"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
	Type  string `json:"type"`
}

func toCategoryDTO(c *ledger.Category) CategoryDTO {
	return CategoryDTO{
		ID:        string(c.ID),
		Name:      c.Name,
		Icon:      c.Icon,
		Color:     c.Color,
		Type:      string(c.Type),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type MerchantDTO struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	DefaultCategoryID *string   `json:"default_category_id,omitempty"`
	TransactionCount  int       `json:"transaction_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type MerchantRequest struct {
	Name              string  `json:"name"`
	DefaultCategoryID *string `json:"default_category_id,omitempty"`
}

func toMerchantDTO(m *ledger.Merchant) MerchantDTO {
	dto := MerchantDTO{
		ID:               string(m.ID),
		Name:             m.Name,
		TransactionCount: m.TransactionCount,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.DefaultCategoryID != nil {
		s := string(*m.DefaultCategoryID)
		dto.DefaultCategoryID = &s
	}
	return dto
}

type ItemDTO struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	CategoryID *string         `json:"category_id,omitempty"`
	TimesUsed  int             `json:"times_used"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	LastUsedAt *time.Time      `json:"last_used_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type ItemRequest struct {
	Name       string  `json:"name"`
	CategoryID *string `json:"category_id,omitempty"`
}

func toItemDTO(it *ledger.Item) ItemDTO {
	dto := ItemDTO{
		ID:         string(it.ID),
		Name:       it.Name,
		TotalSpent: decimal.Zero,
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}
	if it.CategoryID != nil {
		s := string(*it.CategoryID)
		dto.CategoryID = &s
	}
	return dto
}

func toItemUsageDTO(u *sqlite.ItemUsage) ItemDTO {
	dto := toItemDTO(&u.Item)
	dto.TimesUsed = u.TimesUsed
	dto.TotalSpent = u.TotalSpent
	dto.LastUsedAt = u.LastUsedAt
	return dto
}

// =============================================================================
// ANALYTICS
// =============================================================================

type SummaryDTO struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Net          decimal.Decimal `json:"net"`
	TotalBalance decimal.Decimal `json:"total_balance"`
	Count        int             `json:"transaction_count"`
	Period       string          `json:"period"`
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
}

type CategoryTotalDTO struct {
	CategoryID string          `json:"category_id"`
	Name       string          `json:"name"`
	Icon       string          `json:"icon,omitempty"`
	Color      string          `json:"color,omitempty"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
	Percent    int             `json:"percent"`
}

type MerchantTotalDTO struct {
	MerchantID string          `json:"merchant_id"`
	Name       string          `json:"name"`
	Count      int             `json:"count"`
	Total      decimal.Decimal `json:"total"`
}

type TrendPointDTO struct {
	Bucket  string          `json:"bucket"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}
