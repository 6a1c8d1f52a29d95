// Package ledger provides core types and the error taxonomy for the
// ledgerdesk client library.
package ledger

import "time"

// Currency is a reference-book entry identifying a currency by its
// ISO 4217 code.
type Currency struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// CashRegister is a cash desk. Balances is read-only, keyed by currency
// code; the backend omits zero balances.
type CashRegister struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Code        string            `json:"code"`
	Description string            `json:"description"`
	IsActive    bool              `json:"is_active"`
	Balances    map[string]string `json:"balances,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Item types for IncomeExpenseItem.
const (
	ItemTypeIncome  = "income"
	ItemTypeExpense = "expense"
)

// IncomeExpenseItem classifies money movements. Items form a tree via
// Parent.
type IncomeExpenseItem struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Type        string    `json:"type"`
	Parent      *int64    `json:"parent"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Employee is a person money can be advanced to.
type Employee struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	MiddleName  string    `json:"middle_name"`
	FullName    string    `json:"full_name"`
	Position    string    `json:"position"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CurrencyRate is an exchange rate between two currencies on a date.
// Rate and all other money values are decimal strings; the backend never
// emits floats for them.
type CurrencyRate struct {
	ID               int64     `json:"id"`
	FromCurrency     int64     `json:"from_currency"`
	FromCurrencyCode string    `json:"from_currency_code"`
	ToCurrency       int64     `json:"to_currency"`
	ToCurrencyCode   string    `json:"to_currency_code"`
	Rate             string    `json:"rate"`
	Date             string    `json:"date"`
	Name             string    `json:"name"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
}

// AdvancePayment is a document recording money handed to an employee
// against future expense reports. UnreportedBalance and
// AdditionalPaymentsSum are computed server-side.
type AdvancePayment struct {
	ID                    int64      `json:"id"`
	Number                string     `json:"number"`
	Date                  string     `json:"date"`
	Employee              int64      `json:"employee"`
	EmployeeName          string     `json:"employee_name"`
	CashRegister          int64      `json:"cash_register"`
	CashRegisterName      string     `json:"cash_register_name"`
	Currency              int64      `json:"currency"`
	CurrencyCode          string     `json:"currency_code"`
	Amount                string     `json:"amount"`
	ExpenseItem           int64      `json:"expense_item"`
	ExpenseItemName       string     `json:"expense_item_name"`
	Purpose               string     `json:"purpose"`
	IsClosed              bool       `json:"is_closed"`
	ClosedAt              *time.Time `json:"closed_at"`
	IsPosted              bool       `json:"is_posted"`
	IsDeleted             bool       `json:"is_deleted"`
	UnreportedBalance     string     `json:"unreported_balance"`
	AdditionalPaymentsSum string     `json:"additional_payments_sum"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// IncomeDocument is a document recording money received into a cash
// register.
type IncomeDocument struct {
	ID               int64     `json:"id"`
	Number           string    `json:"number"`
	Date             string    `json:"date"`
	CashRegister     int64     `json:"cash_register"`
	CashRegisterName string    `json:"cash_register_name"`
	Currency         int64     `json:"currency"`
	CurrencyCode     string    `json:"currency_code"`
	Amount           string    `json:"amount"`
	Item             int64     `json:"item"`
	ItemName         string    `json:"item_name"`
	Description      string    `json:"description"`
	IsPosted         bool      `json:"is_posted"`
	IsDeleted        bool      `json:"is_deleted"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// User is the authenticated account returned by the auth endpoints.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}
