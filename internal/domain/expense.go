package domain

import "encoding/json"

// exchangeRates maps a currency code to its AED conversion factor. The
// table is fixed; rates are not fetched at runtime.
var exchangeRates = map[string]float64{
	"AED": 1.0,
	"USD": 3.67,
	"INR": 0.044,
	"OMR": 9.53,
	"EUR": 4.0,
	"GBP": 4.6,
}

// ConvertToAED converts amount in the given currency to AED. The second
// return value reports whether the currency was known; unknown codes
// convert at 1.0 so the amount is preserved rather than dropped.
func ConvertToAED(amount float64, currency string) (float64, bool) {
	rate, ok := exchangeRates[currency]
	if !ok {
		rate = 1.0
	}
	return amount * rate, ok
}

// SupportedCurrencies returns the currency codes with a fixed AED rate,
// in stable order.
func SupportedCurrencies() []string {
	return []string{"AED", "USD", "INR", "OMR", "EUR", "GBP"}
}

// Expense is a row in the expenses table. AmountAED is computed on
// write from Amount and Currency.
type Expense struct {
	ExpenseID   string  `json:"expense_id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Currency    string  `json:"currency"`
	Amount      float64 `json:"amount"`
	AmountAED   float64 `json:"amount_aed"`
	ReceiptURL  string  `json:"receipt_url,omitempty"`
	CreatedBy   string  `json:"created_by,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
	UpdatedAt   string  `json:"updated_at,omitempty"`
}

// CreateExpenseRequest is the body for POST /v1/expenses.
type CreateExpenseRequest struct {
	Date        string      `json:"date"`
	Category    string      `json:"category"`
	Description string      `json:"description,omitempty"`
	Currency    string      `json:"currency"`
	Amount      json.Number `json:"amount"`
	ReceiptURL  string      `json:"receiptUrl,omitempty"`
}

// UpdateExpenseRequest is the body for PUT /v1/expenses/{expenseId}.
type UpdateExpenseRequest struct {
	Date        *string      `json:"date,omitempty"`
	Category    *string      `json:"category,omitempty"`
	Description *string      `json:"description,omitempty"`
	Currency    *string      `json:"currency,omitempty"`
	Amount      *json.Number `json:"amount,omitempty"`
	ReceiptURL  *string      `json:"receiptUrl,omitempty"`
}
