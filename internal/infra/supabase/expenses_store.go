package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bfcgroup/portal-api-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Expenses store (implements port.ExpenseStore)
// Table: expenses
// ============================================================

type supabaseExpense struct {
	ExpenseID   string  `json:"expense_id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description *string `json:"description"`
	Currency    string  `json:"currency"`
	Amount      float64 `json:"amount"`
	AmountAED   float64 `json:"amount_aed"`
	ReceiptURL  *string `json:"receipt_url"`
	CreatedBy   *string `json:"created_by"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func (r supabaseExpense) toDomain() domain.Expense {
	return domain.Expense{
		ExpenseID:   r.ExpenseID,
		Date:        r.Date,
		Category:    r.Category,
		Description: deref(r.Description),
		Currency:    r.Currency,
		Amount:      r.Amount,
		AmountAED:   r.AmountAED,
		ReceiptURL:  deref(r.ReceiptURL),
		CreatedBy:   deref(r.CreatedBy),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ListExpenses fetches all expenses newest first.
func (c *Client) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListExpenses")
	defer span.End()

	var expenses []domain.Expense

	err := c.execute(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "expenses?select=*&order=created_at.desc")
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			expenses = []domain.Expense{}
			return nil
		}

		var rows []supabaseExpense
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode expenses: %w", err)
		}
		expenses = make([]domain.Expense, 0, len(rows))
		for _, r := range rows {
			expenses = append(expenses, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/expenses", Err: err}
	}

	span.SetAttributes(attribute.Int("expenses.count", len(expenses)))
	return expenses, nil
}

// CreateExpense inserts an expense and returns the stored row.
func (c *Client) CreateExpense(ctx context.Context, exp *domain.Expense) (*domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateExpense")
	defer span.End()
	span.SetAttributes(attribute.String("expense.id", exp.ExpenseID))

	var created *domain.Expense

	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "expenses", exp)
		if err != nil {
			return err
		}

		var rows []supabaseExpense
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode created expense: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no representation")
		}
		e := rows[0].toDomain()
		created = &e
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/expenses", Err: err}
	}

	return created, nil
}

// UpdateExpense patches the expense matching expenseID and returns the
// updated row.
func (c *Client) UpdateExpense(ctx context.Context, expenseID string, updates map[string]any) (*domain.Expense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateExpense")
	defer span.End()
	span.SetAttributes(attribute.String("expense.id", expenseID))

	var updated *domain.Expense

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("expenses?expense_id=eq.%s", url.QueryEscape(expenseID))
		body, err := c.doPatch(ctx, path, updates)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "expense", ID: expenseID}
		}

		var rows []supabaseExpense
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode updated expense: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "expense", ID: expenseID}
		}
		e := rows[0].toDomain()
		updated = &e
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/expenses", Err: err}
	}

	return updated, nil
}

// DeleteExpense removes the expense matching expenseID. Absent ids are
// a no-op.
func (c *Client) DeleteExpense(ctx context.Context, expenseID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteExpense")
	defer span.End()
	span.SetAttributes(attribute.String("expense.id", expenseID))

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("expenses?expense_id=eq.%s", url.QueryEscape(expenseID))
		return c.doDelete(ctx, path)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/expenses", Err: err}
	}
	return nil
}
