package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/observability"
	"github.com/bfcgroup/portal-api-go/internal/port"
)

var expenseTracer = otel.Tracer("service/expenses")

// ExpenseService manages expenses (with AED conversion and receipt
// uploads) and the travel request log.
type ExpenseService struct {
	store    port.ExpenseStore
	receipts port.ReceiptStorage
	travel   port.TravelLog
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewExpenseService creates the expense service.
func NewExpenseService(store port.ExpenseStore, receipts port.ReceiptStorage, travel port.TravelLog, metrics *observability.Metrics, logger *zap.Logger) *ExpenseService {
	return &ExpenseService{
		store:    store,
		receipts: receipts,
		travel:   travel,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// ListExpenses returns all expenses newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	ctx, span := expenseTracer.Start(ctx, "Expenses.List")
	defer span.End()

	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		s.metrics.IncrExternalError("expenses")
		return nil, err
	}
	return expenses, nil
}

// CreateExpense validates the request, converts the amount to AED and
// persists the expense. Unknown currencies convert at 1.0 and are
// logged; the submission is not rejected.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *domain.CreateExpenseRequest, createdBy string) (*domain.Expense, error) {
	ctx, span := expenseTracer.Start(ctx, "Expenses.Create")
	defer span.End()

	if req.Date == "" {
		return nil, &domain.ErrValidation{Field: "date", Message: "date is required"}
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, &domain.ErrValidation{Field: "category", Message: "category is required"}
	}
	if req.Currency == "" {
		return nil, &domain.ErrValidation{Field: "currency", Message: "currency is required"}
	}
	amount, err := req.Amount.Float64()
	if err != nil || req.Amount.String() == "" {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be numeric"}
	}
	if amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
	}

	amountAED, known := domain.ConvertToAED(amount, req.Currency)
	if !known {
		s.logger.Warn("expenses: unknown currency, converting at 1.0",
			zap.String("currency", req.Currency),
		)
	}

	expense := &domain.Expense{
		ExpenseID:   fmt.Sprintf("BFC-%s", uuid.NewString()[:8]),
		Date:        req.Date,
		Category:    req.Category,
		Description: req.Description,
		Currency:    req.Currency,
		Amount:      amount,
		AmountAED:   amountAED,
		ReceiptURL:  req.ReceiptURL,
		CreatedBy:   createdBy,
	}
	span.SetAttributes(attribute.String("expense.id", expense.ExpenseID))

	created, err := s.store.CreateExpense(ctx, expense)
	if err != nil {
		s.metrics.IncrExternalError("expenses")
		return nil, err
	}
	return created, nil
}

// UpdateExpense merges the patch into the stored expense. When the
// amount or currency changes, the AED amount is recomputed from the
// merged values.
func (s *ExpenseService) UpdateExpense(ctx context.Context, expenseID string, req *domain.UpdateExpenseRequest) (*domain.Expense, error) {
	ctx, span := expenseTracer.Start(ctx, "Expenses.Update")
	defer span.End()
	span.SetAttributes(attribute.String("expense.id", expenseID))

	updates := make(map[string]any)
	if req.Date != nil {
		updates["date"] = *req.Date
	}
	if req.Category != nil {
		if strings.TrimSpace(*req.Category) == "" {
			return nil, &domain.ErrValidation{Field: "category", Message: "category cannot be empty"}
		}
		updates["category"] = *req.Category
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ReceiptURL != nil {
		updates["receipt_url"] = *req.ReceiptURL
	}

	var newAmount *float64
	if req.Amount != nil {
		amount, err := req.Amount.Float64()
		if err != nil {
			return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be numeric"}
		}
		if amount <= 0 {
			return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be positive"}
		}
		updates["amount"] = amount
		newAmount = &amount
	}
	if req.Currency != nil {
		updates["currency"] = *req.Currency
	}
	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}

	if newAmount != nil || req.Currency != nil {
		// Recompute from the merged row: fetch the current values the
		// patch does not change.
		existing, err := s.findExpense(ctx, expenseID)
		if err != nil {
			return nil, err
		}
		amount := existing.Amount
		currency := existing.Currency
		if newAmount != nil {
			amount = *newAmount
		}
		if req.Currency != nil {
			currency = *req.Currency
		}
		amountAED, known := domain.ConvertToAED(amount, currency)
		if !known {
			s.logger.Warn("expenses: unknown currency, converting at 1.0",
				zap.String("currency", currency),
			)
		}
		updates["amount_aed"] = amountAED
	}

	updated, err := s.store.UpdateExpense(ctx, expenseID, updates)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteExpense removes the expense. Absent ids succeed.
func (s *ExpenseService) DeleteExpense(ctx context.Context, expenseID string) error {
	ctx, span := expenseTracer.Start(ctx, "Expenses.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("expense.id", expenseID))

	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		s.metrics.IncrExternalError("expenses")
		return err
	}
	return nil
}

// UploadReceipt stores a receipt file and returns its public URL. The
// stored name is a UUID with the original extension, so uploads never
// collide.
func (s *ExpenseService) UploadReceipt(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	ctx, span := expenseTracer.Start(ctx, "Expenses.UploadReceipt")
	defer span.End()

	if len(data) == 0 {
		return "", &domain.ErrValidation{Field: "file", Message: "file is empty"}
	}
	ext := filepath.Ext(filename)
	path := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	span.SetAttributes(attribute.String("receipt.path", path))

	url, err := s.receipts.UploadReceipt(ctx, path, contentType, data)
	if err != nil {
		s.metrics.IncrExternalError("receipts")
		return "", err
	}
	return url, nil
}

// ============================================================
// Travel requests
// ============================================================

// ListTravelRequests returns all travel requests oldest first.
func (s *ExpenseService) ListTravelRequests(ctx context.Context) ([]domain.TravelRequest, error) {
	ctx, span := expenseTracer.Start(ctx, "Expenses.ListTravel")
	defer span.End()

	requests, err := s.travel.ListTravelRequests(ctx)
	if err != nil {
		s.metrics.IncrExternalError("travel")
		return nil, err
	}
	return requests, nil
}

// CreateTravelRequest validates and appends a travel request with the
// next sequential request number.
func (s *ExpenseService) CreateTravelRequest(ctx context.Context, req *domain.CreateTravelRequest) (*domain.TravelRequest, error) {
	ctx, span := expenseTracer.Start(ctx, "Expenses.CreateTravel")
	defer span.End()

	if strings.TrimSpace(req.Employee) == "" {
		return nil, &domain.ErrValidation{Field: "employee", Message: "employee is required"}
	}
	if strings.TrimSpace(req.Destination) == "" {
		return nil, &domain.ErrValidation{Field: "destination", Message: "destination is required"}
	}
	if req.StartDate == "" || req.EndDate == "" {
		return nil, &domain.ErrValidation{Field: "dates", Message: "start and end dates are required"}
	}
	if req.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount cannot be negative"}
	}

	count, err := s.travel.CountTravelRequests(ctx)
	if err != nil {
		s.metrics.IncrExternalError("travel")
		return nil, err
	}

	request := &domain.TravelRequest{
		RequestID:   domain.NextTravelRequestID(count),
		Employee:    req.Employee,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Purpose:     req.Purpose,
		Amount:      req.Amount,
		Status:      domain.TravelPending,
		CreatedAt:   s.now().Format(time.RFC3339),
	}
	span.SetAttributes(attribute.String("travel.request_id", request.RequestID))

	if err := s.travel.AppendTravelRequest(ctx, request); err != nil {
		s.metrics.IncrExternalError("travel")
		return nil, err
	}
	return request, nil
}

func (s *ExpenseService) findExpense(ctx context.Context, expenseID string) (*domain.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		s.metrics.IncrExternalError("expenses")
		return nil, err
	}
	for i := range expenses {
		if expenses[i].ExpenseID == expenseID {
			return &expenses[i], nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "expense", ID: expenseID}
}
