package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/observability"
	"github.com/bfcgroup/portal-api-go/internal/service"

	"go.uber.org/zap"
)

func newExpenseService(store *mockExpenseStore, receipts *mockReceiptStorage, travel *mockTravelLog) *service.ExpenseService {
	return service.NewExpenseService(store, receipts, travel, observability.NewMetrics(), zap.NewNop())
}

func TestCreateExpense_ConvertsToAED(t *testing.T) {
	store := &mockExpenseStore{}
	svc := newExpenseService(store, &mockReceiptStorage{}, &mockTravelLog{})

	created, err := svc.CreateExpense(context.Background(), &domain.CreateExpenseRequest{
		Date:     "2026-09-01",
		Category: "travel",
		Currency: "USD",
		Amount:   json.Number("100"),
	}, "acc-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if math.Abs(created.AmountAED-367) > 1e-9 {
		t.Errorf("expected 367 AED, got %v", created.AmountAED)
	}
	if !strings.HasPrefix(created.ExpenseID, "BFC-") {
		t.Errorf("expected BFC- prefixed expense id, got '%s'", created.ExpenseID)
	}
	if created.CreatedBy != "acc-1" {
		t.Errorf("expected created_by 'acc-1', got '%s'", created.CreatedBy)
	}
}

func TestCreateExpense_UnknownCurrencyAccepted(t *testing.T) {
	svc := newExpenseService(&mockExpenseStore{}, &mockReceiptStorage{}, &mockTravelLog{})

	created, err := svc.CreateExpense(context.Background(), &domain.CreateExpenseRequest{
		Date:     "2026-09-01",
		Category: "meals",
		Currency: "JPY",
		Amount:   json.Number("500"),
	}, "acc-1")
	if err != nil {
		t.Fatalf("unknown currency must not reject the expense, got %v", err)
	}
	if created.AmountAED != 500 {
		t.Errorf("expected 1.0 conversion, got %v", created.AmountAED)
	}
}

func TestCreateExpense_Validation(t *testing.T) {
	svc := newExpenseService(&mockExpenseStore{}, &mockReceiptStorage{}, &mockTravelLog{})

	cases := []struct {
		name string
		req  *domain.CreateExpenseRequest
	}{
		{"missing date", &domain.CreateExpenseRequest{Category: "travel", Currency: "AED", Amount: json.Number("10")}},
		{"missing category", &domain.CreateExpenseRequest{Date: "2026-09-01", Currency: "AED", Amount: json.Number("10")}},
		{"missing currency", &domain.CreateExpenseRequest{Date: "2026-09-01", Category: "travel", Amount: json.Number("10")}},
		{"zero amount", &domain.CreateExpenseRequest{Date: "2026-09-01", Category: "travel", Currency: "AED", Amount: json.Number("0")}},
		{"negative amount", &domain.CreateExpenseRequest{Date: "2026-09-01", Category: "travel", Currency: "AED", Amount: json.Number("-5")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateExpense(context.Background(), tc.req, "acc-1"); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestUpdateExpense_CurrencyChangeRecomputesAED(t *testing.T) {
	store := &mockExpenseStore{expenses: []domain.Expense{
		{ExpenseID: "BFC-abc", Amount: 100, Currency: "USD", AmountAED: 367},
	}}
	svc := newExpenseService(store, &mockReceiptStorage{}, &mockTravelLog{})

	currency := "EUR"
	updated, err := svc.UpdateExpense(context.Background(), "BFC-abc", &domain.UpdateExpenseRequest{Currency: &currency})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.AmountAED != 400 {
		t.Errorf("expected 100 EUR = 400 AED, got %v", updated.AmountAED)
	}
}

func TestUpdateExpense_AmountChangeRecomputesAED(t *testing.T) {
	store := &mockExpenseStore{expenses: []domain.Expense{
		{ExpenseID: "BFC-abc", Amount: 100, Currency: "USD", AmountAED: 367},
	}}
	svc := newExpenseService(store, &mockReceiptStorage{}, &mockTravelLog{})

	amount := json.Number("200")
	updated, err := svc.UpdateExpense(context.Background(), "BFC-abc", &domain.UpdateExpenseRequest{Amount: &amount})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.AmountAED != 734 {
		t.Errorf("expected 200 USD = 734 AED, got %v", updated.AmountAED)
	}
}

func TestUpdateExpense_DescriptionOnlySkipsRecompute(t *testing.T) {
	store := &mockExpenseStore{expenses: []domain.Expense{
		{ExpenseID: "BFC-abc", Amount: 100, Currency: "USD", AmountAED: 367},
	}}
	svc := newExpenseService(store, &mockReceiptStorage{}, &mockTravelLog{})

	desc := "client dinner"
	if _, err := svc.UpdateExpense(context.Background(), "BFC-abc", &domain.UpdateExpenseRequest{Description: &desc}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := store.updates["amount_aed"]; ok {
		t.Error("description-only patch must not recompute the AED amount")
	}
}

func TestUpdateExpense_NotFound(t *testing.T) {
	svc := newExpenseService(&mockExpenseStore{}, &mockReceiptStorage{}, &mockTravelLog{})

	currency := "EUR"
	_, err := svc.UpdateExpense(context.Background(), "BFC-absent", &domain.UpdateExpenseRequest{Currency: &currency})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUploadReceipt(t *testing.T) {
	receipts := &mockReceiptStorage{url: "https://cdn.example/receipts/x.pdf"}
	svc := newExpenseService(&mockExpenseStore{}, receipts, &mockTravelLog{})

	url, err := svc.UploadReceipt(context.Background(), "taxi.pdf", "application/pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if url != receipts.url {
		t.Errorf("expected '%s', got '%s'", receipts.url, url)
	}
	if !strings.HasSuffix(receipts.uploadedPath, ".pdf") {
		t.Errorf("expected the original extension kept, got '%s'", receipts.uploadedPath)
	}
	if receipts.uploadedPath == "taxi.pdf" {
		t.Error("expected a collision-free generated name")
	}
}

func TestUploadReceipt_EmptyFile(t *testing.T) {
	svc := newExpenseService(&mockExpenseStore{}, &mockReceiptStorage{}, &mockTravelLog{})

	if _, err := svc.UploadReceipt(context.Background(), "empty.pdf", "application/pdf", nil); err == nil {
		t.Error("expected a validation error for an empty file")
	}
}

func TestCreateTravelRequest_SequentialIDs(t *testing.T) {
	travel := &mockTravelLog{}
	svc := newExpenseService(&mockExpenseStore{}, &mockReceiptStorage{}, travel)

	req := &domain.CreateTravelRequest{
		Employee:    "Maria Haddad",
		Destination: "Muscat",
		StartDate:   "2026-10-01",
		EndDate:     "2026-10-05",
		Amount:      2500,
	}

	first, err := svc.CreateTravelRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	second, err := svc.CreateTravelRequest(context.Background(), req)
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}

	if first.RequestID != "BFC-3001" {
		t.Errorf("expected 'BFC-3001', got '%s'", first.RequestID)
	}
	if second.RequestID != "BFC-3002" {
		t.Errorf("expected 'BFC-3002', got '%s'", second.RequestID)
	}
	if first.Status != domain.TravelPending {
		t.Errorf("expected pending status, got '%s'", first.Status)
	}
}

func TestCreateTravelRequest_Validation(t *testing.T) {
	svc := newExpenseService(&mockExpenseStore{}, &mockReceiptStorage{}, &mockTravelLog{})

	cases := []struct {
		name string
		req  *domain.CreateTravelRequest
	}{
		{"missing employee", &domain.CreateTravelRequest{Destination: "Muscat", StartDate: "2026-10-01", EndDate: "2026-10-05"}},
		{"missing destination", &domain.CreateTravelRequest{Employee: "M", StartDate: "2026-10-01", EndDate: "2026-10-05"}},
		{"missing dates", &domain.CreateTravelRequest{Employee: "M", Destination: "Muscat"}},
		{"negative amount", &domain.CreateTravelRequest{Employee: "M", Destination: "Muscat", StartDate: "2026-10-01", EndDate: "2026-10-05", Amount: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateTravelRequest(context.Background(), tc.req); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
