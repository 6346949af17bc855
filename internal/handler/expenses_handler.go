package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxReceiptSize caps receipt uploads at 10 MiB.
const maxReceiptSize = 10 << 20

// ============================================================
// Expenses
// ============================================================

func listExpensesHandler(expenseSvc *service.ExpenseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/expenses")
		defer span.End()

		page, pageSize := parsePagination(r)
		expenses, err := expenseSvc.ListExpenses(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, paginate(expenses, page, pageSize))
	}
}

func createExpenseHandler(expenseSvc *service.ExpenseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/expenses")
		defer span.End()

		var req domain.CreateExpenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		expense, err := expenseSvc.CreateExpense(ctx, &req, AccountIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, expense)
	}
}

func updateExpenseHandler(expenseSvc *service.ExpenseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/expenses/{expenseId}")
		defer span.End()

		expenseID := chi.URLParam(r, "expenseId")

		var req domain.UpdateExpenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		expense, err := expenseSvc.UpdateExpense(ctx, expenseID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, expense)
	}
}

func deleteExpenseHandler(expenseSvc *service.ExpenseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/expenses/{expenseId}")
		defer span.End()

		expenseID := chi.URLParam(r, "expenseId")
		if err := expenseSvc.DeleteExpense(ctx, expenseID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "expense deleted", ID: expenseID})
	}
}

// uploadReceiptHandler accepts a multipart form with a "receipt" file
// field and returns the public URL of the stored object.
func uploadReceiptHandler(expenseSvc *service.ExpenseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/expenses/receipts")
		defer span.End()

		if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		file, header, err := r.FormFile("receipt")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing receipt file")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxReceiptSize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to read receipt file")
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		url, err := expenseSvc.UploadReceipt(ctx, header.Filename, contentType, data)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"url": url})
	}
}

func currenciesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"base":       "AED",
			"currencies": domain.SupportedCurrencies(),
		})
	}
}

// ============================================================
// Travel requests
// ============================================================

func listTravelHandler(expenseSvc *service.ExpenseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/travel")
		defer span.End()

		page, pageSize := parsePagination(r)
		requests, err := expenseSvc.ListTravelRequests(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, paginate(requests, page, pageSize))
	}
}

func createTravelHandler(expenseSvc *service.ExpenseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/travel")
		defer span.End()

		var req domain.CreateTravelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		request, err := expenseSvc.CreateTravelRequest(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, request)
	}
}
