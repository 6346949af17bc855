package handler

import (
	"net/http"

	"github.com/bfcgroup/portal-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Employee directory
// ============================================================

func listEmployeesHandler(directorySvc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/employees")
		defer span.End()

		page, pageSize := parsePagination(r)
		employees, err := directorySvc.List(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, paginate(employees, page, pageSize))
	}
}

func getEmployeeHandler(directorySvc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/employees/{employeeId}")
		defer span.End()

		employeeID := chi.URLParam(r, "employeeId")
		employee, err := directorySvc.Get(ctx, employeeID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, employee)
	}
}
