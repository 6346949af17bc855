package handler

import (
	"net/http"

	"github.com/bfcgroup/portal-api-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Sales reports
// ============================================================

func listReportsHandler(reportSvc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/sales/reports")
		defer span.End()

		page, pageSize := parsePagination(r)
		reports, err := reportSvc.History(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, paginate(reports, page, pageSize))
	}
}

func generateReportHandler(reportSvc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sales/reports")
		defer span.End()

		report, err := reportSvc.Generate(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, report)
	}
}
