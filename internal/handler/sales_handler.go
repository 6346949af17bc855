package handler

import (
	"encoding/json"
	"net/http"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Sales leads
// ============================================================

func listLeadsHandler(salesSvc *service.SalesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/sales/leads")
		defer span.End()

		page, pageSize := parsePagination(r)
		leads := salesSvc.Leads()
		span.SetAttributes(attribute.Int("leads.count", len(leads)))

		writeJSON(w, http.StatusOK, paginate(leads, page, pageSize))
	}
}

func createLeadHandler(salesSvc *service.SalesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sales/leads")
		defer span.End()

		var req domain.CreateLeadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lead, err := salesSvc.CreateLead(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, lead)
	}
}

func updateLeadHandler(salesSvc *service.SalesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/sales/leads/{salesId}")
		defer span.End()

		salesID := chi.URLParam(r, "salesId")

		var req domain.UpdateLeadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		lead, err := salesSvc.UpdateLead(ctx, salesID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, lead)
	}
}

func deleteLeadHandler(salesSvc *service.SalesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/sales/leads/{salesId}")
		defer span.End()

		salesID := chi.URLParam(r, "salesId")
		if err := salesSvc.DeleteLead(ctx, salesID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "lead deleted", ID: salesID})
	}
}

// ============================================================
// Sales opportunities
// ============================================================

func listOpportunitiesHandler(salesSvc *service.SalesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/sales/opportunities")
		defer span.End()

		page, pageSize := parsePagination(r)
		opps := salesSvc.Opportunities()

		writeJSON(w, http.StatusOK, paginate(opps, page, pageSize))
	}
}

func createOpportunityHandler(salesSvc *service.SalesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sales/opportunities")
		defer span.End()

		var req domain.CreateOpportunityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		opp, err := salesSvc.CreateOpportunity(ctx, &req, AccountIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, opp)
	}
}

func updateOpportunityHandler(salesSvc *service.SalesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/sales/opportunities/{opportunityId}")
		defer span.End()

		id := chi.URLParam(r, "opportunityId")

		var req domain.UpdateOpportunityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		opp, err := salesSvc.UpdateOpportunity(ctx, id, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, opp)
	}
}

func deleteOpportunityHandler(salesSvc *service.SalesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/sales/opportunities/{opportunityId}")
		defer span.End()

		id := chi.URLParam(r, "opportunityId")
		if err := salesSvc.DeleteOpportunity(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "opportunity deleted", ID: id})
	}
}

// refreshSalesHandler forces a re-fetch of both snapshots from Supabase.
func refreshSalesHandler(salesSvc *service.SalesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/sales/refresh")
		defer span.End()

		if err := salesSvc.Bootstrap(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "snapshots refreshed"})
	}
}
