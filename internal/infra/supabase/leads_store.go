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
// Leads store (implements port.LeadStore)
// Table: leads_management
// ============================================================

type supabaseLead struct {
	SalesID     string  `json:"sales_id"`
	Account     string  `json:"account"`
	Status      string  `json:"status"`
	Amount      float64 `json:"amount"`
	Probability int     `json:"probability"`
	ClosureDate *string `json:"closure_date"`
	LeadSource  *string `json:"lead_source"`
	Vendor      *string `json:"vendor"`
	CreatedBy   *string `json:"created_by"`
	CreatedAt   string  `json:"created_at"`
}

func (r supabaseLead) toDomain() domain.Lead {
	return domain.Lead{
		SalesID:     r.SalesID,
		Account:     r.Account,
		Status:      r.Status,
		Amount:      r.Amount,
		Probability: r.Probability,
		ClosureDate: deref(r.ClosureDate),
		LeadSource:  deref(r.LeadSource),
		Vendor:      deref(r.Vendor),
		CreatedBy:   deref(r.CreatedBy),
		CreatedAt:   r.CreatedAt,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListLeads fetches all leads ordered by descending sales ID, which is
// timestamp-derived and therefore newest first.
func (c *Client) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLeads")
	defer span.End()

	var leads []domain.Lead

	err := c.execute(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "leads_management?select=*&order=sales_id.desc")
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			leads = []domain.Lead{}
			return nil
		}

		var rows []supabaseLead
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode leads: %w", err)
		}
		leads = make([]domain.Lead, 0, len(rows))
		for _, r := range rows {
			leads = append(leads, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/leads", Err: err}
	}

	span.SetAttributes(attribute.Int("leads.count", len(leads)))
	return leads, nil
}

// CreateLead inserts a lead and returns the stored row.
func (c *Client) CreateLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.sales_id", lead.SalesID))

	var created *domain.Lead

	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "leads_management", lead)
		if err != nil {
			return err
		}

		var rows []supabaseLead
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode created lead: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no representation")
		}
		l := rows[0].toDomain()
		created = &l
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/leads", Err: err}
	}

	return created, nil
}

// UpdateLead patches the lead matching salesID and returns the updated
// row. A patch matching no rows yields ErrNotFound.
func (c *Client) UpdateLead(ctx context.Context, salesID string, updates map[string]any) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.sales_id", salesID))

	var updated *domain.Lead

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("leads_management?sales_id=eq.%s", url.QueryEscape(salesID))
		body, err := c.doPatch(ctx, path, updates)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "lead", ID: salesID}
		}

		var rows []supabaseLead
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode updated lead: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "lead", ID: salesID}
		}
		l := rows[0].toDomain()
		updated = &l
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/leads", Err: err}
	}

	return updated, nil
}

// DeleteLead removes the lead matching salesID. Deleting an absent
// sales ID is a no-op.
func (c *Client) DeleteLead(ctx context.Context, salesID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.sales_id", salesID))

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("leads_management?sales_id=eq.%s", url.QueryEscape(salesID))
		return c.doDelete(ctx, path)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/leads", Err: err}
	}
	return nil
}
