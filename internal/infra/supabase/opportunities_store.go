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
// Opportunities store (implements port.OpportunityStore)
// Table: sales_opportunities
// ============================================================

type supabaseOpportunity struct {
	ID                string  `json:"id"`
	ClientName        string  `json:"client_name"`
	OpportunityValue  float64 `json:"opportunity_value"`
	Stage             string  `json:"stage"`
	Probability       int     `json:"probability"`
	ExpectedCloseDate *string `json:"expected_close_date"`
	ProductService    *string `json:"product_service"`
	LeadSource        *string `json:"lead_source"`
	Description       *string `json:"description"`
	CreatedBy         *string `json:"created_by"`
	CreatedAt         string  `json:"created_at"`
}

func (r supabaseOpportunity) toDomain() domain.Opportunity {
	return domain.Opportunity{
		ID:                r.ID,
		ClientName:        r.ClientName,
		OpportunityValue:  r.OpportunityValue,
		Stage:             r.Stage,
		Probability:       r.Probability,
		ExpectedCloseDate: deref(r.ExpectedCloseDate),
		ProductService:    deref(r.ProductService),
		LeadSource:        deref(r.LeadSource),
		Description:       deref(r.Description),
		CreatedBy:         deref(r.CreatedBy),
		CreatedAt:         r.CreatedAt,
	}
}

// ListOpportunities fetches all opportunities newest first.
func (c *Client) ListOpportunities(ctx context.Context) ([]domain.Opportunity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListOpportunities")
	defer span.End()

	var opps []domain.Opportunity

	err := c.execute(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "sales_opportunities?select=*&order=created_at.desc")
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			opps = []domain.Opportunity{}
			return nil
		}

		var rows []supabaseOpportunity
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode opportunities: %w", err)
		}
		opps = make([]domain.Opportunity, 0, len(rows))
		for _, r := range rows {
			opps = append(opps, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/opportunities", Err: err}
	}

	span.SetAttributes(attribute.Int("opportunities.count", len(opps)))
	return opps, nil
}

// CreateOpportunity inserts an opportunity and returns the stored row.
func (c *Client) CreateOpportunity(ctx context.Context, opp *domain.Opportunity) (*domain.Opportunity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateOpportunity")
	defer span.End()
	span.SetAttributes(attribute.String("opportunity.id", opp.ID))

	var created *domain.Opportunity

	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "sales_opportunities", opp)
		if err != nil {
			return err
		}

		var rows []supabaseOpportunity
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode created opportunity: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no representation")
		}
		o := rows[0].toDomain()
		created = &o
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/opportunities", Err: err}
	}

	return created, nil
}

// UpdateOpportunity patches the opportunity matching id and returns the
// updated row.
func (c *Client) UpdateOpportunity(ctx context.Context, id string, updates map[string]any) (*domain.Opportunity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateOpportunity")
	defer span.End()
	span.SetAttributes(attribute.String("opportunity.id", id))

	var updated *domain.Opportunity

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("sales_opportunities?id=eq.%s", url.QueryEscape(id))
		body, err := c.doPatch(ctx, path, updates)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "opportunity", ID: id}
		}

		var rows []supabaseOpportunity
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode updated opportunity: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "opportunity", ID: id}
		}
		o := rows[0].toDomain()
		updated = &o
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/opportunities", Err: err}
	}

	return updated, nil
}

// DeleteOpportunity removes the opportunity matching id. Absent ids are
// a no-op.
func (c *Client) DeleteOpportunity(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteOpportunity")
	defer span.End()
	span.SetAttributes(attribute.String("opportunity.id", id))

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("sales_opportunities?id=eq.%s", url.QueryEscape(id))
		return c.doDelete(ctx, path)
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/opportunities", Err: err}
	}
	return nil
}
