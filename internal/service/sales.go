package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/observability"
	"github.com/bfcgroup/portal-api-go/internal/port"
)

var salesTracer = otel.Tracer("service/sales")

// SalesService owns the lead and opportunity pipelines. Each pipeline
// keeps an in-memory snapshot refreshed from the store; refreshes are
// sequence-guarded so a slow older fetch can never overwrite the result
// of a newer one. Lead writes also go out on the change feed so other
// portal instances can splice them in without a full refresh.
type SalesService struct {
	leads   port.LeadStore
	opps    port.OpportunityStore
	feed    port.ChangeFeed
	metrics *observability.Metrics
	logger  *zap.Logger

	now func() time.Time

	mu           sync.RWMutex
	leadSnapshot []domain.Lead
	leadIssued   uint64 // last refresh sequence handed out
	leadApplied  uint64 // refresh sequence currently reflected in the snapshot
	oppSnapshot  []domain.Opportunity
	oppIssued    uint64
	oppApplied   uint64
}

// NewSalesService creates the sales service.
func NewSalesService(leads port.LeadStore, opps port.OpportunityStore, feed port.ChangeFeed, metrics *observability.Metrics, logger *zap.Logger) *SalesService {
	return &SalesService{
		leads:   leads,
		opps:    opps,
		feed:    feed,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Bootstrap loads both snapshots in parallel. A failure of either fetch
// fails the bootstrap; the caller decides whether to start degraded.
func (s *SalesService) Bootstrap(ctx context.Context) error {
	ctx, span := salesTracer.Start(ctx, "Sales.Bootstrap")
	defer span.End()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.RefreshLeads(ctx) })
	g.Go(func() error { return s.RefreshOpportunities(ctx) })
	return g.Wait()
}

// ============================================================
// Leads
// ============================================================

// Leads returns a copy of the current lead snapshot, newest first.
func (s *SalesService) Leads() []domain.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Lead, len(s.leadSnapshot))
	copy(out, s.leadSnapshot)
	return out
}

// RefreshLeads reloads the lead snapshot from the store. On failure the
// previous snapshot is kept. If a newer refresh completed while this
// one was fetching, the stale result is discarded.
func (s *SalesService) RefreshLeads(ctx context.Context) error {
	ctx, span := salesTracer.Start(ctx, "Sales.RefreshLeads")
	defer span.End()

	s.mu.Lock()
	s.leadIssued++
	seq := s.leadIssued
	s.mu.Unlock()

	rows, err := s.leads.ListLeads(ctx)
	if err != nil {
		s.metrics.IncrExternalError("leads")
		s.logger.Error("sales: lead refresh failed, keeping snapshot", zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.leadApplied {
		s.logger.Debug("sales: discarding stale lead refresh",
			zap.Uint64("seq", seq),
			zap.Uint64("applied", s.leadApplied),
		)
		return nil
	}
	s.leadSnapshot = rows
	s.leadApplied = seq
	span.SetAttributes(attribute.Int("leads.count", len(rows)))
	return nil
}

// CreateLead validates the request, derives the sales ID and
// probability, persists the lead, announces it on the feed and
// refreshes the snapshot.
func (s *SalesService) CreateLead(ctx context.Context, req *domain.CreateLeadRequest) (*domain.Lead, error) {
	ctx, span := salesTracer.Start(ctx, "Sales.CreateLead")
	defer span.End()

	if strings.TrimSpace(req.Account) == "" {
		return nil, &domain.ErrValidation{Field: "account", Message: "account is required"}
	}
	if req.Status == "" {
		return nil, &domain.ErrValidation{Field: "status", Message: "status is required"}
	}
	amount, err := req.Amount.Float64()
	if err != nil || req.Amount.String() == "" {
		return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be numeric"}
	}

	lead := &domain.Lead{
		SalesID:     domain.NewSalesID(s.now()),
		Account:     req.Account,
		Status:      req.Status,
		Amount:      amount,
		Probability: domain.ComputeLeadProbability(req.Status),
		ClosureDate: req.ClosureDate,
		LeadSource:  req.LeadSource,
		Vendor:      req.Vendor,
	}
	span.SetAttributes(attribute.String("lead.sales_id", lead.SalesID))

	created, err := s.leads.CreateLead(ctx, lead)
	if err != nil {
		s.metrics.IncrExternalError("leads")
		return nil, err
	}

	s.publish(ctx, domain.LeadChange{Type: domain.ChangeInsert, Lead: *created})
	if err := s.RefreshLeads(ctx); err != nil {
		s.logger.Warn("sales: post-create refresh failed", zap.Error(err))
	}
	return created, nil
}

// UpdateLead merges the patch into the stored lead. When the status,
// lead source, closure date or vendor changes, the probability is
// recomputed from the merged status; a direct probability write is not
// accepted.
func (s *SalesService) UpdateLead(ctx context.Context, salesID string, req *domain.UpdateLeadRequest) (*domain.Lead, error) {
	ctx, span := salesTracer.Start(ctx, "Sales.UpdateLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.sales_id", salesID))

	updates := make(map[string]any)
	if req.Account != nil {
		if strings.TrimSpace(*req.Account) == "" {
			return nil, &domain.ErrValidation{Field: "account", Message: "account cannot be empty"}
		}
		updates["account"] = *req.Account
	}
	if req.Amount != nil {
		amount, err := req.Amount.Float64()
		if err != nil {
			return nil, &domain.ErrValidation{Field: "amount", Message: "amount must be numeric"}
		}
		updates["amount"] = amount
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.ClosureDate != nil {
		updates["closure_date"] = *req.ClosureDate
	}
	if req.LeadSource != nil {
		updates["lead_source"] = *req.LeadSource
	}
	if req.Vendor != nil {
		updates["vendor"] = *req.Vendor
	}
	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}

	if req.Status != nil || req.LeadSource != nil || req.ClosureDate != nil || req.Vendor != nil {
		status := s.currentLeadStatus(salesID)
		if req.Status != nil {
			status = *req.Status
		}
		// The lead may be missing from the snapshot, e.g. after a failed
		// bootstrap. Without a known status the recompute would reset an
		// upsell lead to the default score, so leave probability alone.
		if status != "" {
			updates["probability"] = domain.ComputeLeadProbability(status)
		}
	}

	updated, err := s.leads.UpdateLead(ctx, salesID, updates)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.LeadChange{Type: domain.ChangeUpdate, Lead: *updated})
	if err := s.RefreshLeads(ctx); err != nil {
		s.logger.Warn("sales: post-update refresh failed", zap.Error(err))
	}
	return updated, nil
}

// DeleteLead removes the lead. Deleting an absent sales ID succeeds.
func (s *SalesService) DeleteLead(ctx context.Context, salesID string) error {
	ctx, span := salesTracer.Start(ctx, "Sales.DeleteLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.sales_id", salesID))

	if err := s.leads.DeleteLead(ctx, salesID); err != nil {
		s.metrics.IncrExternalError("leads")
		return err
	}

	s.publish(ctx, domain.LeadChange{Type: domain.ChangeDelete, Lead: domain.Lead{SalesID: salesID}})
	if err := s.RefreshLeads(ctx); err != nil {
		s.logger.Warn("sales: post-delete refresh failed", zap.Error(err))
	}
	return nil
}

// WatchFeed applies lead changes from other portal instances to the
// local snapshot until ctx is cancelled.
func (s *SalesService) WatchFeed(ctx context.Context) error {
	events, err := s.feed.SubscribeLeadChanges(ctx)
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-events:
				if !ok {
					return
				}
				s.ApplyLeadChange(change, s.LeadRefreshSeq())
			}
		}
	}()
	return nil
}

// LeadRefreshSeq reports the sequence of the refresh the lead snapshot
// currently reflects. Callers record it when a feed event arrives and
// hand it to ApplyLeadChange.
func (s *SalesService) LeadRefreshSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leadApplied
}

// ApplyLeadChange splices a single change into the lead snapshot:
// inserts prepend, updates replace by sales ID, deletes filter. An
// update for an unknown sales ID is prepended, since the row evidently
// exists in the store. asOf is the refresh sequence observed when the
// event arrived; if a newer refresh has been applied since, the event
// is dropped, the refresh already reflects the store.
func (s *SalesService) ApplyLeadChange(change domain.LeadChange, asOf uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.leadApplied > asOf {
		s.logger.Debug("sales: dropping feed event superseded by refresh",
			zap.String("sales_id", change.Lead.SalesID),
			zap.Uint64("as_of", asOf),
			zap.Uint64("applied", s.leadApplied),
		)
		return
	}

	switch change.Type {
	case domain.ChangeInsert:
		for _, l := range s.leadSnapshot {
			if l.SalesID == change.Lead.SalesID {
				return // already present, e.g. our own write after refresh
			}
		}
		s.leadSnapshot = append([]domain.Lead{change.Lead}, s.leadSnapshot...)
	case domain.ChangeUpdate:
		replaced := false
		for i, l := range s.leadSnapshot {
			if l.SalesID == change.Lead.SalesID {
				s.leadSnapshot[i] = change.Lead
				replaced = true
				break
			}
		}
		if !replaced {
			s.leadSnapshot = append([]domain.Lead{change.Lead}, s.leadSnapshot...)
		}
	case domain.ChangeDelete:
		filtered := s.leadSnapshot[:0]
		for _, l := range s.leadSnapshot {
			if l.SalesID != change.Lead.SalesID {
				filtered = append(filtered, l)
			}
		}
		s.leadSnapshot = filtered
	default:
		return
	}
	s.metrics.IncrFeedEvent(string(change.Type))
}

func (s *SalesService) currentLeadStatus(salesID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.leadSnapshot {
		if l.SalesID == salesID {
			return l.Status
		}
	}
	return ""
}

// publish is best effort. A lost event is corrected by the next refresh
// on the other side.
func (s *SalesService) publish(ctx context.Context, change domain.LeadChange) {
	if err := s.feed.PublishLeadChange(ctx, change); err != nil {
		s.logger.Warn("sales: feed publish failed",
			zap.String("type", string(change.Type)),
			zap.String("sales_id", change.Lead.SalesID),
			zap.Error(err),
		)
	}
}

// ============================================================
// Opportunities
// ============================================================

// Opportunities returns a copy of the current opportunity snapshot.
func (s *SalesService) Opportunities() []domain.Opportunity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Opportunity, len(s.oppSnapshot))
	copy(out, s.oppSnapshot)
	return out
}

// RefreshOpportunities reloads the opportunity snapshot, with the same
// sequence guard as lead refreshes.
func (s *SalesService) RefreshOpportunities(ctx context.Context) error {
	ctx, span := salesTracer.Start(ctx, "Sales.RefreshOpportunities")
	defer span.End()

	s.mu.Lock()
	s.oppIssued++
	seq := s.oppIssued
	s.mu.Unlock()

	rows, err := s.opps.ListOpportunities(ctx)
	if err != nil {
		s.metrics.IncrExternalError("opportunities")
		s.logger.Error("sales: opportunity refresh failed, keeping snapshot", zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.oppApplied {
		return nil
	}
	s.oppSnapshot = rows
	s.oppApplied = seq
	span.SetAttributes(attribute.Int("opportunities.count", len(rows)))
	return nil
}

// CreateOpportunity validates and persists a new opportunity.
func (s *SalesService) CreateOpportunity(ctx context.Context, req *domain.CreateOpportunityRequest, createdBy string) (*domain.Opportunity, error) {
	ctx, span := salesTracer.Start(ctx, "Sales.CreateOpportunity")
	defer span.End()

	if strings.TrimSpace(req.ClientName) == "" {
		return nil, &domain.ErrValidation{Field: "clientName", Message: "client name is required"}
	}
	if !validStage(req.Stage) {
		return nil, &domain.ErrValidation{Field: "stage", Message: "unknown stage"}
	}
	value, err := req.OpportunityValue.Float64()
	if err != nil || req.OpportunityValue.String() == "" {
		return nil, &domain.ErrValidation{Field: "opportunityValue", Message: "value must be numeric"}
	}

	probability := 10
	if req.Probability != nil {
		if *req.Probability < 0 || *req.Probability > 100 {
			return nil, &domain.ErrValidation{Field: "probability", Message: "probability must be between 0 and 100"}
		}
		probability = *req.Probability
	}

	opp := &domain.Opportunity{
		ID:                uuid.NewString(),
		ClientName:        req.ClientName,
		OpportunityValue:  value,
		Stage:             req.Stage,
		Probability:       probability,
		ExpectedCloseDate: req.ExpectedCloseDate,
		ProductService:    req.ProductService,
		LeadSource:        req.LeadSource,
		Description:       req.Description,
		CreatedBy:         createdBy,
	}
	span.SetAttributes(attribute.String("opportunity.id", opp.ID))

	created, err := s.opps.CreateOpportunity(ctx, opp)
	if err != nil {
		s.metrics.IncrExternalError("opportunities")
		return nil, err
	}

	if err := s.RefreshOpportunities(ctx); err != nil {
		s.logger.Warn("sales: post-create refresh failed", zap.Error(err))
	}
	return created, nil
}

// UpdateOpportunity merges the patch into the stored opportunity.
func (s *SalesService) UpdateOpportunity(ctx context.Context, id string, req *domain.UpdateOpportunityRequest) (*domain.Opportunity, error) {
	ctx, span := salesTracer.Start(ctx, "Sales.UpdateOpportunity")
	defer span.End()
	span.SetAttributes(attribute.String("opportunity.id", id))

	updates := make(map[string]any)
	if req.ClientName != nil {
		if strings.TrimSpace(*req.ClientName) == "" {
			return nil, &domain.ErrValidation{Field: "clientName", Message: "client name cannot be empty"}
		}
		updates["client_name"] = *req.ClientName
	}
	if req.OpportunityValue != nil {
		value, err := req.OpportunityValue.Float64()
		if err != nil {
			return nil, &domain.ErrValidation{Field: "opportunityValue", Message: "value must be numeric"}
		}
		updates["opportunity_value"] = value
	}
	if req.Stage != nil {
		if !validStage(*req.Stage) {
			return nil, &domain.ErrValidation{Field: "stage", Message: "unknown stage"}
		}
		updates["stage"] = *req.Stage
	}
	if req.Probability != nil {
		if *req.Probability < 0 || *req.Probability > 100 {
			return nil, &domain.ErrValidation{Field: "probability", Message: "probability must be between 0 and 100"}
		}
		updates["probability"] = *req.Probability
	}
	if req.ExpectedCloseDate != nil {
		updates["expected_close_date"] = *req.ExpectedCloseDate
	}
	if req.ProductService != nil {
		updates["product_service"] = *req.ProductService
	}
	if req.LeadSource != nil {
		updates["lead_source"] = *req.LeadSource
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}

	updated, err := s.opps.UpdateOpportunity(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	if err := s.RefreshOpportunities(ctx); err != nil {
		s.logger.Warn("sales: post-update refresh failed", zap.Error(err))
	}
	return updated, nil
}

// DeleteOpportunity removes the opportunity. Absent ids succeed.
func (s *SalesService) DeleteOpportunity(ctx context.Context, id string) error {
	ctx, span := salesTracer.Start(ctx, "Sales.DeleteOpportunity")
	defer span.End()
	span.SetAttributes(attribute.String("opportunity.id", id))

	if err := s.opps.DeleteOpportunity(ctx, id); err != nil {
		s.metrics.IncrExternalError("opportunities")
		return err
	}
	if err := s.RefreshOpportunities(ctx); err != nil {
		s.logger.Warn("sales: post-delete refresh failed", zap.Error(err))
	}
	return nil
}

func validStage(stage string) bool {
	for _, s := range domain.OpportunityStages {
		if s == stage {
			return true
		}
	}
	return false
}
