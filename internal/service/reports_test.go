package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/observability"
	"github.com/bfcgroup/portal-api-go/internal/service"

	"go.uber.org/zap"
)

func newReportService(sales *service.SalesService, log *mockReportLog) *service.ReportService {
	return service.NewReportService(sales, log, observability.NewMetrics(), zap.NewNop())
}

func TestGenerate_SnapshotsCurrentPipeline(t *testing.T) {
	leads := &mockLeadStore{leads: []domain.Lead{
		{SalesID: "BFC-1", Status: domain.LeadStatusNew, Amount: 1000, Probability: 10},
		{SalesID: "BFC-2", Status: domain.LeadStatusUpsell, Amount: 2000, Probability: 20},
	}}
	opps := &mockOppStore{opps: []domain.Opportunity{
		{ID: "o-1", Stage: domain.StageProposal, OpportunityValue: 5000, Probability: 40},
	}}
	sales := newSalesService(leads, opps, newMockFeed())
	if err := sales.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	log := &mockReportLog{}
	svc := newReportService(sales, log)

	report, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if report.ID == "" {
		t.Error("expected a generated report id")
	}
	if report.Summary.TotalLeads != 2 || report.Summary.TotalOpportunities != 1 {
		t.Errorf("unexpected totals: %+v", report.Summary)
	}
	if report.Summary.CombinedValue != 8000 {
		t.Errorf("expected combined value 8000, got %v", report.Summary.CombinedValue)
	}
	if len(log.reports) != 1 {
		t.Errorf("expected the report in the log, got %d entries", len(log.reports))
	}
}

func TestGenerate_HistoryIsNewestFirst(t *testing.T) {
	sales := newSalesService(&mockLeadStore{}, &mockOppStore{}, newMockFeed())
	log := &mockReportLog{}
	svc := newReportService(sales, log)

	first, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("first generate failed: %v", err)
	}
	second, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("second generate failed: %v", err)
	}

	history, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(history))
	}
	if history[0].ID != second.ID || history[1].ID != first.ID {
		t.Error("expected newest report first")
	}
}

func TestGenerate_SameDataSameFiguresNewID(t *testing.T) {
	leads := &mockLeadStore{leads: []domain.Lead{
		{SalesID: "BFC-1", Status: domain.LeadStatusNew, Amount: 1000, Probability: 10},
	}}
	sales := newSalesService(leads, &mockOppStore{}, newMockFeed())
	if err := sales.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	svc := newReportService(sales, &mockReportLog{})

	first, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("first generate failed: %v", err)
	}
	second, err := svc.Generate(context.Background())
	if err != nil {
		t.Fatalf("second generate failed: %v", err)
	}

	if first.ID == second.ID {
		t.Error("each generation must mint a new id")
	}
	if first.Summary != second.Summary {
		t.Errorf("unchanged data must yield identical figures: %+v vs %+v", first.Summary, second.Summary)
	}
}

func TestGenerate_LogFailure(t *testing.T) {
	sales := newSalesService(&mockLeadStore{}, &mockOppStore{}, newMockFeed())
	log := &mockReportLog{err: errors.New("disk full")}
	svc := newReportService(sales, log)

	if _, err := svc.Generate(context.Background()); err == nil {
		t.Error("expected the log failure to surface")
	}
}
