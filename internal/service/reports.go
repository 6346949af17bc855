package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/observability"
	"github.com/bfcgroup/portal-api-go/internal/port"
)

var reportTracer = otel.Tracer("service/reports")

// ReportService generates point-in-time sales reports and keeps their
// immutable history in the report log.
type ReportService struct {
	sales   *SalesService
	log     port.ReportLog
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewReportService creates the report service.
func NewReportService(sales *SalesService, log port.ReportLog, metrics *observability.Metrics, logger *zap.Logger) *ReportService {
	return &ReportService{
		sales:   sales,
		log:     log,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Generate aggregates the current lead and opportunity snapshots into a
// new report and prepends it to the history. The report never mutates
// after this point; regenerating over unchanged data yields the same
// figures under a new ID.
func (s *ReportService) Generate(ctx context.Context) (*domain.SalesReport, error) {
	ctx, span := reportTracer.Start(ctx, "Reports.Generate")
	defer span.End()

	generatedAt := s.now()
	report := domain.BuildSalesReport(
		uuid.NewString(),
		fmt.Sprintf("Sales Report - %s", generatedAt.Format("2006-01-02")),
		generatedAt,
		s.sales.Leads(),
		s.sales.Opportunities(),
	)
	span.SetAttributes(
		attribute.String("report.id", report.ID),
		attribute.Int("report.total_leads", report.Summary.TotalLeads),
		attribute.Int("report.total_opportunities", report.Summary.TotalOpportunities),
	)

	if err := s.log.PrependReport(ctx, &report); err != nil {
		s.metrics.IncrExternalError("reports")
		return nil, err
	}

	s.metrics.IncrReportGenerated()
	s.logger.Info("reports: generated",
		zap.String("report_id", report.ID),
		zap.Int("leads", report.Summary.TotalLeads),
		zap.Int("opportunities", report.Summary.TotalOpportunities),
	)
	return &report, nil
}

// History returns all generated reports newest first.
func (s *ReportService) History(ctx context.Context) ([]domain.SalesReport, error) {
	ctx, span := reportTracer.Start(ctx, "Reports.History")
	defer span.End()

	reports, err := s.log.ListReports(ctx)
	if err != nil {
		s.metrics.IncrExternalError("reports")
		return nil, err
	}
	span.SetAttributes(attribute.Int("reports.count", len(reports)))
	return reports, nil
}
