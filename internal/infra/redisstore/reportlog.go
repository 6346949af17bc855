package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bfcgroup/portal-api-go/internal/domain"
)

const (
	reportsKey = "portal:sales_reports"
	travelKey  = "portal:travel_requests"
)

// ReportLog implements port.ReportLog and port.TravelLog on Redis
// lists. LPUSH makes the report prepend atomic; concurrent generations
// never lose an entry.
type ReportLog struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewReportLog creates a Redis-backed report and travel log.
func NewReportLog(rdb *redis.Client, logger *zap.Logger) *ReportLog {
	return &ReportLog{rdb: rdb, logger: logger}
}

// PrependReport pushes the report onto the head of the history list.
func (l *ReportLog) PrependReport(ctx context.Context, report *domain.SalesReport) error {
	ctx, span := tracer.Start(ctx, "Redis.PrependReport")
	defer span.End()
	span.SetAttributes(attribute.String("report.id", report.ID))

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := l.rdb.LPush(ctx, reportsKey, payload).Err(); err != nil {
		return &domain.ErrExternalService{Service: "redis/reports", Err: err}
	}
	return nil
}

// ListReports returns the full history newest first.
func (l *ReportLog) ListReports(ctx context.Context) ([]domain.SalesReport, error) {
	ctx, span := tracer.Start(ctx, "Redis.ListReports")
	defer span.End()

	raw, err := l.rdb.LRange(ctx, reportsKey, 0, -1).Result()
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "redis/reports", Err: err}
	}

	reports := make([]domain.SalesReport, 0, len(raw))
	for _, item := range raw {
		var r domain.SalesReport
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			l.logger.Warn("redis: skipping undecodable report entry", zap.Error(err))
			continue
		}
		reports = append(reports, r)
	}
	span.SetAttributes(attribute.Int("reports.count", len(reports)))
	return reports, nil
}

// AppendTravelRequest pushes the request onto the tail of the travel
// list so request numbers stay in issue order.
func (l *ReportLog) AppendTravelRequest(ctx context.Context, req *domain.TravelRequest) error {
	ctx, span := tracer.Start(ctx, "Redis.AppendTravelRequest")
	defer span.End()
	span.SetAttributes(attribute.String("travel.request_id", req.RequestID))

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal travel request: %w", err)
	}
	if err := l.rdb.RPush(ctx, travelKey, payload).Err(); err != nil {
		return &domain.ErrExternalService{Service: "redis/travel", Err: err}
	}
	return nil
}

// ListTravelRequests returns all travel requests oldest first.
func (l *ReportLog) ListTravelRequests(ctx context.Context) ([]domain.TravelRequest, error) {
	ctx, span := tracer.Start(ctx, "Redis.ListTravelRequests")
	defer span.End()

	raw, err := l.rdb.LRange(ctx, travelKey, 0, -1).Result()
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "redis/travel", Err: err}
	}

	requests := make([]domain.TravelRequest, 0, len(raw))
	for _, item := range raw {
		var r domain.TravelRequest
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			l.logger.Warn("redis: skipping undecodable travel entry", zap.Error(err))
			continue
		}
		requests = append(requests, r)
	}
	return requests, nil
}

// CountTravelRequests returns the number of stored travel requests.
func (l *ReportLog) CountTravelRequests(ctx context.Context) (int, error) {
	n, err := l.rdb.LLen(ctx, travelKey).Result()
	if err != nil {
		return 0, &domain.ErrExternalService{Service: "redis/travel", Err: err}
	}
	return int(n), nil
}
