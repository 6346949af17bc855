// Package sqlitelog keeps the sales report history and travel request
// log in a local SQLite database. It is the default backend when no
// Redis is configured.
package sqlitelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/bfcgroup/portal-api-go/internal/domain"
)

var tracer = otel.Tracer("sqlitelog")

const schema = `
CREATE TABLE IF NOT EXISTS sales_reports (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	id      TEXT NOT NULL UNIQUE,
	payload BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS travel_requests (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL UNIQUE,
	payload    BLOB NOT NULL
);
`

// Log implements port.ReportLog and port.TravelLog on a local SQLite
// file. Inserts are single statements, so a report prepend is atomic.
type Log struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (and if needed initializes) the database at path.
func Open(path string, logger *zap.Logger) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// The modernc driver requires a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &Log{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// PrependReport stores the report. Reports are returned newest first by
// descending insert order, so a plain insert is the prepend.
func (l *Log) PrependReport(ctx context.Context, report *domain.SalesReport) error {
	ctx, span := tracer.Start(ctx, "SQLite.PrependReport")
	defer span.End()
	span.SetAttributes(attribute.String("report.id", report.ID))

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if _, err := l.db.ExecContext(ctx,
		"INSERT INTO sales_reports (id, payload) VALUES (?, ?)",
		report.ID, payload,
	); err != nil {
		return &domain.ErrExternalService{Service: "sqlite/reports", Err: err}
	}
	return nil
}

// ListReports returns the full history newest first.
func (l *Log) ListReports(ctx context.Context) ([]domain.SalesReport, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListReports")
	defer span.End()

	rows, err := l.db.QueryContext(ctx,
		"SELECT payload FROM sales_reports ORDER BY seq DESC")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/reports", Err: err}
	}
	defer rows.Close()

	var reports []domain.SalesReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, &domain.ErrExternalService{Service: "sqlite/reports", Err: err}
		}
		var r domain.SalesReport
		if err := json.Unmarshal(payload, &r); err != nil {
			l.logger.Warn("sqlite: skipping undecodable report row", zap.Error(err))
			continue
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/reports", Err: err}
	}
	if reports == nil {
		reports = []domain.SalesReport{}
	}
	span.SetAttributes(attribute.Int("reports.count", len(reports)))
	return reports, nil
}

// AppendTravelRequest stores the request at the tail of the log.
func (l *Log) AppendTravelRequest(ctx context.Context, req *domain.TravelRequest) error {
	ctx, span := tracer.Start(ctx, "SQLite.AppendTravelRequest")
	defer span.End()
	span.SetAttributes(attribute.String("travel.request_id", req.RequestID))

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal travel request: %w", err)
	}
	if _, err := l.db.ExecContext(ctx,
		"INSERT INTO travel_requests (request_id, payload) VALUES (?, ?)",
		req.RequestID, payload,
	); err != nil {
		return &domain.ErrExternalService{Service: "sqlite/travel", Err: err}
	}
	return nil
}

// ListTravelRequests returns all travel requests oldest first.
func (l *Log) ListTravelRequests(ctx context.Context) ([]domain.TravelRequest, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListTravelRequests")
	defer span.End()

	rows, err := l.db.QueryContext(ctx,
		"SELECT payload FROM travel_requests ORDER BY seq ASC")
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/travel", Err: err}
	}
	defer rows.Close()

	var requests []domain.TravelRequest
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, &domain.ErrExternalService{Service: "sqlite/travel", Err: err}
		}
		var r domain.TravelRequest
		if err := json.Unmarshal(payload, &r); err != nil {
			l.logger.Warn("sqlite: skipping undecodable travel row", zap.Error(err))
			continue
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrExternalService{Service: "sqlite/travel", Err: err}
	}
	if requests == nil {
		requests = []domain.TravelRequest{}
	}
	return requests, nil
}

// CountTravelRequests returns the number of stored travel requests.
func (l *Log) CountTravelRequests(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM travel_requests").Scan(&n); err != nil {
		return 0, &domain.ErrExternalService{Service: "sqlite/travel", Err: err}
	}
	return n, nil
}
