package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/observability"
	"github.com/bfcgroup/portal-api-go/internal/port"
)

var directoryTracer = otel.Tracer("service/directory")

const directoryCacheKey = "employees:all"

// DirectoryService serves the employee directory with a short-lived
// cache in front of the store.
type DirectoryService struct {
	store   port.EmployeeStore
	cache   port.Cache[[]domain.Employee]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDirectoryService creates the directory service.
func NewDirectoryService(store port.EmployeeStore, cache port.Cache[[]domain.Employee], metrics *observability.Metrics, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// List returns the full directory.
func (s *DirectoryService) List(ctx context.Context) ([]domain.Employee, error) {
	ctx, span := directoryTracer.Start(ctx, "Directory.List")
	defer span.End()

	if cached, ok := s.cache.Get(directoryCacheKey); ok {
		s.metrics.IncrCacheHit("employees")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("employees")

	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		s.metrics.IncrExternalError("employees")
		return nil, err
	}
	s.cache.Set(directoryCacheKey, employees)
	span.SetAttributes(attribute.Int("employees.count", len(employees)))
	return employees, nil
}

// Get returns one directory row by account ID.
func (s *DirectoryService) Get(ctx context.Context, id string) (*domain.Employee, error) {
	ctx, span := directoryTracer.Start(ctx, "Directory.Get")
	defer span.End()
	span.SetAttributes(attribute.String("employee.id", id))

	return s.store.GetEmployee(ctx, id)
}
