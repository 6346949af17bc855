package service

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/observability"
	"github.com/bfcgroup/portal-api-go/internal/port"
)

var identityTracer = otel.Tracer("service/identity")

// IdentityService resolves the portal identity for authenticated
// accounts and tracks the current session identity for the watcher.
type IdentityService struct {
	auth      port.AuthClient
	employees port.EmployeeStore
	cache     port.Cache[*domain.Identity]
	metrics   *observability.Metrics
	logger    *zap.Logger

	mu      sync.RWMutex
	current *domain.Identity
	gen     uint64 // bumped on sign-out so stale resolutions are discarded
}

// NewIdentityService creates the identity resolver.
func NewIdentityService(auth port.AuthClient, employees port.EmployeeStore, cache port.Cache[*domain.Identity], metrics *observability.Metrics, logger *zap.Logger) *IdentityService {
	return &IdentityService{
		auth:      auth,
		employees: employees,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// Resolve builds the identity for the given account. The employee
// directory is authoritative; when the directory row is missing or the
// lookup fails, the identity is synthesized from the account itself so
// a signed-in user is never left without a profile. Only a failed
// account lookup is an error.
func (s *IdentityService) Resolve(ctx context.Context, accountID, accessToken string) (*domain.Identity, error) {
	ctx, span := identityTracer.Start(ctx, "Identity.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	cacheKey := "identity:" + accountID
	if cached, ok := s.cache.Get(cacheKey); ok {
		s.metrics.IncrCacheHit("identity")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("identity")

	employee, err := s.employees.GetEmployee(ctx, accountID)
	if err == nil {
		identity := domain.IdentityFromEmployee(employee)
		s.cache.Set(cacheKey, identity)
		return identity, nil
	}
	s.logger.Warn("identity: employee lookup failed, falling back to account",
		zap.String("account_id", accountID),
		zap.Error(err),
	)

	account, err := s.auth.GetUser(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	identity := domain.FallbackIdentity(account)
	s.cache.Set(cacheKey, identity)
	return identity, nil
}

// Watch consumes session events until ctx is cancelled. Sign-outs clear
// the current identity synchronously; sign-ins resolve in a separate
// goroutine so a slow directory lookup never delays a sign-out that
// follows it. A resolution that finishes after a later sign-out is
// discarded.
func (s *IdentityService) Watch(ctx context.Context, events <-chan domain.SessionEvent) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				switch ev.Type {
				case domain.SessionSignedOut:
					s.clear()
				case domain.SessionSignedIn:
					if ev.Session == nil {
						continue
					}
					sess := *ev.Session
					gen := s.generation()
					go func() {
						identity, err := s.Resolve(ctx, sess.Account.ID, sess.AccessToken)
						if err != nil {
							s.logger.Error("identity: resolution failed",
								zap.String("account_id", sess.Account.ID),
								zap.Error(err),
							)
							return
						}
						s.setCurrent(identity, gen)
					}()
				}
			}
		}
	}()
}

// Current returns the identity of the most recent resolved sign-in.
func (s *IdentityService) Current() (*domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

func (s *IdentityService) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.cache.Delete("identity:" + s.current.ID)
	}
	s.current = nil
	s.gen++
}

func (s *IdentityService) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *IdentityService) setCurrent(identity *domain.Identity, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// Signed out while the resolution was in flight.
		return
	}
	s.current = identity
}
