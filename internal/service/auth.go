// Package service implements the portal's use cases on top of the
// ports. Services own validation, derived fields and the in-memory
// snapshots; persistence and transport stay in the adapters.
package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/observability"
	"github.com/bfcgroup/portal-api-go/internal/port"
)

var authTracer = otel.Tracer("service/auth")

// AuthService fronts the identity provider and emits session events for
// the identity watcher.
type AuthService struct {
	auth      port.AuthClient
	employees port.EmployeeStore
	metrics   *observability.Metrics
	logger    *zap.Logger
	events    chan domain.SessionEvent
}

// NewAuthService creates the auth service.
func NewAuthService(auth port.AuthClient, employees port.EmployeeStore, metrics *observability.Metrics, logger *zap.Logger) *AuthService {
	return &AuthService{
		auth:      auth,
		employees: employees,
		metrics:   metrics,
		logger:    logger,
		events:    make(chan domain.SessionEvent, 16),
	}
}

// Events is the session event stream consumed by IdentityService.Watch.
func (s *AuthService) Events() <-chan domain.SessionEvent {
	return s.events
}

// Login exchanges credentials for a session.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "Auth.Login")
	defer span.End()

	if strings.TrimSpace(req.Email) == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email is required"}
	}
	if req.Password == "" {
		return nil, &domain.ErrValidation{Field: "password", Message: "password is required"}
	}

	session, err := s.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	s.emit(domain.SessionEvent{Type: domain.SessionSignedIn, Session: session})
	s.logger.Info("auth: login", zap.String("account_id", session.Account.ID))
	return session, nil
}

// Signup registers a new account and provisions its employee directory
// row. The directory write is best effort: the account exists either
// way, and the identity resolver covers a missing row.
func (s *AuthService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.Session, error) {
	ctx, span := authTracer.Start(ctx, "Auth.Signup")
	defer span.End()

	if strings.TrimSpace(req.Email) == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "email is required"}
	}
	if len(req.Password) < 6 {
		return nil, &domain.ErrValidation{Field: "password", Message: "password must be at least 6 characters"}
	}

	session, err := s.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	employee := &domain.Employee{
		ID:         session.Account.ID,
		EmployeeID: domain.DefaultEmployeeID(session.Account.ID),
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: domain.DefaultDepartment,
		Position:   domain.DefaultPosition,
		Status:     "active",
	}
	if _, err := s.employees.CreateEmployee(ctx, employee); err != nil {
		s.logger.Warn("auth: employee provisioning failed",
			zap.String("account_id", session.Account.ID),
			zap.Error(err),
		)
	}

	s.emit(domain.SessionEvent{Type: domain.SessionSignedIn, Session: session})
	s.logger.Info("auth: signup", zap.String("account_id", session.Account.ID))
	return session, nil
}

// Logout revokes the session. Local session state is cleared whether or
// not the remote revocation succeeds.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	ctx, span := authTracer.Start(ctx, "Auth.Logout")
	defer span.End()

	if err := s.auth.SignOut(ctx, accessToken); err != nil {
		s.logger.Warn("auth: remote sign-out failed", zap.Error(err))
	}
	s.emit(domain.SessionEvent{Type: domain.SessionSignedOut})
	return nil
}

// ChangePassword sets a new password for the session's account.
func (s *AuthService) ChangePassword(ctx context.Context, accessToken, newPassword string) error {
	ctx, span := authTracer.Start(ctx, "Auth.ChangePassword")
	defer span.End()

	if len(newPassword) < 6 {
		return &domain.ErrValidation{Field: "newPassword", Message: "password must be at least 6 characters"}
	}
	return s.auth.UpdatePassword(ctx, accessToken, newPassword)
}

// emit delivers a session event without blocking request handling.
func (s *AuthService) emit(ev domain.SessionEvent) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("auth: session event dropped", zap.String("type", string(ev.Type)))
	}
}
