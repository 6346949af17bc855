package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bfcgroup/portal-api-go/internal/domain"
	"github.com/bfcgroup/portal-api-go/internal/infra/cache"
	"github.com/bfcgroup/portal-api-go/internal/infra/observability"
	"github.com/bfcgroup/portal-api-go/internal/service"

	"go.uber.org/zap"
)

func newIdentityService(auth *mockAuthClient, employees *mockEmployeeStore) *service.IdentityService {
	return service.NewIdentityService(
		auth,
		employees,
		cache.New[*domain.Identity](time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestResolve_EmployeeRowWins(t *testing.T) {
	employees := &mockEmployeeStore{employees: []domain.Employee{
		{ID: "acc-1", Email: "maria@bfc.example", FirstName: "Maria", LastName: "Haddad", Department: "Finance", Position: "Analyst"},
	}}
	svc := newIdentityService(&mockAuthClient{}, employees)

	identity, err := svc.Resolve(context.Background(), "acc-1", "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if identity.FirstName != "Maria" || identity.Department != "Finance" {
		t.Errorf("expected the directory row, got %+v", identity)
	}
}

func TestResolve_FallsBackToAccount(t *testing.T) {
	auth := &mockAuthClient{account: &domain.Account{ID: "acc-2", Email: "jsmith@bfc.example"}}
	svc := newIdentityService(auth, &mockEmployeeStore{})

	identity, err := svc.Resolve(context.Background(), "acc-2", "token")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if identity.FirstName != "Jsmith" {
		t.Errorf("expected synthesized first name 'Jsmith', got '%s'", identity.FirstName)
	}
	if identity.Department != domain.DefaultDepartment || identity.Position != domain.DefaultPosition {
		t.Errorf("expected fallback defaults, got %+v", identity)
	}
}

func TestResolve_DirectoryOutageFallsBack(t *testing.T) {
	auth := &mockAuthClient{account: &domain.Account{ID: "acc-3", Email: "omar@bfc.example"}}
	employees := &mockEmployeeStore{getErr: errors.New("supabase unavailable")}
	svc := newIdentityService(auth, employees)

	identity, err := svc.Resolve(context.Background(), "acc-3", "token")
	if err != nil {
		t.Fatalf("a directory outage must not fail resolution, got %v", err)
	}
	if identity.FirstName != "Omar" {
		t.Errorf("expected 'Omar', got '%s'", identity.FirstName)
	}
}

func TestResolve_AccountLookupFailureErrors(t *testing.T) {
	auth := &mockAuthClient{getUserErr: errors.New("token expired")}
	employees := &mockEmployeeStore{getErr: errors.New("supabase unavailable")}
	svc := newIdentityService(auth, employees)

	if _, err := svc.Resolve(context.Background(), "acc-4", "token"); err == nil {
		t.Error("expected an error when both lookups fail")
	}
}

func TestResolve_CachesResult(t *testing.T) {
	employees := &mockEmployeeStore{employees: []domain.Employee{
		{ID: "acc-5", Email: "x@bfc.example", FirstName: "X"},
	}}
	svc := newIdentityService(&mockAuthClient{}, employees)

	if _, err := svc.Resolve(context.Background(), "acc-5", "token"); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	// Break the store; the cached identity must still come back.
	employees.mu.Lock()
	employees.getErr = errors.New("supabase unavailable")
	employees.mu.Unlock()

	identity, err := svc.Resolve(context.Background(), "acc-5", "token")
	if err != nil {
		t.Fatalf("cached resolve failed: %v", err)
	}
	if identity.FirstName != "X" {
		t.Errorf("expected cached identity, got %+v", identity)
	}
}

func TestWatch_SignInResolvesCurrent(t *testing.T) {
	employees := &mockEmployeeStore{employees: []domain.Employee{
		{ID: "acc-6", Email: "a@bfc.example", FirstName: "A"},
	}}
	svc := newIdentityService(&mockAuthClient{}, employees)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan domain.SessionEvent, 1)
	svc.Watch(ctx, events)

	events <- domain.SessionEvent{
		Type:    domain.SessionSignedIn,
		Session: &domain.Session{AccessToken: "t", Account: domain.Account{ID: "acc-6", Email: "a@bfc.example"}},
	}

	deadline := time.After(2 * time.Second)
	for {
		if current, ok := svc.Current(); ok {
			if current.FirstName != "A" {
				t.Errorf("expected identity 'A', got %+v", current)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("identity was never resolved")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatch_SignOutClearsCurrent(t *testing.T) {
	employees := &mockEmployeeStore{employees: []domain.Employee{
		{ID: "acc-7", Email: "b@bfc.example", FirstName: "B"},
	}}
	svc := newIdentityService(&mockAuthClient{}, employees)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan domain.SessionEvent, 2)
	svc.Watch(ctx, events)

	events <- domain.SessionEvent{
		Type:    domain.SessionSignedIn,
		Session: &domain.Session{AccessToken: "t", Account: domain.Account{ID: "acc-7", Email: "b@bfc.example"}},
	}

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := svc.Current(); ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("identity was never resolved")
		case <-time.After(10 * time.Millisecond):
		}
	}

	events <- domain.SessionEvent{Type: domain.SessionSignedOut}

	deadline = time.After(2 * time.Second)
	for {
		if _, ok := svc.Current(); !ok {
			return
		}
		select {
		case <-deadline:
			t.Fatal("identity was never cleared")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
