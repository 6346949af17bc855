// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/bfcgroup/portal-api-go/internal/domain"
)

// AuthClient talks to the identity provider (GoTrue).
type AuthClient interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	SignUp(ctx context.Context, email, password string) (*domain.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*domain.Account, error)
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
}

// EmployeeStore reads and writes the employees directory table.
type EmployeeStore interface {
	GetEmployee(ctx context.Context, id string) (*domain.Employee, error)
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	CreateEmployee(ctx context.Context, e *domain.Employee) (*domain.Employee, error)
}

// LeadStore persists leads_management rows. Lists are ordered newest
// first. DeleteLead on an absent sales ID is a no-op.
type LeadStore interface {
	ListLeads(ctx context.Context) ([]domain.Lead, error)
	CreateLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)
	UpdateLead(ctx context.Context, salesID string, updates map[string]any) (*domain.Lead, error)
	DeleteLead(ctx context.Context, salesID string) error
}

// OpportunityStore persists sales_opportunities rows.
type OpportunityStore interface {
	ListOpportunities(ctx context.Context) ([]domain.Opportunity, error)
	CreateOpportunity(ctx context.Context, opp *domain.Opportunity) (*domain.Opportunity, error)
	UpdateOpportunity(ctx context.Context, id string, updates map[string]any) (*domain.Opportunity, error)
	DeleteOpportunity(ctx context.Context, id string) error
}

// ExpenseStore persists expense rows.
type ExpenseStore interface {
	ListExpenses(ctx context.Context) ([]domain.Expense, error)
	CreateExpense(ctx context.Context, exp *domain.Expense) (*domain.Expense, error)
	UpdateExpense(ctx context.Context, expenseID string, updates map[string]any) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, expenseID string) error
}

// ReceiptStorage uploads receipt files and returns a public URL.
type ReceiptStorage interface {
	UploadReceipt(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// ReportLog is the durable, append-only sales report history. Prepend
// places the report at the head atomically; List returns newest first.
type ReportLog interface {
	PrependReport(ctx context.Context, report *domain.SalesReport) error
	ListReports(ctx context.Context) ([]domain.SalesReport, error)
}

// TravelLog is the durable travel request log, ordered oldest first so
// request numbers stay sequential.
type TravelLog interface {
	ListTravelRequests(ctx context.Context) ([]domain.TravelRequest, error)
	AppendTravelRequest(ctx context.Context, req *domain.TravelRequest) error
	CountTravelRequests(ctx context.Context) (int, error)
}

// ChangeFeed distributes lead change events to subscribed portal
// instances. Publish is best effort; a lost event is corrected by the
// next list refresh.
type ChangeFeed interface {
	PublishLeadChange(ctx context.Context, change domain.LeadChange) error
	SubscribeLeadChanges(ctx context.Context) (<-chan domain.LeadChange, error)
	Close() error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
