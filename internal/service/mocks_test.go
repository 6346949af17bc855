package service_test

import (
	"context"
	"sync"

	"github.com/bfcgroup/portal-api-go/internal/domain"
)

// --- Lead store ---

type mockLeadStore struct {
	mu        sync.Mutex
	leads     []domain.Lead
	listErr   error
	apiErr    error
	updates   map[string]any // last UpdateLead patch
	listCalls int
	listGate  chan struct{} // when set, the first ListLeads holds its result until the gate is closed
}

func (m *mockLeadStore) ListLeads(_ context.Context) ([]domain.Lead, error) {
	m.mu.Lock()
	m.listCalls++
	first := m.listCalls == 1
	gate := m.listGate
	if m.listErr != nil {
		err := m.listErr
		m.mu.Unlock()
		return nil, err
	}
	out := make([]domain.Lead, len(m.leads))
	copy(out, m.leads)
	m.mu.Unlock()

	if first && gate != nil {
		<-gate
	}
	return out, nil
}

func (m *mockLeadStore) setLeads(leads []domain.Lead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leads = leads
}

func (m *mockLeadStore) CreateLead(_ context.Context, lead *domain.Lead) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.apiErr != nil {
		return nil, m.apiErr
	}
	m.leads = append([]domain.Lead{*lead}, m.leads...)
	created := *lead
	return &created, nil
}

func (m *mockLeadStore) UpdateLead(_ context.Context, salesID string, updates map[string]any) (*domain.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.apiErr != nil {
		return nil, m.apiErr
	}
	m.updates = updates
	for i := range m.leads {
		if m.leads[i].SalesID == salesID {
			if v, ok := updates["status"].(string); ok {
				m.leads[i].Status = v
			}
			if v, ok := updates["account"].(string); ok {
				m.leads[i].Account = v
			}
			if v, ok := updates["amount"].(float64); ok {
				m.leads[i].Amount = v
			}
			if v, ok := updates["probability"].(int); ok {
				m.leads[i].Probability = v
			}
			updated := m.leads[i]
			return &updated, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "lead", ID: salesID}
}

func (m *mockLeadStore) DeleteLead(_ context.Context, salesID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.apiErr != nil {
		return m.apiErr
	}
	kept := m.leads[:0]
	for _, l := range m.leads {
		if l.SalesID != salesID {
			kept = append(kept, l)
		}
	}
	m.leads = kept
	return nil
}

// --- Opportunity store ---

type mockOppStore struct {
	mu     sync.Mutex
	opps   []domain.Opportunity
	apiErr error
}

func (m *mockOppStore) ListOpportunities(_ context.Context) ([]domain.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.apiErr != nil {
		return nil, m.apiErr
	}
	out := make([]domain.Opportunity, len(m.opps))
	copy(out, m.opps)
	return out, nil
}

func (m *mockOppStore) CreateOpportunity(_ context.Context, opp *domain.Opportunity) (*domain.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.apiErr != nil {
		return nil, m.apiErr
	}
	m.opps = append([]domain.Opportunity{*opp}, m.opps...)
	created := *opp
	return &created, nil
}

func (m *mockOppStore) UpdateOpportunity(_ context.Context, id string, updates map[string]any) (*domain.Opportunity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.apiErr != nil {
		return nil, m.apiErr
	}
	for i := range m.opps {
		if m.opps[i].ID == id {
			if v, ok := updates["stage"].(string); ok {
				m.opps[i].Stage = v
			}
			if v, ok := updates["probability"].(int); ok {
				m.opps[i].Probability = v
			}
			updated := m.opps[i]
			return &updated, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "opportunity", ID: id}
}

func (m *mockOppStore) DeleteOpportunity(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.opps[:0]
	for _, o := range m.opps {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	m.opps = kept
	return nil
}

// --- Change feed ---

type mockFeed struct {
	mu         sync.Mutex
	published  []domain.LeadChange
	publishErr error
	events     chan domain.LeadChange
}

func newMockFeed() *mockFeed {
	return &mockFeed{events: make(chan domain.LeadChange, 16)}
}

func (m *mockFeed) PublishLeadChange(_ context.Context, change domain.LeadChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, change)
	return nil
}

func (m *mockFeed) SubscribeLeadChanges(_ context.Context) (<-chan domain.LeadChange, error) {
	return m.events, nil
}

func (m *mockFeed) Close() error { return nil }

func (m *mockFeed) publishedChanges() []domain.LeadChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.LeadChange, len(m.published))
	copy(out, m.published)
	return out
}

// --- Auth client ---

type mockAuthClient struct {
	session    *domain.Session
	account    *domain.Account
	signInErr  error
	signUpErr  error
	signOutErr error
	getUserErr error
	updateErr  error
	signedOut  bool
}

func (m *mockAuthClient) SignIn(_ context.Context, _, _ string) (*domain.Session, error) {
	return m.session, m.signInErr
}

func (m *mockAuthClient) SignUp(_ context.Context, _, _ string) (*domain.Session, error) {
	return m.session, m.signUpErr
}

func (m *mockAuthClient) SignOut(_ context.Context, _ string) error {
	m.signedOut = true
	return m.signOutErr
}

func (m *mockAuthClient) GetUser(_ context.Context, _ string) (*domain.Account, error) {
	return m.account, m.getUserErr
}

func (m *mockAuthClient) UpdatePassword(_ context.Context, _, _ string) error {
	return m.updateErr
}

// --- Employee store ---

type mockEmployeeStore struct {
	mu        sync.Mutex
	employees []domain.Employee
	getErr    error
	listErr   error
	createErr error
	created   []domain.Employee
}

func (m *mockEmployeeStore) GetEmployee(_ context.Context, id string) (*domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for i := range m.employees {
		if m.employees[i].ID == id {
			e := m.employees[i]
			return &e, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "employee", ID: id}
}

func (m *mockEmployeeStore) ListEmployees(_ context.Context) ([]domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Employee, len(m.employees))
	copy(out, m.employees)
	return out, nil
}

func (m *mockEmployeeStore) CreateEmployee(_ context.Context, e *domain.Employee) (*domain.Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.employees = append(m.employees, *e)
	m.created = append(m.created, *e)
	created := *e
	return &created, nil
}

// --- Expense store ---

type mockExpenseStore struct {
	mu       sync.Mutex
	expenses []domain.Expense
	apiErr   error
	updates  map[string]any
}

func (m *mockExpenseStore) ListExpenses(_ context.Context) ([]domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.apiErr != nil {
		return nil, m.apiErr
	}
	out := make([]domain.Expense, len(m.expenses))
	copy(out, m.expenses)
	return out, nil
}

func (m *mockExpenseStore) CreateExpense(_ context.Context, exp *domain.Expense) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.apiErr != nil {
		return nil, m.apiErr
	}
	m.expenses = append([]domain.Expense{*exp}, m.expenses...)
	created := *exp
	return &created, nil
}

func (m *mockExpenseStore) UpdateExpense(_ context.Context, expenseID string, updates map[string]any) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = updates
	for i := range m.expenses {
		if m.expenses[i].ExpenseID == expenseID {
			if v, ok := updates["amount"].(float64); ok {
				m.expenses[i].Amount = v
			}
			if v, ok := updates["currency"].(string); ok {
				m.expenses[i].Currency = v
			}
			if v, ok := updates["amount_aed"].(float64); ok {
				m.expenses[i].AmountAED = v
			}
			updated := m.expenses[i]
			return &updated, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "expense", ID: expenseID}
}

func (m *mockExpenseStore) DeleteExpense(_ context.Context, expenseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.expenses[:0]
	for _, e := range m.expenses {
		if e.ExpenseID != expenseID {
			kept = append(kept, e)
		}
	}
	m.expenses = kept
	return nil
}

// --- Receipt storage ---

type mockReceiptStorage struct {
	uploadedPath string
	url          string
	err          error
}

func (m *mockReceiptStorage) UploadReceipt(_ context.Context, path, _ string, _ []byte) (string, error) {
	m.uploadedPath = path
	return m.url, m.err
}

// --- Travel log ---

type mockTravelLog struct {
	mu       sync.Mutex
	requests []domain.TravelRequest
	err      error
}

func (m *mockTravelLog) ListTravelRequests(_ context.Context) ([]domain.TravelRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.TravelRequest, len(m.requests))
	copy(out, m.requests)
	return out, nil
}

func (m *mockTravelLog) AppendTravelRequest(_ context.Context, req *domain.TravelRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.requests = append(m.requests, *req)
	return nil
}

func (m *mockTravelLog) CountTravelRequests(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.requests), nil
}

// --- Report log ---

type mockReportLog struct {
	mu      sync.Mutex
	reports []domain.SalesReport // newest first
	err     error
}

func (m *mockReportLog) PrependReport(_ context.Context, report *domain.SalesReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.reports = append([]domain.SalesReport{*report}, m.reports...)
	return nil
}

func (m *mockReportLog) ListReports(_ context.Context) ([]domain.SalesReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.SalesReport, len(m.reports))
	copy(out, m.reports)
	return out, nil
}
