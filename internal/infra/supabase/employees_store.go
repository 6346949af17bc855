package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bfcgroup/portal-api-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Employees store (implements port.EmployeeStore)
// Table: employees — keyed by the auth account ID
// ============================================================

type supabaseEmployee struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employee_id"`
	Email      string  `json:"email"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	HireDate   *string `json:"hire_date"`
	Status     *string `json:"status"`
	Phone      *string `json:"phone"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func (r supabaseEmployee) toDomain() domain.Employee {
	return domain.Employee{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Email:      r.Email,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Department: r.Department,
		Position:   r.Position,
		HireDate:   deref(r.HireDate),
		Status:     deref(r.Status),
		Phone:      deref(r.Phone),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// GetEmployee fetches the directory row for the given account ID.
func (c *Client) GetEmployee(ctx context.Context, id string) (*domain.Employee, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetEmployee")
	defer span.End()
	span.SetAttributes(attribute.String("employee.id", id))

	var employee *domain.Employee

	err := c.execute(ctx, func() error {
		path := fmt.Sprintf("employees?id=eq.%s&limit=1", url.QueryEscape(id))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			return &domain.ErrNotFound{Resource: "employee", ID: id}
		}

		var rows []supabaseEmployee
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode employee: %w", err)
		}
		if len(rows) == 0 {
			return &domain.ErrNotFound{Resource: "employee", ID: id}
		}
		e := rows[0].toDomain()
		employee = &e
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/employees", Err: err}
	}

	return employee, nil
}

// ListEmployees fetches the full directory ordered by first name.
func (c *Client) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListEmployees")
	defer span.End()

	var employees []domain.Employee

	err := c.execute(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, "employees?select=*&order=first_name.asc")
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			employees = []domain.Employee{}
			return nil
		}

		var rows []supabaseEmployee
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode employees: %w", err)
		}
		employees = make([]domain.Employee, 0, len(rows))
		for _, r := range rows {
			employees = append(employees, r.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/employees", Err: err}
	}

	span.SetAttributes(attribute.Int("employees.count", len(employees)))
	return employees, nil
}

// CreateEmployee inserts a directory row, typically at signup.
func (c *Client) CreateEmployee(ctx context.Context, e *domain.Employee) (*domain.Employee, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateEmployee")
	defer span.End()
	span.SetAttributes(attribute.String("employee.id", e.ID))

	var created *domain.Employee

	err := c.execute(ctx, func() error {
		body, err := c.doPost(ctx, "employees", e)
		if err != nil {
			return err
		}

		var rows []supabaseEmployee
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode created employee: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("insert returned no representation")
		}
		emp := rows[0].toDomain()
		created = &emp
		return nil
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/employees", Err: err}
	}

	return created, nil
}
