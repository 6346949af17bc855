package domain

// Employee is a row in the employees directory table. The ID matches the
// auth account ID so profiles can be looked up directly from a session.
type Employee struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	Position   string `json:"position"`
	HireDate   string `json:"hire_date,omitempty"`
	Status     string `json:"status,omitempty"`
	Phone      string `json:"phone,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// DefaultEmployeeID derives the provisional badge number assigned at
// signup: "EMP" plus the last six characters of the account ID.
func DefaultEmployeeID(accountID string) string {
	tail := accountID
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return "EMP" + tail
}
