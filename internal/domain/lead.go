package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Lead statuses as stored in leads_management.
const (
	LeadStatusNew    = "new"
	LeadStatusUpsell = "upsell"
)

// LeadStatuses is the full status enumeration, zero-filled in report
// breakdowns. Rows carrying an unrecognized stored status still count
// under their own key.
var LeadStatuses = []string{
	LeadStatusNew,
	LeadStatusUpsell,
}

// Lead is a row in leads_management.
type Lead struct {
	SalesID     string  `json:"sales_id"`
	Account     string  `json:"account"`
	Status      string  `json:"status"`
	Amount      float64 `json:"amount"`
	Probability int     `json:"probability"`
	ClosureDate string  `json:"closure_date,omitempty"`
	LeadSource  string  `json:"lead_source,omitempty"`
	Vendor      string  `json:"vendor,omitempty"`
	CreatedBy   string  `json:"created_by,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// ComputeLeadProbability derives the probability score from the lead
// status. Scores are clamped to [0, 100].
func ComputeLeadProbability(status string) int {
	var p int
	switch status {
	case LeadStatusNew:
		p = 10
	case LeadStatusUpsell:
		p = 20
	default:
		p = 10
	}
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// NewSalesID mints a lead identifier from the current wall clock in
// milliseconds, e.g. "BFC-1756706400000".
func NewSalesID(now time.Time) string {
	return fmt.Sprintf("BFC-%d", now.UnixMilli())
}

// CreateLeadRequest is the body for POST /v1/sales/leads. Amount is a
// json.Number so both quoted and bare numerics are accepted.
type CreateLeadRequest struct {
	Account     string      `json:"account"`
	Status      string      `json:"status"`
	Amount      json.Number `json:"amount"`
	ClosureDate string      `json:"closureDate,omitempty"`
	LeadSource  string      `json:"leadSource,omitempty"`
	Vendor      string      `json:"vendor,omitempty"`
}

// UpdateLeadRequest is the body for PUT /v1/sales/leads/{salesId}. Nil
// fields are left untouched.
type UpdateLeadRequest struct {
	Account     *string      `json:"account,omitempty"`
	Status      *string      `json:"status,omitempty"`
	Amount      *json.Number `json:"amount,omitempty"`
	ClosureDate *string      `json:"closureDate,omitempty"`
	LeadSource  *string      `json:"leadSource,omitempty"`
	Vendor      *string      `json:"vendor,omitempty"`
}

// ChangeType classifies a change-feed event.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// LeadChange is a single change-feed event for leads_management. For
// deletes only Lead.SalesID is populated.
type LeadChange struct {
	Type ChangeType `json:"type"`
	Lead Lead       `json:"lead"`
}
