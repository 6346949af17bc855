package domain

import "encoding/json"

// Opportunity stages as stored in sales_opportunities.
const (
	StageDiscovery   = "discovery"
	StageQualified   = "qualified"
	StageProposal    = "proposal"
	StageNegotiation = "negotiation"
	StageClosedWon   = "closed_won"
	StageClosedLost  = "closed_lost"
)

// OpportunityStages is the canonical ordering used for report
// breakdowns. Every stage appears in a report even when its count is
// zero.
var OpportunityStages = []string{
	StageDiscovery,
	StageQualified,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// Opportunity is a row in sales_opportunities.
type Opportunity struct {
	ID                string  `json:"id"`
	ClientName        string  `json:"client_name"`
	OpportunityValue  float64 `json:"opportunity_value"`
	Stage             string  `json:"stage"`
	Probability       int     `json:"probability"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty"`
	ProductService    string  `json:"product_service,omitempty"`
	LeadSource        string  `json:"lead_source,omitempty"`
	Description       string  `json:"description,omitempty"`
	CreatedBy         string  `json:"created_by,omitempty"`
	CreatedAt         string  `json:"created_at,omitempty"`
}

// CreateOpportunityRequest is the body for POST /v1/sales/opportunities.
type CreateOpportunityRequest struct {
	ClientName        string      `json:"clientName"`
	OpportunityValue  json.Number `json:"opportunityValue"`
	Stage             string      `json:"stage"`
	Probability       *int        `json:"probability,omitempty"`
	ExpectedCloseDate string      `json:"expectedCloseDate,omitempty"`
	ProductService    string      `json:"productService,omitempty"`
	LeadSource        string      `json:"leadSource,omitempty"`
	Description       string      `json:"description,omitempty"`
}

// UpdateOpportunityRequest is the body for PUT /v1/sales/opportunities/{id}.
type UpdateOpportunityRequest struct {
	ClientName        *string      `json:"clientName,omitempty"`
	OpportunityValue  *json.Number `json:"opportunityValue,omitempty"`
	Stage             *string      `json:"stage,omitempty"`
	Probability       *int         `json:"probability,omitempty"`
	ExpectedCloseDate *string      `json:"expectedCloseDate,omitempty"`
	ProductService    *string      `json:"productService,omitempty"`
	LeadSource        *string      `json:"leadSource,omitempty"`
	Description       *string      `json:"description,omitempty"`
}
