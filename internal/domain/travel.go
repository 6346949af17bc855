package domain

import "fmt"

// travelRequestBase is the first request number issued. Subsequent
// requests count up from it.
const travelRequestBase = 3001

// TravelRequest is a travel authorization request kept in the durable
// request log. Amounts are in AED.
type TravelRequest struct {
	RequestID   string  `json:"request_id"`
	Employee    string  `json:"employee"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Purpose     string  `json:"purpose,omitempty"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// Travel request statuses.
const (
	TravelPending  = "pending"
	TravelApproved = "approved"
	TravelRejected = "rejected"
)

// NextTravelRequestID mints the request identifier for the n-th request
// (zero-based), e.g. "BFC-3001" for the first.
func NextTravelRequestID(existing int) string {
	return fmt.Sprintf("BFC-%d", travelRequestBase+existing)
}

// CreateTravelRequest is the body for POST /v1/travel.
type CreateTravelRequest struct {
	Employee    string  `json:"employee"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Purpose     string  `json:"purpose,omitempty"`
	Amount      float64 `json:"amount"`
}
