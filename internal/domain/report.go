package domain

import (
	"sort"
	"time"
)

// ReportSummary holds the aggregate figures of a sales report.
type ReportSummary struct {
	TotalLeads            int     `json:"total_leads"`
	TotalOpportunities    int     `json:"total_opportunities"`
	TotalLeadValue        float64 `json:"total_lead_value"`
	TotalOpportunityValue float64 `json:"total_opportunity_value"`
	AvgLeadProbability    float64 `json:"avg_lead_probability"`
	AvgOppProbability     float64 `json:"avg_opp_probability"`
	CombinedValue         float64 `json:"combined_value"`
}

// SalesReport is a point-in-time snapshot of the sales pipeline. Once
// generated a report is never mutated.
type SalesReport struct {
	ID                   string         `json:"id"`
	ReportName           string         `json:"report_name"`
	GeneratedAt          time.Time      `json:"generated_at"`
	Summary              ReportSummary  `json:"summary"`
	LeadsByStatus        map[string]int `json:"leads_by_status"`
	OpportunitiesByStage map[string]int `json:"opportunities_by_stage"`
	TopLeads             []Lead         `json:"top_leads"`
	TopOpportunities     []Opportunity  `json:"top_opportunities"`
}

// BuildSalesReport aggregates the given snapshots into a report.
// Breakdowns are zero-filled over the full status and stage enums,
// averages are 0 for empty inputs, and the top lists hold at most five
// entries ordered by value descending with input order preserved on
// ties.
func BuildSalesReport(id, name string, generatedAt time.Time, leads []Lead, opps []Opportunity) SalesReport {
	r := SalesReport{
		ID:                   id,
		ReportName:           name,
		GeneratedAt:          generatedAt,
		LeadsByStatus:        make(map[string]int, len(LeadStatuses)),
		OpportunitiesByStage: make(map[string]int, len(OpportunityStages)),
	}
	for _, s := range LeadStatuses {
		r.LeadsByStatus[s] = 0
	}
	for _, s := range OpportunityStages {
		r.OpportunitiesByStage[s] = 0
	}

	var leadValue, leadProb float64
	for _, l := range leads {
		leadValue += l.Amount
		leadProb += float64(l.Probability)
		r.LeadsByStatus[l.Status]++
	}
	var oppValue, oppProb float64
	for _, o := range opps {
		oppValue += o.OpportunityValue
		oppProb += float64(o.Probability)
		r.OpportunitiesByStage[o.Stage]++
	}

	r.Summary = ReportSummary{
		TotalLeads:            len(leads),
		TotalOpportunities:    len(opps),
		TotalLeadValue:        leadValue,
		TotalOpportunityValue: oppValue,
		CombinedValue:         leadValue + oppValue,
	}
	if len(leads) > 0 {
		r.Summary.AvgLeadProbability = leadProb / float64(len(leads))
	}
	if len(opps) > 0 {
		r.Summary.AvgOppProbability = oppProb / float64(len(opps))
	}

	r.TopLeads = topLeads(leads, 5)
	r.TopOpportunities = topOpportunities(opps, 5)
	return r
}

func topLeads(leads []Lead, n int) []Lead {
	sorted := make([]Lead, len(leads))
	copy(sorted, leads)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount > sorted[j].Amount
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func topOpportunities(opps []Opportunity, n int) []Opportunity {
	sorted := make([]Opportunity, len(opps))
	copy(sorted, opps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OpportunityValue > sorted[j].OpportunityValue
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
