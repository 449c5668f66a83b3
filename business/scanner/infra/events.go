package infra

import (
	"time"

	"github.com/shopspring/decimal"

	executionDomain "github.com/fd1az/dex-scanner/business/execution/domain"
	"github.com/fd1az/dex-scanner/business/scanner/domain"
)

// Event types published by the pub/sub reporter.
const (
	EventOpportunity = "opportunity"
	EventResult      = "result"
	EventCycle       = "cycle"
)

// Event is the JSON envelope of published messages.
type Event struct {
	Type        string                             `json:"type"`
	At          time.Time                          `json:"at"`
	Opportunity *OpportunityPayload                `json:"opportunity,omitempty"`
	Result      *executionDomain.TransactionResult `json:"result,omitempty"`
	Cycle       *CyclePayload                      `json:"cycle,omitempty"`
}

// OpportunityPayload is the wire form of an opportunity.
type OpportunityPayload struct {
	Venue     string          `json:"venue"`
	Pair      string          `json:"pair"`
	Address   string          `json:"address,omitempty"`
	Trigger   string          `json:"trigger"`
	Action    string          `json:"action"`
	Price     decimal.Decimal `json:"price"`
	Reference decimal.Decimal `json:"reference"`
	Change    decimal.Decimal `json:"change"`
	Amount    decimal.Decimal `json:"amount"`
	RSI       decimal.Decimal `json:"rsi"`
	WMA       decimal.Decimal `json:"wma"`
}

// CyclePayload is the wire form of a cycle summary.
type CyclePayload struct {
	Cycle         uint64   `json:"cycle"`
	DurationMs    int64    `json:"duration_ms"`
	Pairs         int      `json:"pairs"`
	Filtered      int      `json:"filtered"`
	Opportunities int      `json:"opportunities"`
	FailedVenues  []string `json:"failed_venues,omitempty"`
}

func opportunityPayload(opp domain.Opportunity) *OpportunityPayload {
	return &OpportunityPayload{
		Venue:     opp.Venue.String(),
		Pair:      opp.Pair.Key(),
		Address:   opp.Pair.Address,
		Trigger:   string(opp.Trigger),
		Action:    string(opp.Action),
		Price:     opp.Price,
		Reference: opp.Reference,
		Change:    opp.Change,
		Amount:    opp.Amount,
		RSI:       opp.Signal.RSI,
		WMA:       opp.Signal.WMA,
	}
}

func cyclePayload(r domain.CycleReport) *CyclePayload {
	p := &CyclePayload{
		Cycle:         r.Cycle,
		DurationMs:    r.Duration.Milliseconds(),
		Pairs:         len(r.Outcomes),
		Filtered:      r.Count(domain.StateFiltered),
		Opportunities: len(r.Opportunities),
	}
	for _, v := range r.FailedVenues() {
		p.FailedVenues = append(p.FailedVenues, string(v))
	}
	return p
}
