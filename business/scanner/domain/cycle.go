package domain

import (
	"time"

	"github.com/shopspring/decimal"

	executionDomain "github.com/fd1az/dex-scanner/business/execution/domain"
	marketDomain "github.com/fd1az/dex-scanner/business/market/domain"
)

// PairState is the terminal state of a pair within one cycle.
type PairState string

const (
	StateFiltered   PairState = "filtered"
	StateObserved   PairState = "observed"
	StateRejected   PairState = "rejected"
	StateConfirmed  PairState = "confirmed"
	StateDispatched PairState = "dispatched"
	StateFailed     PairState = "dispatch_failed"
)

// PairOutcome records what happened to one pair.
type PairOutcome struct {
	Pair   string
	Venue  marketDomain.VenueID
	Price  decimal.Decimal
	State  PairState
	Reason string
}

// VenueOutcome summarizes one venue in a cycle.
type VenueOutcome struct {
	Venue    marketDomain.VenueID
	Pairs    int
	Err      error
	Duration time.Duration
}

// CycleReport is the result of one scan iteration.
type CycleReport struct {
	Cycle         uint64
	StartedAt     time.Time
	Duration      time.Duration
	Venues        []VenueOutcome
	Outcomes      []PairOutcome
	Opportunities []Opportunity
	Results       []executionDomain.TransactionResult
}

// Count returns the number of outcomes in state s.
func (r CycleReport) Count(s PairState) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == s {
			n++
		}
	}
	return n
}

// FailedVenues returns the venues that errored.
func (r CycleReport) FailedVenues() []marketDomain.VenueID {
	var out []marketDomain.VenueID
	for _, v := range r.Venues {
		if v.Err != nil {
			out = append(out, v.Venue)
		}
	}
	return out
}
