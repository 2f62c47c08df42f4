package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationStatus classifies the outcome of an allocation request.
type AllocationStatus string

const (
	AllocationFull     AllocationStatus = "full"
	AllocationPartial  AllocationStatus = "partial"
	AllocationRejected AllocationStatus = "rejected"
)

// AllocationRequest asks the allocation engine to place an investor's
// capital across the vehicles of a fund structure.
type AllocationRequest struct {
	InvestorID      string
	FundID          string
	RequestedAmount decimal.Decimal
	InvestorType    InvestorType
	Jurisdiction    string

	// PreferenceOrder lists fund IDs in the investor's preferred order.
	// Explicit preference always outranks score.
	PreferenceOrder []string

	AcceptsSideLetter      bool
	TaxTransparentRequired bool
	ErisaPercentage        decimal.Decimal // benefit-plan share of the request, in [0,100]
}

// FundAllocation is a single accepted allocation within a result.
type FundAllocation struct {
	FundID          string
	FundName        string
	StructureType   StructureType
	AllocatedAmount decimal.Decimal
	Percentage      decimal.Decimal // share of the requested amount, in [0,100]
}

// AlternativeFund suggests a vehicle the investor could access by
// raising their commitment to the vehicle's minimum.
type AlternativeFund struct {
	FundID        string
	FundName      string
	Suggestion    string
	MinCommitment decimal.Decimal
}

// AllocationResult is created fresh per request and immutable once returned.
type AllocationResult struct {
	RequestID        string
	InvestorID       string
	TotalRequested   decimal.Decimal
	TotalAllocated   decimal.Decimal
	Status           AllocationStatus
	Allocations      []FundAllocation
	RejectionReasons []string
	AlternativeFunds []AlternativeFund
	Timestamp        time.Time
}

// AllocationScore holds per-vehicle screening and scoring state while
// the engine ranks candidates. Ineligible vehicles keep their rejection
// reasons for alternative suggestions.
type AllocationScore struct {
	FundID           string
	Score            decimal.Decimal
	Factors          map[string]decimal.Decimal
	Eligible         bool
	RejectionReasons []string
}

// AllocationRecordStatus is the persistence state of an accepted allocation.
type AllocationRecordStatus string

const (
	AllocationRecordPending   AllocationRecordStatus = "pending"
	AllocationRecordConfirmed AllocationRecordStatus = "confirmed"
	AllocationRecordRejected  AllocationRecordStatus = "rejected"
)

// InvestorAllocation is the persisted record of capital placed in a vehicle.
type InvestorAllocation struct {
	ID              string
	InvestorID      string
	FundID          string
	AllocatedAmount decimal.Decimal
	ErisaAmount     decimal.Decimal
	AllocationDate  time.Time
	Status          AllocationRecordStatus
}
