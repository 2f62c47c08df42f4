package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType discriminates the fund event variants. The calculation
// engine dispatches on it; variant-specific fields below are only
// meaningful for their own type.
type EventType string

const (
	EventCapitalCall   EventType = "capital_call"
	EventDistribution  EventType = "distribution"
	EventManagementFee EventType = "management_fee"
)

// EventStatus is the workflow state of a fund event.
// Completed, cancelled and failed are terminal.
type EventStatus string

const (
	EventDraft           EventStatus = "draft"
	EventPendingApproval EventStatus = "pending_approval"
	EventApproved        EventStatus = "approved"
	EventProcessing      EventStatus = "processing"
	EventCompleted       EventStatus = "completed"
	EventCancelled       EventStatus = "cancelled"
	EventFailed          EventStatus = "failed"
)

// eventTransitions is the allowed status transition matrix.
var eventTransitions = map[EventStatus][]EventStatus{
	EventDraft:           {EventPendingApproval, EventCancelled},
	EventPendingApproval: {EventApproved, EventCancelled},
	EventApproved:        {EventProcessing, EventCancelled},
	EventProcessing:      {EventCompleted, EventFailed},
}

// CanTransition reports whether a status change is allowed.
func (s EventStatus) CanTransition(to EventStatus) bool {
	for _, next := range eventTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CalculationMethod selects how an event amount is split across investors.
type CalculationMethod string

const (
	MethodProRata CalculationMethod = "pro_rata"
	MethodFlat    CalculationMethod = "flat_amount"
	MethodTiered  CalculationMethod = "tiered"
	MethodCustom  CalculationMethod = "custom"
)

// CalculationBasis names the commitment field ownership is computed from.
type CalculationBasis string

const (
	BasisCommitment CalculationBasis = "commitment"
	BasisPaidIn     CalculationBasis = "paid_in"
	BasisNAV        CalculationBasis = "nav"
)

// FundEvent is a tagged union over the capital call, distribution and
// management fee variants, discriminated by Type.
type FundEvent struct {
	ID     string
	FundID string
	Type   EventType
	Name   string

	EventDate     time.Time
	EffectiveDate time.Time // must be >= EventDate
	RecordDate    time.Time // determines the eligible investor set

	TotalAmount decimal.Decimal
	Method      CalculationMethod
	Basis       CalculationBasis
	Status      EventStatus

	// Capital call fields. Component amounts must sum to TotalAmount.
	InvestmentAmount    decimal.Decimal
	ManagementFeeAmount decimal.Decimal
	ExpenseAmount       decimal.Decimal
	MinimumCallAmount   decimal.Decimal // zero means no minimum
	AllowPartialFunding bool

	// Distribution fields.
	GrossDistribution      decimal.Decimal
	ManagementFeeOffset    decimal.Decimal
	ExpenseOffset          decimal.Decimal
	WithholdingRequired    bool
	DefaultWithholdingRate decimal.Decimal // fraction in [0,1]

	// Management fee fields.
	FeePeriodStart   time.Time
	FeePeriodEnd     time.Time
	FeeRate          decimal.Decimal // annual fraction in (0,1]
	ProrateForPeriod bool
	DaysInPeriod     int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InvestorEventCalculation is the per-investor output of an event
// processing run. Created once per run and immutable.
type InvestorEventCalculation struct {
	ID           string
	EventID      string
	InvestorID   string
	CommitmentID string

	OwnershipPercentage decimal.Decimal // in [0,100]
	BasisAmount         decimal.Decimal

	GrossAmount         decimal.Decimal
	ManagementFeeOffset decimal.Decimal
	ExpenseOffset       decimal.Decimal
	WithholdingAmount   decimal.Decimal
	NetAmount           decimal.Decimal

	// Capital call breakdown; zero for other event types.
	InvestmentPortion    decimal.Decimal
	ManagementFeePortion decimal.Decimal
	ExpensePortion       decimal.Decimal

	CreatedAt time.Time
}

// ProcessingStatus classifies an event processing run.
type ProcessingStatus string

const (
	ProcessingCompleted ProcessingStatus = "completed"
	ProcessingPartial   ProcessingStatus = "partial"
	ProcessingFailed    ProcessingStatus = "failed"
)

// EventProcessingResult is the full output of one calculation run.
// Totals are simple sums over the per-investor records.
type EventProcessingResult struct {
	EventID      string
	ProcessingID string

	TotalInvestorsProcessed int
	TotalGrossAmount        decimal.Decimal
	TotalNetAmount          decimal.Decimal
	TotalWithholding        decimal.Decimal

	InvestorCalculations []InvestorEventCalculation

	ValidationErrors   []string
	ValidationWarnings []string

	Status      ProcessingStatus
	ProcessedAt time.Time
}
