package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StructureType identifies a vehicle's place in a hierarchical fund structure.
type StructureType string

const (
	StructureMain       StructureType = "main"
	StructureParallel   StructureType = "parallel"
	StructureFeeder     StructureType = "feeder"
	StructureMaster     StructureType = "master"
	StructureBlocker    StructureType = "blocker"
	StructureAggregator StructureType = "aggregator"
)

// FundStatus represents the lifecycle status of a fund vehicle.
type FundStatus string

const (
	FundActive      FundStatus = "active"
	FundFundraising FundStatus = "fundraising"
	FundClosed      FundStatus = "closed"
	FundLiquidated  FundStatus = "liquidated"
)

// AllocationStrategy controls how an oversubscribed vehicle fills demand.
type AllocationStrategy string

const (
	StrategyProRata   AllocationStrategy = "pro_rata"
	StrategyFirstCome AllocationStrategy = "first_come_first_served"
	StrategyTiered    AllocationStrategy = "tiered"
	StrategyCustom    AllocationStrategy = "custom"
)

// FundVehicle represents a single vehicle inside a fund structure.
// A vehicle has at most one parent; the hierarchy is a tree, never a cycle.
type FundVehicle struct {
	ID            string
	Name          string
	StructureType StructureType
	Status        FundStatus
	ParentFundID  string // empty when the vehicle is a root
	MasterFundID  string // empty unless the vehicle feeds a master

	InceptionDate time.Time
	TargetSize    decimal.Decimal
	MinCommitment decimal.Decimal
	MaxCommitment decimal.Decimal // zero means no cap

	MaxInvestors            int // zero means no cap
	EligibleInvestorTypes   []InvestorType
	RestrictedJurisdictions []string

	ManagementFeeRate decimal.Decimal // annual, as a fraction in [0,1]
	CarryRate         decimal.Decimal // fraction in [0,1]

	// Capital tracking. CommittedCapital is mutated by the allocation
	// engine; committed <= target is a soft cap enforced at allocation
	// time only. ErisaCapital is the portion of committed capital
	// attributable to benefit-plan investors.
	CommittedCapital decimal.Decimal
	CalledCapital    decimal.Decimal
	PaidInCapital    decimal.Decimal
	NAV              decimal.Decimal
	ErisaCapital     decimal.Decimal

	ChildFundIDs   []string
	SiblingFundIDs []string

	AllocationStrategy AllocationStrategy

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailableCapacity returns target size minus committed capital.
// Callers treat a result <= 0 as fully subscribed.
func (f FundVehicle) AvailableCapacity() decimal.Decimal {
	return f.TargetSize.Sub(f.CommittedCapital)
}

// RelatedFundIDs returns the parent, children and siblings of the vehicle,
// used by the allocation engine's relationship bonus.
func (f FundVehicle) RelatedFundIDs() []string {
	related := make([]string, 0, len(f.ChildFundIDs)+len(f.SiblingFundIDs)+1)
	related = append(related, f.SiblingFundIDs...)
	related = append(related, f.ChildFundIDs...)
	if f.ParentFundID != "" {
		related = append(related, f.ParentFundID)
	}
	return related
}

// FundReportEntry summarizes a single vehicle for the allocation report.
type FundReportEntry struct {
	FundID            string
	FundName          string
	StructureType     StructureType
	TargetSize        decimal.Decimal
	CommittedCapital  decimal.Decimal
	SubscriptionRate  decimal.Decimal // percentage of target committed
	InvestorCount     int
	MaxInvestors      int
	AvailableCapacity decimal.Decimal
}

// AllocationReport aggregates subscription state across vehicles.
type AllocationReport struct {
	GeneratedAt      time.Time
	TotalFunds       int
	TotalInvestors   int
	TotalAllocations int
	Funds            []FundReportEntry
}
