package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WaterfallTier names a tier kind. Tiers are evaluated strictly in the
// order the caller lists them; evaluation stops once the distributable
// amount reaches zero.
type WaterfallTier string

const (
	TierReturnOfCapital   WaterfallTier = "return_of_capital"
	TierPreferredReturn   WaterfallTier = "preferred_return"
	TierCatchUp           WaterfallTier = "catch_up"
	TierPromotedCarry     WaterfallTier = "promoted_carry"
	TierRemainingProceeds WaterfallTier = "remaining_proceeds"
)

// WaterfallTierDefinition configures a single tier.
type WaterfallTierDefinition struct {
	TierID string
	Type   WaterfallTier
	Name   string

	HurdleRate  decimal.Decimal // preferred return, annual fraction
	CatchUpRate decimal.Decimal // catch-up target carry fraction
	CarryRate   decimal.Decimal // promoted carry fraction

	// Split for remaining-proceeds tiers, in [0,100].
	LPPercentage decimal.Decimal
	GPPercentage decimal.Decimal
}

// InvestorPosition is the only entity with cross-calculation state: the
// engine returns updated positions and the caller feeds them back into
// the next run.
type InvestorPosition struct {
	InvestorID   string
	InvestorName string

	TotalContributions      decimal.Decimal
	UnreturnedContributions decimal.Decimal

	PreferredReturnShortfall  decimal.Decimal
	CumulativePreferredReturn decimal.Decimal

	PriorDistributions      decimal.Decimal
	PriorCarryDistributions decimal.Decimal

	OwnershipPercentage decimal.Decimal // in [0,100]
}

// WaterfallInput bundles everything one calculation needs.
type WaterfallInput struct {
	FundID             string
	CalculationDate    time.Time
	DistributionAmount decimal.Decimal

	FundInceptionDate time.Time

	Tiers     []WaterfallTierDefinition
	Positions []InvestorPosition
}

// TierDistribution records what a single tier did.
type TierDistribution struct {
	TierID   string
	TierName string
	Type     WaterfallTier

	AvailableAmount   decimal.Decimal
	DistributedAmount decimal.Decimal
	RemainingAmount   decimal.Decimal

	LPAmount decimal.Decimal
	GPAmount decimal.Decimal

	InvestorDistributions map[string]decimal.Decimal
	CalculationNotes      []string
}

// InvestorWaterfallSummary totals one investor's take across tiers.
type InvestorWaterfallSummary struct {
	TotalDistribution  decimal.Decimal
	ReturnOfCapital    decimal.Decimal
	PreferredReturn    decimal.Decimal
	CarryDistributions decimal.Decimal
	OtherDistributions decimal.Decimal
}

// WaterfallResult is the complete output of one waterfall calculation.
// UpdatedPositions must be persisted and supplied to the next run.
type WaterfallResult struct {
	CalculationID     string
	FundID            string
	CalculationDate   time.Time
	TotalDistribution decimal.Decimal

	TierDistributions []TierDistribution

	LPTotal           decimal.Decimal
	GPTotal           decimal.Decimal
	InvestorSummaries map[string]InvestorWaterfallSummary

	UpdatedPositions []InvestorPosition

	ValidationPassed   bool
	ValidationErrors   []string
	ValidationWarnings []string

	CalculatedAt time.Time
}
