package request

import "github.com/shopspring/decimal"

// WaterfallTierRequest defines one tier of a distribution waterfall.
// Tiers are evaluated in the order they appear in the request.
type WaterfallTierRequest struct {
	TierID       string          `json:"tierId"`
	Type         string          `json:"type"`
	Name         string          `json:"name"`
	HurdleRate   decimal.Decimal `json:"hurdleRate,omitempty"`
	CatchUpRate  decimal.Decimal `json:"catchUpRate,omitempty"`
	CarryRate    decimal.Decimal `json:"carryRate,omitempty"`
	LPPercentage decimal.Decimal `json:"lpPercentage,omitempty"`
	GPPercentage decimal.Decimal `json:"gpPercentage,omitempty"`
}

// CalculateWaterfallRequest represents the request body for running a
// distribution waterfall for a fund. Positions are loaded from the
// position store; the calculation date uses YYYY-MM-DD format.
type CalculateWaterfallRequest struct {
	FundID             string                 `json:"fundId"`
	CalculationDate    string                 `json:"calculationDate"`
	DistributionAmount decimal.Decimal        `json:"distributionAmount"`
	Tiers              []WaterfallTierRequest `json:"tiers"`
}
