package request

import "github.com/shopspring/decimal"

// AllocateRequest represents the request body for allocating an investor
// across a fund structure.
type AllocateRequest struct {
	InvestorID             string          `json:"investorId"`
	FundID                 string          `json:"fundId"`
	RequestedAmount        decimal.Decimal `json:"requestedAmount"`
	InvestorType           string          `json:"investorType"`
	Jurisdiction           string          `json:"jurisdiction"`
	PreferenceOrder        []string        `json:"preferenceOrder,omitempty"`
	AcceptsSideLetter      bool            `json:"acceptsSideLetter,omitempty"`
	TaxTransparentRequired bool            `json:"taxTransparentRequired,omitempty"`
	ErisaPercentage        decimal.Decimal `json:"erisaPercentage,omitempty"`
}
