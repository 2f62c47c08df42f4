package request

import "github.com/shopspring/decimal"

// CreateInvestorRequest represents the request body for creating an investor.
type CreateInvestorRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Email        string `json:"email"`
	Jurisdiction string `json:"jurisdiction"`
	TaxID        string `json:"taxId,omitempty"`
	KYCStatus    string `json:"kycStatus"`
	AMLStatus    string `json:"amlStatus"`
}

// CreateCommitmentRequest represents the request body for recording an
// investor commitment to a fund.
type CreateCommitmentRequest struct {
	InvestorID       string           `json:"investorId"`
	FundID           string           `json:"fundId"`
	CommitmentAmount decimal.Decimal  `json:"commitmentAmount"`
	PaidInAmount     decimal.Decimal  `json:"paidInAmount,omitempty"`
	NAVAmount        decimal.Decimal  `json:"navAmount,omitempty"`
	CommitmentDate   string           `json:"commitmentDate"`
	WithholdingRate  *decimal.Decimal `json:"withholdingRate,omitempty"`
}
