package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestorType categorizes an investor for eligibility screening.
type InvestorType string

const (
	InvestorInstitutional   InvestorType = "institutional"
	InvestorIndividual      InvestorType = "individual"
	InvestorFamilyOffice    InvestorType = "family_office"
	InvestorPensionFund     InvestorType = "pension_fund"
	InvestorEndowment       InvestorType = "endowment"
	InvestorSovereignWealth InvestorType = "sovereign_wealth"
	InvestorInsurance       InvestorType = "insurance"
	InvestorErisaPlan       InvestorType = "erisa_plan"
)

// ComplianceStatus is the state of a KYC or AML review.
type ComplianceStatus string

const (
	CompliancePending  ComplianceStatus = "pending"
	ComplianceApproved ComplianceStatus = "approved"
	ComplianceRejected ComplianceStatus = "rejected"
)

// Investor is owned independently of any fund.
type Investor struct {
	ID           string
	Name         string
	Type         InvestorType
	Email        string
	Jurisdiction string
	TaxID        string // stored encrypted at rest
	KYCStatus    ComplianceStatus
	AMLStatus    ComplianceStatus
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CommitmentStatus is the lifecycle state of an investor commitment.
type CommitmentStatus string

const (
	CommitmentActive    CommitmentStatus = "active"
	CommitmentFulfilled CommitmentStatus = "fulfilled"
	CommitmentWithdrawn CommitmentStatus = "withdrawn"
)

// InvestorCommitment carries the basis amounts the event calculation
// engine draws from. Supplied fresh per calculation by the registry.
type InvestorCommitment struct {
	ID                 string
	InvestorID         string
	FundID             string
	CommitmentAmount   decimal.Decimal
	PaidInAmount       decimal.Decimal
	NAVAmount          decimal.Decimal
	CommitmentDate     time.Time
	WithholdingRate    decimal.Decimal // investor-specific override; zero means use event default
	HasWithholdingRate bool
	Status             CommitmentStatus
}
