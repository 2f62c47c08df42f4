package request

import "github.com/shopspring/decimal"

// CreateFundRequest represents the request body for creating a fund vehicle.
// Dates use YYYY-MM-DD format. Amounts accept JSON numbers or strings.
type CreateFundRequest struct {
	Name                    string          `json:"name"`
	StructureType           string          `json:"structureType"`
	ParentFundID            string          `json:"parentFundId,omitempty"`
	MasterFundID            string          `json:"masterFundId,omitempty"`
	InceptionDate           string          `json:"inceptionDate"`
	TargetSize              decimal.Decimal `json:"targetSize"`
	MinCommitment           decimal.Decimal `json:"minCommitment"`
	MaxCommitment           decimal.Decimal `json:"maxCommitment,omitempty"`
	MaxInvestors            int             `json:"maxInvestors,omitempty"`
	EligibleInvestorTypes   []string        `json:"eligibleInvestorTypes"`
	RestrictedJurisdictions []string        `json:"restrictedJurisdictions,omitempty"`
	ManagementFeeRate       decimal.Decimal `json:"managementFeeRate"`
	CarryRate               decimal.Decimal `json:"carryRate"`
	AllocationStrategy      string          `json:"allocationStrategy,omitempty"`
}
