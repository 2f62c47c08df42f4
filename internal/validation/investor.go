package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Fund-Administration-Backend/internal/api/request"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/shopspring/decimal"
)

// ValidInvestorType contains the allowed investor type values.
var ValidInvestorType = map[string]bool{
	string(model.InvestorInstitutional):   true,
	string(model.InvestorIndividual):      true,
	string(model.InvestorFamilyOffice):    true,
	string(model.InvestorPensionFund):     true,
	string(model.InvestorEndowment):       true,
	string(model.InvestorSovereignWealth): true,
	string(model.InvestorInsurance):       true,
	string(model.InvestorErisaPlan):       true,
}

// ValidComplianceStatus contains the allowed KYC/AML status values.
var ValidComplianceStatus = map[string]bool{
	string(model.CompliancePending):  true,
	string(model.ComplianceApproved): true,
	string(model.ComplianceRejected): true,
}

// ValidateCreateInvestor validates an investor creation request.
//
// Required fields:
//   - name: non-empty
//   - type: a known investor type
//   - email: must contain "@"
//   - jurisdiction: non-empty
//   - kycStatus, amlStatus: pending, approved or rejected
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateInvestor(req request.CreateInvestorRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}

	if !ValidInvestorType[req.Type] {
		errors["type"] = fmt.Sprintf("invalid investor type: %s", req.Type)
	}

	if !strings.Contains(req.Email, "@") {
		errors["email"] = "invalid email address"
	}

	if strings.TrimSpace(req.Jurisdiction) == "" {
		errors["jurisdiction"] = "jurisdiction is required"
	}

	if !ValidComplianceStatus[req.KYCStatus] {
		errors["kycStatus"] = fmt.Sprintf("invalid KYC status: %s", req.KYCStatus)
	}
	if !ValidComplianceStatus[req.AMLStatus] {
		errors["amlStatus"] = fmt.Sprintf("invalid AML status: %s", req.AMLStatus)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateCreateCommitment validates a commitment creation request.
//
// Required fields:
//   - investorId, fundId: valid UUIDs
//   - commitmentAmount: positive
//   - commitmentDate: YYYY-MM-DD format
//
// Constraints:
//   - paidInAmount, navAmount: non-negative when provided
//   - withholdingRate: fraction in [0,1] when provided
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateCommitment(req request.CreateCommitmentRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.InvestorID); err != nil {
		errors["investorId"] = err.Error()
	}
	if err := ValidateUUID(req.FundID); err != nil {
		errors["fundId"] = err.Error()
	}

	if !req.CommitmentAmount.IsPositive() {
		errors["commitmentAmount"] = "commitmentAmount must be positive"
	}
	if req.PaidInAmount.IsNegative() {
		errors["paidInAmount"] = "paidInAmount cannot be negative"
	}
	if req.NAVAmount.IsNegative() {
		errors["navAmount"] = "navAmount cannot be negative"
	}

	if strings.TrimSpace(req.CommitmentDate) == "" {
		errors["commitmentDate"] = "commitmentDate is required"
	} else if _, err := ParseDate(req.CommitmentDate); err != nil {
		errors["commitmentDate"] = err.Error()
	}

	if req.WithholdingRate != nil {
		one := decimal.NewFromInt(1)
		if req.WithholdingRate.IsNegative() || req.WithholdingRate.GreaterThan(one) {
			errors["withholdingRate"] = "withholdingRate must be between 0 and 1"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
