package validation

import (
	"fmt"

	"github.com/ndewijer/Fund-Administration-Backend/internal/api/request"
	"github.com/shopspring/decimal"
)

// ValidateAllocateRequest validates an allocation request.
//
// Required fields:
//   - investorId, fundId: valid UUIDs
//   - requestedAmount: positive
//   - investorType: a known investor type
//   - jurisdiction: non-empty
//
// Constraints:
//   - erisaPercentage: in [0,100] when provided
//   - preferenceOrder entries must be valid UUIDs
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateAllocateRequest(req request.AllocateRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.InvestorID); err != nil {
		errors["investorId"] = err.Error()
	}
	if err := ValidateUUID(req.FundID); err != nil {
		errors["fundId"] = err.Error()
	}

	if !req.RequestedAmount.IsPositive() {
		errors["requestedAmount"] = "requestedAmount must be positive"
	}

	if !ValidInvestorType[req.InvestorType] {
		errors["investorType"] = fmt.Sprintf("invalid investor type: %s", req.InvestorType)
	}

	if req.Jurisdiction == "" {
		errors["jurisdiction"] = "jurisdiction is required"
	}

	hundred := decimal.NewFromInt(100)
	if req.ErisaPercentage.IsNegative() || req.ErisaPercentage.GreaterThan(hundred) {
		errors["erisaPercentage"] = "erisaPercentage must be between 0 and 100"
	}

	for _, id := range req.PreferenceOrder {
		if err := ValidateUUID(id); err != nil {
			errors["preferenceOrder"] = err.Error()
			break
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
