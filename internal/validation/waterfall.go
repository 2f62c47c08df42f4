package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Fund-Administration-Backend/internal/api/request"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
)

// ValidWaterfallTier contains the allowed waterfall tier type values.
var ValidWaterfallTier = map[string]bool{
	string(model.TierReturnOfCapital):   true,
	string(model.TierPreferredReturn):   true,
	string(model.TierCatchUp):           true,
	string(model.TierPromotedCarry):     true,
	string(model.TierRemainingProceeds): true,
}

// ValidateCalculateWaterfall validates a waterfall calculation request.
// Only request-shape rules live here; the engine performs its own input
// validation (positive amount, tier presence, position presence) and
// reports ownership drift as warnings.
//
// Required fields:
//   - fundId: valid UUID
//   - calculationDate: YYYY-MM-DD format
//   - distributionAmount: positive
//   - tiers: at least one, each with a known type and non-empty tierId
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCalculateWaterfall(req request.CalculateWaterfallRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.FundID); err != nil {
		errors["fundId"] = err.Error()
	}

	if strings.TrimSpace(req.CalculationDate) == "" {
		errors["calculationDate"] = "calculationDate is required"
	} else if _, err := ParseDate(req.CalculationDate); err != nil {
		errors["calculationDate"] = err.Error()
	}

	if !req.DistributionAmount.IsPositive() {
		errors["distributionAmount"] = "distributionAmount must be positive"
	}

	if len(req.Tiers) == 0 {
		errors["tiers"] = "at least one tier is required"
	}
	for i, tier := range req.Tiers {
		if !ValidWaterfallTier[tier.Type] {
			errors["tiers"] = fmt.Sprintf("tier %d: invalid tier type: %s", i, tier.Type)
			break
		}
		if strings.TrimSpace(tier.TierID) == "" {
			errors["tiers"] = fmt.Sprintf("tier %d: tierId is required", i)
			break
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
