package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Fund-Administration-Backend/internal/api/request"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/shopspring/decimal"
)

// ValidStructureType contains the allowed fund structure type values.
var ValidStructureType = map[string]bool{
	string(model.StructureMain):       true,
	string(model.StructureParallel):   true,
	string(model.StructureFeeder):     true,
	string(model.StructureMaster):     true,
	string(model.StructureBlocker):    true,
	string(model.StructureAggregator): true,
}

// ValidAllocationStrategy contains the allowed allocation strategy values.
var ValidAllocationStrategy = map[string]bool{
	string(model.StrategyProRata):   true,
	string(model.StrategyFirstCome): true,
	string(model.StrategyTiered):    true,
	string(model.StrategyCustom):    true,
}

// ValidateCreateFund validates a fund creation request.
//
// Required fields:
//   - name: non-empty
//   - structureType: one of main, parallel, feeder, master, blocker, aggregator
//   - inceptionDate: YYYY-MM-DD format
//   - targetSize: positive
//   - minCommitment: positive
//   - managementFeeRate, carryRate: fractions in [0,1]
//
// Constraints:
//   - maxCommitment, when set, must be >= minCommitment
//   - parentFundId must be a valid UUID when set
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCreateFund(req request.CreateFundRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}

	if !ValidStructureType[req.StructureType] {
		errors["structureType"] = fmt.Sprintf("invalid structure type: %s", req.StructureType)
	}

	if strings.TrimSpace(req.InceptionDate) == "" {
		errors["inceptionDate"] = "inceptionDate is required"
	} else if _, err := ParseDate(req.InceptionDate); err != nil {
		errors["inceptionDate"] = err.Error()
	}

	if !req.TargetSize.IsPositive() {
		errors["targetSize"] = "targetSize must be positive"
	}

	if !req.MinCommitment.IsPositive() {
		errors["minCommitment"] = "minCommitment must be positive"
	}

	if !req.MaxCommitment.IsZero() && req.MaxCommitment.LessThan(req.MinCommitment) {
		errors["maxCommitment"] = "maxCommitment must be greater than minCommitment"
	}

	if req.MaxInvestors < 0 {
		errors["maxInvestors"] = "maxInvestors cannot be negative"
	}

	one := decimal.NewFromInt(1)
	if req.ManagementFeeRate.IsNegative() || req.ManagementFeeRate.GreaterThan(one) {
		errors["managementFeeRate"] = "managementFeeRate must be between 0 and 1"
	}
	if req.CarryRate.IsNegative() || req.CarryRate.GreaterThan(one) {
		errors["carryRate"] = "carryRate must be between 0 and 1"
	}

	if req.ParentFundID != "" {
		if err := ValidateUUID(req.ParentFundID); err != nil {
			errors["parentFundId"] = err.Error()
		}
	}

	if req.AllocationStrategy != "" && !ValidAllocationStrategy[req.AllocationStrategy] {
		errors["allocationStrategy"] = fmt.Sprintf("invalid allocation strategy: %s", req.AllocationStrategy)
	}

	for _, t := range req.EligibleInvestorTypes {
		if !ValidInvestorType[t] {
			errors["eligibleInvestorTypes"] = fmt.Sprintf("invalid investor type: %s", t)
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
