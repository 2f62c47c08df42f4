package validation

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Fund-Administration-Backend/internal/api/request"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/shopspring/decimal"
)

// ValidEventType contains the allowed fund event type values.
var ValidEventType = map[string]bool{
	string(model.EventCapitalCall):   true,
	string(model.EventDistribution):  true,
	string(model.EventManagementFee): true,
}

// ValidCalculationMethod contains the allowed calculation method values.
var ValidCalculationMethod = map[string]bool{
	string(model.MethodProRata): true,
	string(model.MethodFlat):    true,
	string(model.MethodTiered):  true,
	string(model.MethodCustom):  true,
}

// ValidCalculationBasis contains the allowed calculation basis values.
var ValidCalculationBasis = map[string]bool{
	string(model.BasisCommitment): true,
	string(model.BasisPaidIn):     true,
	string(model.BasisNAV):        true,
}

// ValidEventStatus contains the allowed event workflow status values.
var ValidEventStatus = map[string]bool{
	string(model.EventDraft):           true,
	string(model.EventPendingApproval): true,
	string(model.EventApproved):        true,
	string(model.EventProcessing):      true,
	string(model.EventCompleted):       true,
	string(model.EventCancelled):       true,
	string(model.EventFailed):          true,
}

// ValidateCreateEvent validates a fund event creation request, including
// the variant-specific rules for the requested event type.
//
// Shared rules:
//   - fundId: valid UUID
//   - type: capital_call, distribution or management_fee
//   - eventDate, effectiveDate, recordDate: YYYY-MM-DD; effectiveDate >= eventDate
//   - totalAmount: positive
//
// Capital call: component amounts must be non-negative and sum to totalAmount.
// Distribution: grossDistribution positive; offsets non-negative; withholding
// rate a fraction in [0,1].
// Management fee: period required with end >= start; feeRate in (0,1].
//
// Returns a validation Error with field-specific error messages if validation fails.
//
//nolint:funlen // one rule per field, kept in a single pass
func ValidateCreateEvent(req request.CreateEventRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.FundID); err != nil {
		errors["fundId"] = err.Error()
	}

	if !ValidEventType[req.Type] {
		errors["type"] = fmt.Sprintf("invalid event type: %s", req.Type)
	}

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	}

	eventDate, err := ParseDate(req.EventDate)
	if err != nil {
		errors["eventDate"] = err.Error()
	}
	effectiveDate, err := ParseDate(req.EffectiveDate)
	if err != nil {
		errors["effectiveDate"] = err.Error()
	}
	if _, err := ParseDate(req.RecordDate); err != nil {
		errors["recordDate"] = err.Error()
	}

	if errors["eventDate"] == "" && errors["effectiveDate"] == "" && effectiveDate.Before(eventDate) {
		errors["effectiveDate"] = "effectiveDate cannot be before eventDate"
	}

	if !req.TotalAmount.IsPositive() {
		errors["totalAmount"] = "totalAmount must be positive"
	}

	if req.Method != "" && !ValidCalculationMethod[req.Method] {
		errors["method"] = fmt.Sprintf("invalid calculation method: %s", req.Method)
	}
	if req.Basis != "" && !ValidCalculationBasis[req.Basis] {
		errors["basis"] = fmt.Sprintf("invalid calculation basis: %s", req.Basis)
	}

	one := decimal.NewFromInt(1)

	switch model.EventType(req.Type) {
	case model.EventCapitalCall:
		if req.InvestmentAmount.IsNegative() {
			errors["investmentAmount"] = "investmentAmount cannot be negative"
		}
		if req.ManagementFeeAmount.IsNegative() {
			errors["managementFeeAmount"] = "managementFeeAmount cannot be negative"
		}
		if req.ExpenseAmount.IsNegative() {
			errors["expenseAmount"] = "expenseAmount cannot be negative"
		}
		if req.MinimumCallAmount.IsNegative() {
			errors["minimumCallAmount"] = "minimumCallAmount cannot be negative"
		}

		components := req.InvestmentAmount.Add(req.ManagementFeeAmount).Add(req.ExpenseAmount)
		if !components.Equal(req.TotalAmount) {
			errors["totalAmount"] = "totalAmount must equal sum of component amounts"
		}

	case model.EventDistribution:
		if !req.GrossDistribution.IsPositive() {
			errors["grossDistribution"] = "grossDistribution must be positive"
		}
		if req.ManagementFeeOffset.IsNegative() {
			errors["managementFeeOffset"] = "managementFeeOffset cannot be negative"
		}
		if req.ExpenseOffset.IsNegative() {
			errors["expenseOffset"] = "expenseOffset cannot be negative"
		}
		if req.DefaultWithholdingRate.IsNegative() || req.DefaultWithholdingRate.GreaterThan(one) {
			errors["defaultWithholdingRate"] = "defaultWithholdingRate must be between 0 and 1"
		}

	case model.EventManagementFee:
		periodStart, err := ParseDate(req.FeePeriodStart)
		if err != nil {
			errors["feePeriodStart"] = err.Error()
		}
		periodEnd, err := ParseDate(req.FeePeriodEnd)
		if err != nil {
			errors["feePeriodEnd"] = err.Error()
		}
		if errors["feePeriodStart"] == "" && errors["feePeriodEnd"] == "" && periodEnd.Before(periodStart) {
			errors["feePeriodEnd"] = "feePeriodEnd cannot be before feePeriodStart"
		}
		if !req.FeeRate.IsPositive() || req.FeeRate.GreaterThan(one) {
			errors["feeRate"] = "feeRate must be a fraction between 0 and 1"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateEventStatus validates a workflow status value.
func ValidateEventStatus(status string) error {
	if !ValidEventStatus[status] {
		return &Error{Fields: map[string]string{
			"status": fmt.Sprintf("invalid event status: %s", status),
		}}
	}
	return nil
}
