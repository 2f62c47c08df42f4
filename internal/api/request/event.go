package request

import "github.com/shopspring/decimal"

// CreateEventRequest represents the request body for creating a fund event.
// The type field selects the variant; variant-specific fields are ignored
// for other types. Dates use YYYY-MM-DD format.
type CreateEventRequest struct {
	FundID        string          `json:"fundId"`
	Type          string          `json:"type"`
	Name          string          `json:"name"`
	EventDate     string          `json:"eventDate"`
	EffectiveDate string          `json:"effectiveDate"`
	RecordDate    string          `json:"recordDate"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Method        string          `json:"method,omitempty"`
	Basis         string          `json:"basis,omitempty"`

	// Capital call fields.
	InvestmentAmount    decimal.Decimal `json:"investmentAmount,omitempty"`
	ManagementFeeAmount decimal.Decimal `json:"managementFeeAmount,omitempty"`
	ExpenseAmount       decimal.Decimal `json:"expenseAmount,omitempty"`
	MinimumCallAmount   decimal.Decimal `json:"minimumCallAmount,omitempty"`
	AllowPartialFunding *bool           `json:"allowPartialFunding,omitempty"`

	// Distribution fields.
	GrossDistribution      decimal.Decimal `json:"grossDistribution,omitempty"`
	ManagementFeeOffset    decimal.Decimal `json:"managementFeeOffset,omitempty"`
	ExpenseOffset          decimal.Decimal `json:"expenseOffset,omitempty"`
	WithholdingRequired    bool            `json:"withholdingRequired,omitempty"`
	DefaultWithholdingRate decimal.Decimal `json:"defaultWithholdingRate,omitempty"`

	// Management fee fields.
	FeePeriodStart   string          `json:"feePeriodStart,omitempty"`
	FeePeriodEnd     string          `json:"feePeriodEnd,omitempty"`
	FeeRate          decimal.Decimal `json:"feeRate,omitempty"`
	ProrateForPeriod *bool           `json:"prorateForPeriod,omitempty"`
}

// UpdateEventStatusRequest represents the request body for moving an event
// through its approval workflow.
type UpdateEventStatusRequest struct {
	Status string `json:"status"`
}
