package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Fund-Administration-Backend/internal/api/request"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/ndewijer/Fund-Administration-Backend/internal/service"
	"github.com/ndewijer/Fund-Administration-Backend/internal/validation"
)

// WaterfallHandler handles HTTP requests for the waterfall engine.
type WaterfallHandler struct {
	waterfallService *service.WaterfallService
}

// NewWaterfallHandler creates a new WaterfallHandler with the provided service dependency.
func NewWaterfallHandler(waterfallService *service.WaterfallService) *WaterfallHandler {
	return &WaterfallHandler{
		waterfallService: waterfallService,
	}
}

// TierDistributionJSON represents one tier's outcome in a waterfall result
type TierDistributionJSON struct {
	TierID                string                     `json:"tierId"`
	TierName              string                     `json:"tierName"`
	Type                  string                     `json:"type"`
	AvailableAmount       decimal.Decimal            `json:"availableAmount"`
	DistributedAmount     decimal.Decimal            `json:"distributedAmount"`
	RemainingAmount       decimal.Decimal            `json:"remainingAmount"`
	LPAmount              decimal.Decimal            `json:"lpAmount"`
	GPAmount              decimal.Decimal            `json:"gpAmount"`
	InvestorDistributions map[string]decimal.Decimal `json:"investorDistributions"`
	CalculationNotes      []string                   `json:"calculationNotes,omitempty"`
}

// InvestorSummaryJSON totals one investor's take across tiers
type InvestorSummaryJSON struct {
	TotalDistribution  decimal.Decimal `json:"totalDistribution"`
	ReturnOfCapital    decimal.Decimal `json:"returnOfCapital"`
	PreferredReturn    decimal.Decimal `json:"preferredReturn"`
	CarryDistributions decimal.Decimal `json:"carryDistributions"`
	OtherDistributions decimal.Decimal `json:"otherDistributions"`
}

// WaterfallResultResponse represents a full waterfall calculation outcome
type WaterfallResultResponse struct {
	CalculationID      string                         `json:"calculationId"`
	FundID             string                         `json:"fundId"`
	CalculationDate    string                         `json:"calculationDate"`
	TotalDistribution  decimal.Decimal                `json:"totalDistribution"`
	Tiers              []TierDistributionJSON         `json:"tiers"`
	LPTotal            decimal.Decimal                `json:"lpTotal"`
	GPTotal            decimal.Decimal                `json:"gpTotal"`
	InvestorSummaries  map[string]InvestorSummaryJSON `json:"investorSummaries"`
	ValidationPassed   bool                           `json:"validationPassed"`
	ValidationErrors   []string                       `json:"validationErrors,omitempty"`
	ValidationWarnings []string                       `json:"validationWarnings,omitempty"`
}

// Calculate handles POST requests to run a distribution waterfall.
//
// Endpoint: POST /api/waterfall
// Response: 200 OK with WaterfallResultResponse; validation failures are
// reported inside the result, not as HTTP errors
// Error: 400 Bad Request on malformed input, 404 Not Found for an
// unknown fund
func (h *WaterfallHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req request.CalculateWaterfallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid request body",
			"detail": err.Error(),
		})
		return
	}

	if err := validation.ValidateCalculateWaterfall(req); err != nil {
		if !respondValidationError(w, err) {
			respondServiceError(w, err, "Failed to validate waterfall request")
		}
		return
	}

	calculationDate, err := validation.ParseDate(req.CalculationDate)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid calculation date",
			"detail": err.Error(),
		})
		return
	}

	tiers := make([]model.WaterfallTierDefinition, len(req.Tiers))
	for i, t := range req.Tiers {
		tiers[i] = model.WaterfallTierDefinition{
			TierID:       t.TierID,
			Type:         model.WaterfallTier(t.Type),
			Name:         t.Name,
			HurdleRate:   t.HurdleRate,
			CatchUpRate:  t.CatchUpRate,
			CarryRate:    t.CarryRate,
			LPPercentage: t.LPPercentage,
			GPPercentage: t.GPPercentage,
		}
	}

	result, err := h.waterfallService.RunDistribution(req.FundID, calculationDate, req.DistributionAmount, tiers)
	if err != nil {
		respondServiceError(w, err, "Failed to calculate waterfall")
		return
	}

	tierResponses := make([]TierDistributionJSON, len(result.TierDistributions))
	for i, tier := range result.TierDistributions {
		tierResponses[i] = TierDistributionJSON{
			TierID:                tier.TierID,
			TierName:              tier.TierName,
			Type:                  string(tier.Type),
			AvailableAmount:       tier.AvailableAmount,
			DistributedAmount:     tier.DistributedAmount,
			RemainingAmount:       tier.RemainingAmount,
			LPAmount:              tier.LPAmount,
			GPAmount:              tier.GPAmount,
			InvestorDistributions: tier.InvestorDistributions,
			CalculationNotes:      tier.CalculationNotes,
		}
	}

	summaries := make(map[string]InvestorSummaryJSON, len(result.InvestorSummaries))
	for investorID, s := range result.InvestorSummaries {
		summaries[investorID] = InvestorSummaryJSON{
			TotalDistribution:  s.TotalDistribution,
			ReturnOfCapital:    s.ReturnOfCapital,
			PreferredReturn:    s.PreferredReturn,
			CarryDistributions: s.CarryDistributions,
			OtherDistributions: s.OtherDistributions,
		}
	}

	respondJSON(w, http.StatusOK, WaterfallResultResponse{
		CalculationID:      result.CalculationID,
		FundID:             result.FundID,
		CalculationDate:    result.CalculationDate.Format("2006-01-02"),
		TotalDistribution:  result.TotalDistribution,
		Tiers:              tierResponses,
		LPTotal:            result.LPTotal,
		GPTotal:            result.GPTotal,
		InvestorSummaries:  summaries,
		ValidationPassed:   result.ValidationPassed,
		ValidationErrors:   result.ValidationErrors,
		ValidationWarnings: result.ValidationWarnings,
	})
}
