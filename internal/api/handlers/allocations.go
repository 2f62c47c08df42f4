package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Fund-Administration-Backend/internal/api/request"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/ndewijer/Fund-Administration-Backend/internal/service"
	"github.com/ndewijer/Fund-Administration-Backend/internal/validation"
)

// AllocationHandler handles HTTP requests for the allocation engine.
type AllocationHandler struct {
	allocationService *service.AllocationService
}

// NewAllocationHandler creates a new AllocationHandler with the provided service dependency.
func NewAllocationHandler(allocationService *service.AllocationService) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
	}
}

// FundAllocationJSON represents one accepted allocation in a result
type FundAllocationJSON struct {
	FundID          string          `json:"fundId"`
	FundName        string          `json:"fundName"`
	StructureType   string          `json:"structureType"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	Percentage      decimal.Decimal `json:"percentage"`
}

// AlternativeFundJSON represents an alternative-vehicle suggestion
type AlternativeFundJSON struct {
	FundID        string          `json:"fundId"`
	FundName      string          `json:"fundName"`
	Suggestion    string          `json:"suggestion"`
	MinCommitment decimal.Decimal `json:"minCommitment"`
}

// AllocationResultResponse represents the outcome of an allocation request
type AllocationResultResponse struct {
	RequestID        string                `json:"requestId"`
	InvestorID       string                `json:"investorId"`
	TotalRequested   decimal.Decimal       `json:"totalRequested"`
	TotalAllocated   decimal.Decimal       `json:"totalAllocated"`
	Status           string                `json:"status"`
	Allocations      []FundAllocationJSON  `json:"allocations"`
	RejectionReasons []string              `json:"rejectionReasons,omitempty"`
	AlternativeFunds []AlternativeFundJSON `json:"alternativeFunds,omitempty"`
}

// Allocate handles POST requests to place investor capital across a fund structure.
//
// Endpoint: POST /api/allocation
// Response: 200 OK with AllocationResultResponse; rejections are a result
// status, not an HTTP error
// Error: 400 Bad Request on validation failure, 404 Not Found for an
// unknown investor
func (h *AllocationHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req request.AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid request body",
			"detail": err.Error(),
		})
		return
	}

	if err := validation.ValidateAllocateRequest(req); err != nil {
		if !respondValidationError(w, err) {
			respondServiceError(w, err, "Failed to validate allocation request")
		}
		return
	}

	result, err := h.allocationService.Allocate(model.AllocationRequest{
		InvestorID:             req.InvestorID,
		FundID:                 req.FundID,
		RequestedAmount:        req.RequestedAmount,
		InvestorType:           model.InvestorType(req.InvestorType),
		Jurisdiction:           req.Jurisdiction,
		PreferenceOrder:        req.PreferenceOrder,
		AcceptsSideLetter:      req.AcceptsSideLetter,
		TaxTransparentRequired: req.TaxTransparentRequired,
		ErisaPercentage:        req.ErisaPercentage,
	})
	if err != nil {
		respondServiceError(w, err, "Failed to process allocation")
		return
	}

	allocations := make([]FundAllocationJSON, len(result.Allocations))
	for i, a := range result.Allocations {
		allocations[i] = FundAllocationJSON{
			FundID:          a.FundID,
			FundName:        a.FundName,
			StructureType:   string(a.StructureType),
			AllocatedAmount: a.AllocatedAmount,
			Percentage:      a.Percentage,
		}
	}

	alternatives := make([]AlternativeFundJSON, len(result.AlternativeFunds))
	for i, alt := range result.AlternativeFunds {
		alternatives[i] = AlternativeFundJSON{
			FundID:        alt.FundID,
			FundName:      alt.FundName,
			Suggestion:    alt.Suggestion,
			MinCommitment: alt.MinCommitment,
		}
	}

	respondJSON(w, http.StatusOK, AllocationResultResponse{
		RequestID:        result.RequestID,
		InvestorID:       result.InvestorID,
		TotalRequested:   result.TotalRequested,
		TotalAllocated:   result.TotalAllocated,
		Status:           string(result.Status),
		Allocations:      allocations,
		RejectionReasons: result.RejectionReasons,
		AlternativeFunds: alternatives,
	})
}

// InvestorAllocationJSON represents a persisted allocation record
type InvestorAllocationJSON struct {
	ID              string          `json:"id"`
	InvestorID      string          `json:"investorId"`
	FundID          string          `json:"fundId"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	ErisaAmount     decimal.Decimal `json:"erisaAmount"`
	AllocationDate  string          `json:"allocationDate"`
	Status          string          `json:"status"`
}

func toAllocationJSON(a model.InvestorAllocation) InvestorAllocationJSON {
	return InvestorAllocationJSON{
		ID:              a.ID,
		InvestorID:      a.InvestorID,
		FundID:          a.FundID,
		AllocatedAmount: a.AllocatedAmount,
		ErisaAmount:     a.ErisaAmount,
		AllocationDate:  a.AllocationDate.Format("2006-01-02"),
		Status:          string(a.Status),
	}
}

// InvestorAllocations handles GET requests for an investor's allocation records.
//
// Endpoint: GET /api/investor/{uuid}/allocations
func (h *AllocationHandler) InvestorAllocations(w http.ResponseWriter, r *http.Request) {
	investorID := chi.URLParam(r, "uuid")

	allocations, err := h.allocationService.GetAllocationsByInvestor(investorID)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve allocations")
		return
	}

	response := make([]InvestorAllocationJSON, len(allocations))
	for i, a := range allocations {
		response[i] = toAllocationJSON(a)
	}

	respondJSON(w, http.StatusOK, response)
}

// FundAllocations handles GET requests for a fund's allocation records.
//
// Endpoint: GET /api/fund/{uuid}/allocations
func (h *AllocationHandler) FundAllocations(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "uuid")

	allocations, err := h.allocationService.GetAllocationsByFund(fundID)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve allocations")
		return
	}

	response := make([]InvestorAllocationJSON, len(allocations))
	for i, a := range allocations {
		response[i] = toAllocationJSON(a)
	}

	respondJSON(w, http.StatusOK, response)
}
