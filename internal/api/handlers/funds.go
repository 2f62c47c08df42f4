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

// FundHandler handles HTTP requests for fund vehicle endpoints.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the fundService.
type FundHandler struct {
	fundService *service.FundService
}

// NewFundHandler creates a new FundHandler with the provided service dependency.
func NewFundHandler(fundService *service.FundService) *FundHandler {
	return &FundHandler{
		fundService: fundService,
	}
}

// FundResponse represents a fund vehicle in API responses
type FundResponse struct {
	ID                      string          `json:"id"`
	Name                    string          `json:"name"`
	StructureType           string          `json:"structureType"`
	Status                  string          `json:"status"`
	ParentFundID            string          `json:"parentFundId,omitempty"`
	InceptionDate           string          `json:"inceptionDate"`
	TargetSize              decimal.Decimal `json:"targetSize"`
	MinCommitment           decimal.Decimal `json:"minCommitment"`
	MaxCommitment           decimal.Decimal `json:"maxCommitment"`
	MaxInvestors            int             `json:"maxInvestors"`
	EligibleInvestorTypes   []string        `json:"eligibleInvestorTypes"`
	RestrictedJurisdictions []string        `json:"restrictedJurisdictions"`
	ManagementFeeRate       decimal.Decimal `json:"managementFeeRate"`
	CarryRate               decimal.Decimal `json:"carryRate"`
	CommittedCapital        decimal.Decimal `json:"committedCapital"`
	ErisaCapital            decimal.Decimal `json:"erisaCapital"`
	AvailableCapacity       decimal.Decimal `json:"availableCapacity"`
	AllocationStrategy      string          `json:"allocationStrategy"`
}

func toFundResponse(f model.FundVehicle) FundResponse {
	types := make([]string, len(f.EligibleInvestorTypes))
	for i, t := range f.EligibleInvestorTypes {
		types[i] = string(t)
	}

	return FundResponse{
		ID:                      f.ID,
		Name:                    f.Name,
		StructureType:           string(f.StructureType),
		Status:                  string(f.Status),
		ParentFundID:            f.ParentFundID,
		InceptionDate:           f.InceptionDate.Format("2006-01-02"),
		TargetSize:              f.TargetSize,
		MinCommitment:           f.MinCommitment,
		MaxCommitment:           f.MaxCommitment,
		MaxInvestors:            f.MaxInvestors,
		EligibleInvestorTypes:   types,
		RestrictedJurisdictions: f.RestrictedJurisdictions,
		ManagementFeeRate:       f.ManagementFeeRate,
		CarryRate:               f.CarryRate,
		CommittedCapital:        f.CommittedCapital,
		ErisaCapital:            f.ErisaCapital,
		AvailableCapacity:       f.AvailableCapacity(),
		AllocationStrategy:      string(f.AllocationStrategy),
	}
}

// CreateFund handles POST requests to register a new fund vehicle.
//
// Endpoint: POST /api/fund
// Response: 201 Created with FundResponse
// Error: 400 Bad Request on validation failure
func (h *FundHandler) CreateFund(w http.ResponseWriter, r *http.Request) {
	var req request.CreateFundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid request body",
			"detail": err.Error(),
		})
		return
	}

	if err := validation.ValidateCreateFund(req); err != nil {
		if !respondValidationError(w, err) {
			respondServiceError(w, err, "Failed to validate fund")
		}
		return
	}

	inception, err := validation.ParseDate(req.InceptionDate)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid inception date",
			"detail": err.Error(),
		})
		return
	}

	types := make([]model.InvestorType, len(req.EligibleInvestorTypes))
	for i, t := range req.EligibleInvestorTypes {
		types[i] = model.InvestorType(t)
	}

	fund := model.FundVehicle{
		Name:                    req.Name,
		StructureType:           model.StructureType(req.StructureType),
		ParentFundID:            req.ParentFundID,
		MasterFundID:            req.MasterFundID,
		InceptionDate:           inception,
		TargetSize:              req.TargetSize,
		MinCommitment:           req.MinCommitment,
		MaxCommitment:           req.MaxCommitment,
		MaxInvestors:            req.MaxInvestors,
		EligibleInvestorTypes:   types,
		RestrictedJurisdictions: req.RestrictedJurisdictions,
		ManagementFeeRate:       req.ManagementFeeRate,
		CarryRate:               req.CarryRate,
		AllocationStrategy:      model.AllocationStrategy(req.AllocationStrategy),
	}

	created, err := h.fundService.CreateFund(fund)
	if err != nil {
		respondServiceError(w, err, "Failed to create fund")
		return
	}

	respondJSON(w, http.StatusCreated, toFundResponse(created))
}

// Funds handles GET requests to retrieve all fund vehicles.
//
// Endpoint: GET /api/fund
// Response: 200 OK with array of FundResponse
// Error: 500 Internal Server Error if retrieval fails
func (h *FundHandler) Funds(w http.ResponseWriter, r *http.Request) {
	funds, err := h.fundService.GetFunds()
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve funds")
		return
	}

	response := make([]FundResponse, len(funds))
	for i, f := range funds {
		response[i] = toFundResponse(f)
	}

	respondJSON(w, http.StatusOK, response)
}

// Fund handles GET requests for a single fund vehicle.
//
// Endpoint: GET /api/fund/{uuid}
// Response: 200 OK with FundResponse
// Error: 404 Not Found if the fund does not exist
func (h *FundHandler) Fund(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "uuid")

	fund, err := h.fundService.GetFund(fundID)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve fund")
		return
	}

	respondJSON(w, http.StatusOK, toFundResponse(fund))
}

// AllocationReportResponse represents the registry-wide subscription report
type AllocationReportResponse struct {
	GeneratedAt      string                `json:"generatedAt"`
	TotalFunds       int                   `json:"totalFunds"`
	TotalInvestors   int                   `json:"totalInvestors"`
	TotalAllocations int                   `json:"totalAllocations"`
	Funds            []FundReportEntryJSON `json:"funds"`
}

// FundReportEntryJSON represents one vehicle in the subscription report
type FundReportEntryJSON struct {
	FundID            string          `json:"fundId"`
	FundName          string          `json:"fundName"`
	StructureType     string          `json:"structureType"`
	TargetSize        decimal.Decimal `json:"targetSize"`
	CommittedCapital  decimal.Decimal `json:"committedCapital"`
	SubscriptionRate  decimal.Decimal `json:"subscriptionRate"`
	InvestorCount     int             `json:"investorCount"`
	MaxInvestors      int             `json:"maxInvestors"`
	AvailableCapacity decimal.Decimal `json:"availableCapacity"`
}

// AllocationReport handles GET requests for the cross-fund subscription report.
//
// Endpoint: GET /api/fund/report
// Response: 200 OK with AllocationReportResponse
func (h *FundHandler) AllocationReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.fundService.GenerateAllocationReport()
	if err != nil {
		respondServiceError(w, err, "Failed to generate allocation report")
		return
	}

	entries := make([]FundReportEntryJSON, len(report.Funds))
	for i, entry := range report.Funds {
		entries[i] = FundReportEntryJSON{
			FundID:            entry.FundID,
			FundName:          entry.FundName,
			StructureType:     string(entry.StructureType),
			TargetSize:        entry.TargetSize,
			CommittedCapital:  entry.CommittedCapital,
			SubscriptionRate:  entry.SubscriptionRate,
			InvestorCount:     entry.InvestorCount,
			MaxInvestors:      entry.MaxInvestors,
			AvailableCapacity: entry.AvailableCapacity,
		}
	}

	respondJSON(w, http.StatusOK, AllocationReportResponse{
		GeneratedAt:      report.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		TotalFunds:       report.TotalFunds,
		TotalInvestors:   report.TotalInvestors,
		TotalAllocations: report.TotalAllocations,
		Funds:            entries,
	})
}
