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

// InvestorHandler handles HTTP requests for investor and commitment endpoints.
type InvestorHandler struct {
	investorService *service.InvestorService
}

// NewInvestorHandler creates a new InvestorHandler with the provided service dependency.
func NewInvestorHandler(investorService *service.InvestorService) *InvestorHandler {
	return &InvestorHandler{
		investorService: investorService,
	}
}

// InvestorResponse represents an investor in API responses.
// The tax ID is never returned.
type InvestorResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Email        string `json:"email"`
	Jurisdiction string `json:"jurisdiction"`
	KYCStatus    string `json:"kycStatus"`
	AMLStatus    string `json:"amlStatus"`
	IsActive     bool   `json:"isActive"`
}

func toInvestorResponse(inv model.Investor) InvestorResponse {
	return InvestorResponse{
		ID:           inv.ID,
		Name:         inv.Name,
		Type:         string(inv.Type),
		Email:        inv.Email,
		Jurisdiction: inv.Jurisdiction,
		KYCStatus:    string(inv.KYCStatus),
		AMLStatus:    string(inv.AMLStatus),
		IsActive:     inv.IsActive,
	}
}

// CreateInvestor handles POST requests to register a new investor.
//
// Endpoint: POST /api/investor
// Response: 201 Created with InvestorResponse
// Error: 400 Bad Request on validation failure
func (h *InvestorHandler) CreateInvestor(w http.ResponseWriter, r *http.Request) {
	var req request.CreateInvestorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid request body",
			"detail": err.Error(),
		})
		return
	}

	if err := validation.ValidateCreateInvestor(req); err != nil {
		if !respondValidationError(w, err) {
			respondServiceError(w, err, "Failed to validate investor")
		}
		return
	}

	investor := model.Investor{
		Name:         req.Name,
		Type:         model.InvestorType(req.Type),
		Email:        req.Email,
		Jurisdiction: req.Jurisdiction,
		TaxID:        req.TaxID,
		KYCStatus:    model.ComplianceStatus(req.KYCStatus),
		AMLStatus:    model.ComplianceStatus(req.AMLStatus),
	}

	created, err := h.investorService.CreateInvestor(investor)
	if err != nil {
		respondServiceError(w, err, "Failed to create investor")
		return
	}

	respondJSON(w, http.StatusCreated, toInvestorResponse(created))
}

// Investors handles GET requests to retrieve all investors.
//
// Endpoint: GET /api/investor
func (h *InvestorHandler) Investors(w http.ResponseWriter, r *http.Request) {
	investors, err := h.investorService.GetInvestors()
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve investors")
		return
	}

	response := make([]InvestorResponse, len(investors))
	for i, inv := range investors {
		response[i] = toInvestorResponse(inv)
	}

	respondJSON(w, http.StatusOK, response)
}

// Investor handles GET requests for a single investor.
//
// Endpoint: GET /api/investor/{uuid}
func (h *InvestorHandler) Investor(w http.ResponseWriter, r *http.Request) {
	investorID := chi.URLParam(r, "uuid")

	investor, err := h.investorService.GetInvestor(investorID)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve investor")
		return
	}

	respondJSON(w, http.StatusOK, toInvestorResponse(investor))
}

// CommitmentResponse represents an investor commitment in API responses
type CommitmentResponse struct {
	ID               string           `json:"id"`
	InvestorID       string           `json:"investorId"`
	FundID           string           `json:"fundId"`
	CommitmentAmount decimal.Decimal  `json:"commitmentAmount"`
	PaidInAmount     decimal.Decimal  `json:"paidInAmount"`
	NAVAmount        decimal.Decimal  `json:"navAmount"`
	CommitmentDate   string           `json:"commitmentDate"`
	WithholdingRate  *decimal.Decimal `json:"withholdingRate,omitempty"`
	Status           string           `json:"status"`
}

func toCommitmentResponse(c model.InvestorCommitment) CommitmentResponse {
	response := CommitmentResponse{
		ID:               c.ID,
		InvestorID:       c.InvestorID,
		FundID:           c.FundID,
		CommitmentAmount: c.CommitmentAmount,
		PaidInAmount:     c.PaidInAmount,
		NAVAmount:        c.NAVAmount,
		CommitmentDate:   c.CommitmentDate.Format("2006-01-02"),
		Status:           string(c.Status),
	}
	if c.HasWithholdingRate {
		rate := c.WithholdingRate
		response.WithholdingRate = &rate
	}
	return response
}

// CreateCommitment handles POST requests to record an investor commitment.
//
// Endpoint: POST /api/commitment
// Response: 201 Created with CommitmentResponse
// Error: 400 Bad Request on validation failure, 404 Not Found when the
// investor or fund does not exist
func (h *InvestorHandler) CreateCommitment(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCommitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid request body",
			"detail": err.Error(),
		})
		return
	}

	if err := validation.ValidateCreateCommitment(req); err != nil {
		if !respondValidationError(w, err) {
			respondServiceError(w, err, "Failed to validate commitment")
		}
		return
	}

	commitmentDate, err := validation.ParseDate(req.CommitmentDate)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid commitment date",
			"detail": err.Error(),
		})
		return
	}

	commitment := model.InvestorCommitment{
		InvestorID:       req.InvestorID,
		FundID:           req.FundID,
		CommitmentAmount: req.CommitmentAmount,
		PaidInAmount:     req.PaidInAmount,
		NAVAmount:        req.NAVAmount,
		CommitmentDate:   commitmentDate,
	}
	if req.WithholdingRate != nil {
		commitment.WithholdingRate = *req.WithholdingRate
		commitment.HasWithholdingRate = true
	}

	created, err := h.investorService.CreateCommitment(commitment)
	if err != nil {
		respondServiceError(w, err, "Failed to create commitment")
		return
	}

	respondJSON(w, http.StatusCreated, toCommitmentResponse(created))
}

// FundCommitments handles GET requests for a fund's commitments.
//
// Endpoint: GET /api/fund/{uuid}/commitments
func (h *InvestorHandler) FundCommitments(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "uuid")

	commitments, err := h.investorService.GetCommitmentsByFund(fundID)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve commitments")
		return
	}

	response := make([]CommitmentResponse, len(commitments))
	for i, c := range commitments {
		response[i] = toCommitmentResponse(c)
	}

	respondJSON(w, http.StatusOK, response)
}
