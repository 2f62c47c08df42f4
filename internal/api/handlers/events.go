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

// EventHandler handles HTTP requests for fund event endpoints, covering
// the create/approve/process workflow and calculation retrieval.
type EventHandler struct {
	eventService *service.EventService
}

// NewEventHandler creates a new EventHandler with the provided service dependency.
func NewEventHandler(eventService *service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// EventResponse represents a fund event in API responses
type EventResponse struct {
	ID            string          `json:"id"`
	FundID        string          `json:"fundId"`
	Type          string          `json:"type"`
	Name          string          `json:"name"`
	EventDate     string          `json:"eventDate"`
	EffectiveDate string          `json:"effectiveDate"`
	RecordDate    string          `json:"recordDate"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Method        string          `json:"method"`
	Basis         string          `json:"basis"`
	Status        string          `json:"status"`
}

func toEventResponse(e model.FundEvent) EventResponse {
	return EventResponse{
		ID:            e.ID,
		FundID:        e.FundID,
		Type:          string(e.Type),
		Name:          e.Name,
		EventDate:     e.EventDate.Format("2006-01-02"),
		EffectiveDate: e.EffectiveDate.Format("2006-01-02"),
		RecordDate:    e.RecordDate.Format("2006-01-02"),
		TotalAmount:   e.TotalAmount,
		Method:        string(e.Method),
		Basis:         string(e.Basis),
		Status:        string(e.Status),
	}
}

// CreateEvent handles POST requests to create a fund event in draft status.
//
// Endpoint: POST /api/event
// Response: 201 Created with EventResponse
// Error: 400 Bad Request on validation failure
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req request.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid request body",
			"detail": err.Error(),
		})
		return
	}

	if err := validation.ValidateCreateEvent(req); err != nil {
		if !respondValidationError(w, err) {
			respondServiceError(w, err, "Failed to validate event")
		}
		return
	}

	event, err := eventFromRequest(req)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid event dates",
			"detail": err.Error(),
		})
		return
	}

	created, err := h.eventService.CreateEvent(event)
	if err != nil {
		respondServiceError(w, err, "Failed to create event")
		return
	}

	respondJSON(w, http.StatusCreated, toEventResponse(created))
}

// eventFromRequest maps the validated request onto the event model,
// parsing all date fields.
func eventFromRequest(req request.CreateEventRequest) (model.FundEvent, error) {
	eventDate, err := validation.ParseDate(req.EventDate)
	if err != nil {
		return model.FundEvent{}, err
	}
	effectiveDate, err := validation.ParseDate(req.EffectiveDate)
	if err != nil {
		return model.FundEvent{}, err
	}
	recordDate, err := validation.ParseDate(req.RecordDate)
	if err != nil {
		return model.FundEvent{}, err
	}

	event := model.FundEvent{
		FundID:        req.FundID,
		Type:          model.EventType(req.Type),
		Name:          req.Name,
		EventDate:     eventDate,
		EffectiveDate: effectiveDate,
		RecordDate:    recordDate,
		TotalAmount:   req.TotalAmount,
		Method:        model.CalculationMethod(req.Method),
		Basis:         model.CalculationBasis(req.Basis),
	}
	if event.Method == "" {
		event.Method = model.MethodProRata
	}
	if event.Basis == "" {
		event.Basis = model.BasisCommitment
	}

	switch event.Type {
	case model.EventCapitalCall:
		event.InvestmentAmount = req.InvestmentAmount
		event.ManagementFeeAmount = req.ManagementFeeAmount
		event.ExpenseAmount = req.ExpenseAmount
		event.MinimumCallAmount = req.MinimumCallAmount
		if req.AllowPartialFunding != nil {
			event.AllowPartialFunding = *req.AllowPartialFunding
		}
	case model.EventDistribution:
		event.GrossDistribution = req.GrossDistribution
		event.ManagementFeeOffset = req.ManagementFeeOffset
		event.ExpenseOffset = req.ExpenseOffset
		event.WithholdingRequired = req.WithholdingRequired
		event.DefaultWithholdingRate = req.DefaultWithholdingRate
	case model.EventManagementFee:
		event.FeePeriodStart, err = validation.ParseDate(req.FeePeriodStart)
		if err != nil {
			return model.FundEvent{}, err
		}
		event.FeePeriodEnd, err = validation.ParseDate(req.FeePeriodEnd)
		if err != nil {
			return model.FundEvent{}, err
		}
		event.FeeRate = req.FeeRate
		event.ProrateForPeriod = true
		if req.ProrateForPeriod != nil {
			event.ProrateForPeriod = *req.ProrateForPeriod
		}
	}

	return event, nil
}

// Event handles GET requests for a single event.
//
// Endpoint: GET /api/event/{uuid}
func (h *EventHandler) Event(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "uuid")

	event, err := h.eventService.GetEvent(eventID)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve event")
		return
	}

	respondJSON(w, http.StatusOK, toEventResponse(event))
}

// FundEvents handles GET requests for a fund's events.
//
// Endpoint: GET /api/fund/{uuid}/events
func (h *EventHandler) FundEvents(w http.ResponseWriter, r *http.Request) {
	fundID := chi.URLParam(r, "uuid")

	events, err := h.eventService.GetEventsByFund(fundID)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve events")
		return
	}

	response := make([]EventResponse, len(events))
	for i, e := range events {
		response[i] = toEventResponse(e)
	}

	respondJSON(w, http.StatusOK, response)
}

// UpdateStatus handles PUT requests to move an event through its workflow.
//
// Endpoint: PUT /api/event/{uuid}/status
// Response: 200 OK with EventResponse
// Error: 409 Conflict on a disallowed transition
func (h *EventHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "uuid")

	var req request.UpdateEventStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid request body",
			"detail": err.Error(),
		})
		return
	}

	if err := validation.ValidateEventStatus(req.Status); err != nil {
		if !respondValidationError(w, err) {
			respondServiceError(w, err, "Failed to validate status")
		}
		return
	}

	event, err := h.eventService.UpdateStatus(eventID, model.EventStatus(req.Status))
	if err != nil {
		respondServiceError(w, err, "Failed to update event status")
		return
	}

	respondJSON(w, http.StatusOK, toEventResponse(event))
}

// CalculationJSON represents one investor's share of a processed event
type CalculationJSON struct {
	InvestorID           string          `json:"investorId"`
	CommitmentID         string          `json:"commitmentId"`
	OwnershipPercentage  decimal.Decimal `json:"ownershipPercentage"`
	BasisAmount          decimal.Decimal `json:"basisAmount"`
	GrossAmount          decimal.Decimal `json:"grossAmount"`
	ManagementFeeOffset  decimal.Decimal `json:"managementFeeOffset"`
	ExpenseOffset        decimal.Decimal `json:"expenseOffset"`
	WithholdingAmount    decimal.Decimal `json:"withholdingAmount"`
	NetAmount            decimal.Decimal `json:"netAmount"`
	InvestmentPortion    decimal.Decimal `json:"investmentPortion"`
	ManagementFeePortion decimal.Decimal `json:"managementFeePortion"`
	ExpensePortion       decimal.Decimal `json:"expensePortion"`
}

func toCalculationJSON(c model.InvestorEventCalculation) CalculationJSON {
	return CalculationJSON{
		InvestorID:           c.InvestorID,
		CommitmentID:         c.CommitmentID,
		OwnershipPercentage:  c.OwnershipPercentage,
		BasisAmount:          c.BasisAmount,
		GrossAmount:          c.GrossAmount,
		ManagementFeeOffset:  c.ManagementFeeOffset,
		ExpenseOffset:        c.ExpenseOffset,
		WithholdingAmount:    c.WithholdingAmount,
		NetAmount:            c.NetAmount,
		InvestmentPortion:    c.InvestmentPortion,
		ManagementFeePortion: c.ManagementFeePortion,
		ExpensePortion:       c.ExpensePortion,
	}
}

// ProcessingResultResponse represents the outcome of processing an event
type ProcessingResultResponse struct {
	EventID                 string            `json:"eventId"`
	ProcessingID            string            `json:"processingId"`
	Status                  string            `json:"status"`
	TotalInvestorsProcessed int               `json:"totalInvestorsProcessed"`
	TotalGrossAmount        decimal.Decimal   `json:"totalGrossAmount"`
	TotalNetAmount          decimal.Decimal   `json:"totalNetAmount"`
	TotalWithholding        decimal.Decimal   `json:"totalWithholding"`
	Calculations            []CalculationJSON `json:"calculations"`
	ValidationErrors        []string          `json:"validationErrors,omitempty"`
	ValidationWarnings      []string          `json:"validationWarnings,omitempty"`
}

// Process handles POST requests to run an approved event's calculation.
//
// Endpoint: POST /api/event/{uuid}/process
// Response: 200 OK with ProcessingResultResponse
// Error: 409 Conflict when the event is not approved
func (h *EventHandler) Process(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "uuid")

	result, err := h.eventService.ProcessEvent(eventID)
	if err != nil {
		respondServiceError(w, err, "Failed to process event")
		return
	}

	calculations := make([]CalculationJSON, len(result.InvestorCalculations))
	for i, c := range result.InvestorCalculations {
		calculations[i] = toCalculationJSON(c)
	}

	respondJSON(w, http.StatusOK, ProcessingResultResponse{
		EventID:                 result.EventID,
		ProcessingID:            result.ProcessingID,
		Status:                  string(result.Status),
		TotalInvestorsProcessed: result.TotalInvestorsProcessed,
		TotalGrossAmount:        result.TotalGrossAmount,
		TotalNetAmount:          result.TotalNetAmount,
		TotalWithholding:        result.TotalWithholding,
		Calculations:            calculations,
		ValidationErrors:        result.ValidationErrors,
		ValidationWarnings:      result.ValidationWarnings,
	})
}

// Calculations handles GET requests for an event's persisted calculations.
//
// Endpoint: GET /api/event/{uuid}/calculations
func (h *EventHandler) Calculations(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "uuid")

	calculations, err := h.eventService.GetCalculations(eventID)
	if err != nil {
		respondServiceError(w, err, "Failed to retrieve calculations")
		return
	}

	response := make([]CalculationJSON, len(calculations))
	for i, c := range calculations {
		response[i] = toCalculationJSON(c)
	}

	respondJSON(w, http.StatusOK, response)
}
