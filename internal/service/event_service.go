package service

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Fund-Administration-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/ndewijer/Fund-Administration-Backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	daysPerYear     = decimal.NewFromInt(365)
	roundingEpsilon = decimal.NewFromFloat(0.01)
)

// EventService manages fund event lifecycle and runs the per-investor
// event calculations. Calculate is a pure function over the supplied
// event and commitments; ProcessEvent wraps it with workflow state,
// persistence and per-fund locking.
type EventService struct {
	db             *sql.DB
	eventRepo      *repository.EventRepository
	commitmentRepo *repository.CommitmentRepository
	locker         *FundLocker
	logger         zerolog.Logger
}

// NewEventService creates a new EventService with the provided dependencies.
func NewEventService(
	db *sql.DB,
	eventRepo *repository.EventRepository,
	commitmentRepo *repository.CommitmentRepository,
	locker *FundLocker,
	logger zerolog.Logger,
) *EventService {
	return &EventService{
		db:             db,
		eventRepo:      eventRepo,
		commitmentRepo: commitmentRepo,
		locker:         locker,
		logger:         logger,
	}
}

// CreateEvent persists a new event in draft status.
func (s *EventService) CreateEvent(event model.FundEvent) (model.FundEvent, error) {
	event.ID = uuid.NewString()
	event.Status = model.EventDraft
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	if err := s.eventRepo.CreateEvent(event); err != nil {
		return model.FundEvent{}, err
	}

	s.logger.Info().
		Str("event_id", event.ID).
		Str("fund_id", event.FundID).
		Str("type", string(event.Type)).
		Msg("event created")

	return event, nil
}

// GetEvent retrieves a single event by ID.
func (s *EventService) GetEvent(eventID string) (model.FundEvent, error) {
	return s.eventRepo.GetEvent(eventID)
}

// GetEventsByFund retrieves all events for a fund.
func (s *EventService) GetEventsByFund(fundID string) ([]model.FundEvent, error) {
	return s.eventRepo.GetEventsByFund(fundID)
}

// GetCalculations retrieves the persisted per-investor calculations of an event.
func (s *EventService) GetCalculations(eventID string) ([]model.InvestorEventCalculation, error) {
	return s.eventRepo.GetCalculations(eventID)
}

// UpdateStatus moves an event through the approval workflow. Transitions
// outside the allowed matrix are rejected.
func (s *EventService) UpdateStatus(eventID string, to model.EventStatus) (model.FundEvent, error) {
	event, err := s.eventRepo.GetEvent(eventID)
	if err != nil {
		return model.FundEvent{}, err
	}

	if !event.Status.CanTransition(to) {
		return model.FundEvent{}, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidStatusTransition, event.Status, to)
	}

	if err := s.eventRepo.UpdateEventStatus(eventID, to); err != nil {
		return model.FundEvent{}, err
	}
	event.Status = to

	s.logger.Info().
		Str("event_id", eventID).
		Str("status", string(to)).
		Msg("event status updated")

	return event, nil
}

// ProcessEvent runs the calculation for an approved event, persists the
// per-investor ledger records and settles the event's final status.
// Calculation errors mark the event failed only when no records could be
// produced at all; partial runs still complete.
func (s *EventService) ProcessEvent(eventID string) (model.EventProcessingResult, error) {
	event, err := s.eventRepo.GetEvent(eventID)
	if err != nil {
		return model.EventProcessingResult{}, err
	}

	if event.Status != model.EventApproved {
		return model.EventProcessingResult{}, fmt.Errorf("%w: event is %s", apperrors.ErrEventNotApproved, event.Status)
	}

	unlock := s.locker.Lock(event.FundID)
	defer unlock()

	if err := s.eventRepo.UpdateEventStatus(eventID, model.EventProcessing); err != nil {
		return model.EventProcessingResult{}, err
	}

	commitments, err := s.commitmentRepo.GetCommitmentsByFund(event.FundID)
	if err != nil {
		return model.EventProcessingResult{}, err
	}

	result := s.Calculate(event, commitments)

	finalStatus := model.EventCompleted
	if result.Status == model.ProcessingFailed {
		finalStatus = model.EventFailed
	}

	if err := s.saveProcessingOutcome(eventID, result, finalStatus); err != nil {
		// The event must not stay stranded in processing when the save
		// fails; the ledger rows rolled back with the transaction.
		if markErr := s.eventRepo.UpdateEventStatus(eventID, model.EventFailed); markErr != nil {
			s.logger.Error().
				Err(markErr).
				Str("event_id", eventID).
				Msg("could not mark event failed after save error")
		}
		return model.EventProcessingResult{}, err
	}

	s.logger.Info().
		Str("event_id", eventID).
		Str("status", string(result.Status)).
		Int("investors", result.TotalInvestorsProcessed).
		Str("gross", result.TotalGrossAmount.String()).
		Msg("event processed")

	return result, nil
}

// saveProcessingOutcome writes an event's calculations and final status in
// one transaction. The deferred rollback releases the connection before the
// caller attempts any recovery write.
func (s *EventService) saveProcessingOutcome(eventID string, result model.EventProcessingResult, finalStatus model.EventStatus) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin event transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	eventRepo := s.eventRepo.WithTx(tx)
	if len(result.InvestorCalculations) > 0 {
		if err := eventRepo.SaveCalculations(result.InvestorCalculations); err != nil {
			return err
		}
	}
	if err := eventRepo.UpdateEventStatus(eventID, finalStatus); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit event transaction: %w", err)
	}
	return nil
}

// Calculate computes every eligible investor's share of an event. It is a
// pure function: no I/O, no mutation of its inputs, all failures returned
// as data in the result.
func (s *EventService) Calculate(event model.FundEvent, commitments []model.InvestorCommitment) model.EventProcessingResult {
	result := model.EventProcessingResult{
		EventID:      event.ID,
		ProcessingID: uuid.NewString(),
		ProcessedAt:  time.Now().UTC(),
	}

	eligible := eligibleCommitments(event, commitments)

	totalBasis := decimal.Zero
	for _, c := range eligible {
		totalBasis = totalBasis.Add(basisAmount(event.Basis, c))
	}

	if !totalBasis.IsPositive() {
		result.Status = model.ProcessingFailed
		result.ValidationErrors = append(result.ValidationErrors,
			"total basis amount is zero; cannot compute ownership percentages")
		return result
	}

	for _, commitment := range eligible {
		basis := basisAmount(event.Basis, commitment)
		ownership := basis.Mul(oneHundred).Div(totalBasis)

		calc := model.InvestorEventCalculation{
			ID:                  uuid.NewString(),
			EventID:             event.ID,
			InvestorID:          commitment.InvestorID,
			CommitmentID:        commitment.ID,
			OwnershipPercentage: ownership,
			BasisAmount:         basis,
			CreatedAt:           result.ProcessedAt,
		}

		// Apportioning multiplies before dividing so amounts that split
		// evenly stay exact.
		portion := func(amount decimal.Decimal) decimal.Decimal {
			return amount.Mul(basis).Div(totalBasis)
		}
		if event.Method != model.MethodProRata {
			participants := decimal.NewFromInt(int64(len(eligible)))
			portion = func(amount decimal.Decimal) decimal.Decimal {
				return amount.Div(participants)
			}
		}

		switch event.Type {
		case model.EventCapitalCall:
			applyCapitalCall(&calc, event, portion)
		case model.EventDistribution:
			applyDistribution(&calc, event, commitment, portion)
		case model.EventManagementFee:
			applyManagementFee(&calc, event, basis)
		}

		validateCalculation(&result, calc)
		result.InvestorCalculations = append(result.InvestorCalculations, calc)

		result.TotalGrossAmount = result.TotalGrossAmount.Add(calc.GrossAmount)
		result.TotalNetAmount = result.TotalNetAmount.Add(calc.NetAmount)
		result.TotalWithholding = result.TotalWithholding.Add(calc.WithholdingAmount)
	}

	result.TotalInvestorsProcessed = len(result.InvestorCalculations)
	if len(result.ValidationErrors) > 0 {
		result.Status = model.ProcessingPartial
	} else {
		result.Status = model.ProcessingCompleted
	}

	return result
}

// eligibleCommitments filters out inactive commitments and those made
// after the event's record date.
func eligibleCommitments(event model.FundEvent, commitments []model.InvestorCommitment) []model.InvestorCommitment {
	eligible := make([]model.InvestorCommitment, 0, len(commitments))
	for _, c := range commitments {
		if c.Status != model.CommitmentActive {
			continue
		}
		if c.CommitmentDate.After(event.RecordDate) {
			continue
		}
		eligible = append(eligible, c)
	}
	return eligible
}

// basisAmount selects the commitment field named by the event basis.
// An unknown basis falls back to the commitment amount.
func basisAmount(basis model.CalculationBasis, c model.InvestorCommitment) decimal.Decimal {
	switch basis {
	case model.BasisPaidIn:
		return c.PaidInAmount
	case model.BasisNAV:
		return c.NAVAmount
	default:
		return c.CommitmentAmount
	}
}

// applyCapitalCall computes the investor's call amount and its component
// breakdown. An investor below the minimum call amount gets a zero-amount
// record when partial funding is disallowed, never a skipped one.
func applyCapitalCall(calc *model.InvestorEventCalculation, event model.FundEvent, portion func(decimal.Decimal) decimal.Decimal) {
	calc.GrossAmount = portion(event.TotalAmount)
	calc.InvestmentPortion = portion(event.InvestmentAmount)
	calc.ManagementFeePortion = portion(event.ManagementFeeAmount)
	calc.ExpensePortion = portion(event.ExpenseAmount)

	if event.MinimumCallAmount.IsPositive() &&
		calc.GrossAmount.LessThan(event.MinimumCallAmount) &&
		!event.AllowPartialFunding {
		calc.GrossAmount = decimal.Zero
		calc.InvestmentPortion = decimal.Zero
		calc.ManagementFeePortion = decimal.Zero
		calc.ExpensePortion = decimal.Zero
	}

	calc.NetAmount = calc.GrossAmount
}

// applyDistribution computes the investor's distribution share net of
// offsets and withholding. Net is floored at zero.
func applyDistribution(calc *model.InvestorEventCalculation, event model.FundEvent, commitment model.InvestorCommitment, portion func(decimal.Decimal) decimal.Decimal) {
	calc.GrossAmount = portion(event.GrossDistribution)
	calc.ManagementFeeOffset = portion(event.ManagementFeeOffset)
	calc.ExpenseOffset = portion(event.ExpenseOffset)

	if event.WithholdingRequired {
		rate := event.DefaultWithholdingRate
		if commitment.HasWithholdingRate {
			rate = commitment.WithholdingRate
		}
		calc.WithholdingAmount = calc.GrossAmount.Mul(rate)
	}

	net := calc.GrossAmount.
		Sub(calc.ManagementFeeOffset).
		Sub(calc.ExpenseOffset).
		Sub(calc.WithholdingAmount)
	calc.NetAmount = decimal.Max(net, decimal.Zero)
}

// applyManagementFee computes the investor's fee on their own basis
// amount, prorated over the fee period when requested.
func applyManagementFee(calc *model.InvestorEventCalculation, event model.FundEvent, basis decimal.Decimal) {
	annual := basis.Mul(event.FeeRate)

	if event.ProrateForPeriod {
		days := event.DaysInPeriod
		if days == 0 && event.FeePeriodEnd.After(event.FeePeriodStart) {
			days = int(event.FeePeriodEnd.Sub(event.FeePeriodStart).Hours() / 24)
		}
		annual = annual.Mul(decimal.NewFromInt(int64(days))).Div(daysPerYear)
	}

	calc.GrossAmount = annual
	calc.NetAmount = annual
}

// validateCalculation accumulates per-investor anomalies. Errors never
// abort other investors' calculations and never drop the errored record.
func validateCalculation(result *model.EventProcessingResult, calc model.InvestorEventCalculation) {
	if calc.NetAmount.IsNegative() {
		result.ValidationErrors = append(result.ValidationErrors,
			fmt.Sprintf("investor %s: negative net amount %s", calc.InvestorID, calc.NetAmount))
	}
	if calc.OwnershipPercentage.IsZero() && !calc.GrossAmount.IsZero() {
		result.ValidationWarnings = append(result.ValidationWarnings,
			fmt.Sprintf("investor %s: non-zero gross amount with zero ownership", calc.InvestorID))
	}
	if calc.GrossAmount.IsPositive() && calc.GrossAmount.LessThan(roundingEpsilon) {
		result.ValidationWarnings = append(result.ValidationWarnings,
			fmt.Sprintf("investor %s: gross amount %s below rounding threshold", calc.InvestorID, calc.GrossAmount))
	}
}
