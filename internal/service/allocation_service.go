package service

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/ndewijer/Fund-Administration-Backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Scoring weights for fund-investor matching. Structure preference is the
// base score; the remaining factors are additive bonuses.
var (
	structureScores = map[model.StructureType]decimal.Decimal{
		model.StructureMain:       decimal.NewFromFloat(1.0),
		model.StructureParallel:   decimal.NewFromFloat(0.9),
		model.StructureFeeder:     decimal.NewFromFloat(0.8),
		model.StructureMaster:     decimal.NewFromFloat(0.7),
		model.StructureBlocker:    decimal.NewFromFloat(0.6),
		model.StructureAggregator: decimal.NewFromFloat(0.5),
	}

	capacityWeight    = decimal.NewFromFloat(0.5)
	typeMatchBonus    = decimal.NewFromFloat(0.3)
	feeWeight         = decimal.NewFromFloat(0.2)
	relationshipBonus = decimal.NewFromFloat(0.2)
	erisaLimitPercent = decimal.NewFromInt(25)
	oneHundred        = decimal.NewFromInt(100)
)

// AllocationService is the allocation engine. It matches investor capital
// to eligible fund vehicles under regulatory, capacity and preference
// constraints, and commits accepted amounts to the registry.
//
// Allocate mutates fund committed capital with a non-atomic read-then-write
// and can allocate into any vehicle in the registry, so it holds every
// candidate vehicle's lock from before the capacity read until commit.
type AllocationService struct {
	db             *sql.DB
	fundRepo       *repository.FundRepository
	investorRepo   *repository.InvestorRepository
	allocationRepo *repository.AllocationRepository
	locker         *FundLocker
	logger         zerolog.Logger
}

// NewAllocationService creates a new AllocationService with the provided dependencies.
func NewAllocationService(
	db *sql.DB,
	fundRepo *repository.FundRepository,
	investorRepo *repository.InvestorRepository,
	allocationRepo *repository.AllocationRepository,
	locker *FundLocker,
	logger zerolog.Logger,
) *AllocationService {
	return &AllocationService{
		db:             db,
		fundRepo:       fundRepo,
		investorRepo:   investorRepo,
		allocationRepo: allocationRepo,
		locker:         locker,
		logger:         logger,
	}
}

// Allocate processes an allocation request against every vehicle in the
// registry. An unknown investor ID is a hard error; every other rule
// violation surfaces as a structured rejection reason in the result.
//
// Accepted allocations permanently increase the vehicle's committed
// capital; the side effect is not reversible within the call.
func (s *AllocationService) Allocate(req model.AllocationRequest) (model.AllocationResult, error) {
	if _, err := s.investorRepo.GetInvestor(req.InvestorID); err != nil {
		return model.AllocationResult{}, err
	}

	// Any vehicle in the registry can receive part of this request, so
	// every vehicle's lock is held before its capacity is read.
	candidates, err := s.fundRepo.GetFunds()
	if err != nil {
		return model.AllocationResult{}, err
	}
	lockedIDs := make(map[string]bool, len(candidates))
	ids := make([]string, len(candidates))
	for i, f := range candidates {
		lockedIDs[f.ID] = true
		ids[i] = f.ID
	}
	unlock := s.locker.LockMany(ids)
	defer unlock()

	// Re-read under the locks so capacity reflects allocations committed
	// while this request waited. A vehicle registered in between is not
	// covered by the lock set and sits out this request.
	all, err := s.fundRepo.GetFunds()
	if err != nil {
		return model.AllocationResult{}, err
	}
	funds := make([]model.FundVehicle, 0, len(all))
	for _, f := range all {
		if lockedIDs[f.ID] {
			funds = append(funds, f)
		}
	}

	scores, err := s.scoreFunds(req, funds)
	if err != nil {
		return model.AllocationResult{}, err
	}

	fundsByID := make(map[string]model.FundVehicle, len(funds))
	for _, f := range funds {
		fundsByID[f.ID] = f
	}

	eligible := make([]model.AllocationScore, 0, len(scores))
	for _, score := range scores {
		if score.Eligible {
			eligible = append(eligible, score)
		}
	}

	sortByPreference(eligible, req.PreferenceOrder)

	allocations, err := s.allocateToFunds(req, eligible, fundsByID)
	if err != nil {
		return model.AllocationResult{}, err
	}

	result := s.buildResult(req, allocations, scores, fundsByID)

	s.logger.Info().
		Str("investor_id", req.InvestorID).
		Str("status", string(result.Status)).
		Str("requested", result.TotalRequested.String()).
		Str("allocated", result.TotalAllocated.String()).
		Msg("allocation request processed")

	return result, nil
}

// GetAllocationsByInvestor retrieves an investor's persisted allocations.
func (s *AllocationService) GetAllocationsByInvestor(investorID string) ([]model.InvestorAllocation, error) {
	if _, err := s.investorRepo.GetInvestor(investorID); err != nil {
		return nil, err
	}
	return s.allocationRepo.GetAllocationsByInvestor(investorID)
}

// GetAllocationsByFund retrieves the allocations recorded against a fund.
func (s *AllocationService) GetAllocationsByFund(fundID string) ([]model.InvestorAllocation, error) {
	if _, err := s.fundRepo.GetFund(fundID); err != nil {
		return nil, err
	}
	return s.allocationRepo.GetAllocationsByFund(fundID)
}

// scoreFunds screens and scores every vehicle for the request. Ineligible
// vehicles keep their rejection reasons so they can still be suggested as
// alternatives.
func (s *AllocationService) scoreFunds(req model.AllocationRequest, funds []model.FundVehicle) ([]model.AllocationScore, error) {
	scores := make([]model.AllocationScore, 0, len(funds))

	for _, fund := range funds {
		score := model.AllocationScore{
			FundID:   fund.ID,
			Eligible: true,
			Factors:  make(map[string]decimal.Decimal),
		}

		reasons, err := s.checkEligibility(req, fund)
		if err != nil {
			return nil, err
		}
		if len(reasons) > 0 {
			score.Eligible = false
			score.RejectionReasons = reasons
			scores = append(scores, score)
			continue
		}

		factors, err := s.scoringFactors(req, fund)
		if err != nil {
			return nil, err
		}
		score.Factors = factors
		for _, v := range factors {
			score.Score = score.Score.Add(v)
		}

		scores = append(scores, score)
	}

	return scores, nil
}

// checkEligibility applies every screening rule and returns the full list
// of human-readable reasons the vehicle fails, empty when eligible.
func (s *AllocationService) checkEligibility(req model.AllocationRequest, fund model.FundVehicle) ([]string, error) {
	var reasons []string

	if len(fund.EligibleInvestorTypes) > 0 && !containsType(fund.EligibleInvestorTypes, req.InvestorType) {
		reasons = append(reasons, fmt.Sprintf("Investor type %s not eligible for fund", req.InvestorType))
	}

	for _, restricted := range fund.RestrictedJurisdictions {
		if strings.EqualFold(restricted, req.Jurisdiction) {
			reasons = append(reasons, fmt.Sprintf("Jurisdiction %s is restricted", req.Jurisdiction))
			break
		}
	}

	if req.RequestedAmount.LessThan(fund.MinCommitment) {
		reasons = append(reasons, fmt.Sprintf("Requested amount below minimum commitment of %s", fund.MinCommitment))
	}

	if !fund.MaxCommitment.IsZero() && req.RequestedAmount.GreaterThan(fund.MaxCommitment) {
		reasons = append(reasons, fmt.Sprintf("Requested amount exceeds maximum commitment of %s", fund.MaxCommitment))
	}

	if !fund.AvailableCapacity().IsPositive() {
		reasons = append(reasons, "Fund is fully subscribed")
	}

	if fund.MaxInvestors > 0 {
		count, err := s.allocationRepo.CountFundInvestors(fund.ID)
		if err != nil {
			return nil, err
		}
		if count >= fund.MaxInvestors {
			reasons = append(reasons, fmt.Sprintf("Fund has reached maximum investor limit of %d", fund.MaxInvestors))
		}
	}

	if req.ErisaPercentage.IsPositive() && fund.StructureType == model.StructureMain {
		if erisaLimitExceeded(fund, req) {
			reasons = append(reasons, "Would exceed 25% ERISA limit")
		}
	}

	if req.TaxTransparentRequired {
		if fund.StructureType != model.StructureMain && fund.StructureType != model.StructureParallel {
			reasons = append(reasons, "Fund structure is not tax transparent")
		}
	}

	return reasons, nil
}

// erisaLimitExceeded checks whether accepting the request would push the
// vehicle's benefit-plan share of committed capital past 25%. The fund
// tracks ERISA capital cumulatively; the screen uses the full requested
// amount as the prospective commitment.
func erisaLimitExceeded(fund model.FundVehicle, req model.AllocationRequest) bool {
	erisaPortion := req.RequestedAmount.Mul(req.ErisaPercentage).Div(oneHundred)
	prospectiveErisa := fund.ErisaCapital.Add(erisaPortion)
	prospectiveTotal := fund.CommittedCapital.Add(req.RequestedAmount)

	if !prospectiveTotal.IsPositive() {
		return false
	}

	share := prospectiveErisa.Mul(oneHundred).Div(prospectiveTotal)
	return share.GreaterThan(erisaLimitPercent)
}

// scoringFactors computes the weighted match factors for an eligible vehicle.
func (s *AllocationService) scoringFactors(req model.AllocationRequest, fund model.FundVehicle) (map[string]decimal.Decimal, error) {
	factors := make(map[string]decimal.Decimal)

	structureScore, ok := structureScores[fund.StructureType]
	if !ok {
		structureScore = decimal.NewFromFloat(0.5)
	}
	factors["structure_preference"] = structureScore

	capacityRatio := decimal.Zero
	if fund.TargetSize.IsPositive() {
		capacityRatio = fund.AvailableCapacity().Div(fund.TargetSize)
	}
	factors["capacity_score"] = capacityRatio.Mul(capacityWeight)

	if containsType(fund.EligibleInvestorTypes, req.InvestorType) {
		factors["investor_type_match"] = typeMatchBonus
	} else {
		factors["investor_type_match"] = decimal.Zero
	}

	feeScore := decimal.NewFromInt(1).Sub(fund.ManagementFeeRate.Add(fund.CarryRate))
	factors["fee_advantage"] = feeScore.Mul(feeWeight)

	related, err := s.allocationRepo.InvestorHoldsAny(req.InvestorID, fund.RelatedFundIDs())
	if err != nil {
		return nil, err
	}
	if related {
		factors["relationship_bonus"] = relationshipBonus
	} else {
		factors["relationship_bonus"] = decimal.Zero
	}

	return factors, nil
}

// sortByPreference orders eligible vehicles by the requester's explicit
// preference rank first, then score descending. Explicit preference always
// outranks score.
func sortByPreference(scores []model.AllocationScore, preferenceOrder []string) {
	rank := make(map[string]int, len(preferenceOrder))
	for i, fundID := range preferenceOrder {
		rank[fundID] = i
	}

	sort.SliceStable(scores, func(i, j int) bool {
		ri, iOK := rank[scores[i].FundID]
		rj, jOK := rank[scores[j].FundID]
		if !iOK {
			ri = len(preferenceOrder)
		}
		if !jOK {
			rj = len(preferenceOrder)
		}
		if ri != rj {
			return ri < rj
		}
		return scores[i].Score.GreaterThan(scores[j].Score)
	})
}

// allocateToFunds walks the sorted vehicles greedily, committing capital
// until the request is satisfied or vehicles are exhausted. All registry
// writes for one request land in a single transaction.
func (s *AllocationService) allocateToFunds(
	req model.AllocationRequest,
	sorted []model.AllocationScore,
	fundsByID map[string]model.FundVehicle,
) ([]model.FundAllocation, error) {
	allocations := []model.FundAllocation{}
	remaining := req.RequestedAmount

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin allocation transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	fundRepo := s.fundRepo.WithTx(tx)
	allocationRepo := s.allocationRepo.WithTx(tx)

	for _, score := range sorted {
		if !remaining.IsPositive() {
			break
		}

		fund := fundsByID[score.FundID]
		capacity := fund.AvailableCapacity()

		amount := decimal.Min(remaining, capacity)
		if !fund.MaxCommitment.IsZero() {
			amount = decimal.Min(amount, fund.MaxCommitment)
		}

		if fund.AllocationStrategy == model.StrategyProRata {
			amount, err = s.applyProRata(allocationRepo, fund, amount, capacity)
			if err != nil {
				return nil, err
			}
		}

		if !amount.IsPositive() {
			continue
		}

		erisaAmount := amount.Mul(req.ErisaPercentage).Div(oneHundred)

		fund.CommittedCapital = fund.CommittedCapital.Add(amount)
		fund.ErisaCapital = fund.ErisaCapital.Add(erisaAmount)
		if err := fundRepo.UpdateCapital(fund.ID, fund.CommittedCapital, fund.ErisaCapital); err != nil {
			return nil, err
		}
		fundsByID[fund.ID] = fund

		record := model.InvestorAllocation{
			ID:              uuid.NewString(),
			InvestorID:      req.InvestorID,
			FundID:          fund.ID,
			AllocatedAmount: amount,
			ErisaAmount:     erisaAmount,
			AllocationDate:  time.Now().UTC(),
			Status:          model.AllocationRecordPending,
		}
		if err := allocationRepo.CreateAllocation(record); err != nil {
			return nil, err
		}

		allocations = append(allocations, model.FundAllocation{
			FundID:          fund.ID,
			FundName:        fund.Name,
			StructureType:   fund.StructureType,
			AllocatedAmount: amount,
			Percentage:      amount.Mul(oneHundred).Div(req.RequestedAmount),
		})

		remaining = remaining.Sub(amount)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit allocation transaction: %w", err)
	}

	return allocations, nil
}

// applyProRata scales an allocation down when total outstanding demand for
// the vehicle exceeds its remaining capacity. Demand is the recorded
// pending demand plus this request's take.
func (s *AllocationService) applyProRata(
	allocationRepo *repository.AllocationRepository,
	fund model.FundVehicle,
	amount, capacity decimal.Decimal,
) (decimal.Decimal, error) {
	pending, err := allocationRepo.SumPendingDemand(fund.ID)
	if err != nil {
		return decimal.Zero, err
	}

	totalDemand := pending.Add(amount)
	if totalDemand.GreaterThan(capacity) && totalDemand.IsPositive() {
		return amount.Mul(capacity).Div(totalDemand), nil
	}

	return amount, nil
}

// buildResult classifies the outcome and, for non-full outcomes, compiles
// rejection reasons and up to three alternative-vehicle suggestions.
func (s *AllocationService) buildResult(
	req model.AllocationRequest,
	allocations []model.FundAllocation,
	scores []model.AllocationScore,
	fundsByID map[string]model.FundVehicle,
) model.AllocationResult {
	totalAllocated := decimal.Zero
	for _, a := range allocations {
		totalAllocated = totalAllocated.Add(a.AllocatedAmount)
	}

	status := model.AllocationFull
	if totalAllocated.IsZero() {
		status = model.AllocationRejected
	} else if totalAllocated.LessThan(req.RequestedAmount) {
		status = model.AllocationPartial
	}

	result := model.AllocationResult{
		RequestID:      uuid.NewString(),
		InvestorID:     req.InvestorID,
		TotalRequested: req.RequestedAmount,
		TotalAllocated: totalAllocated,
		Status:         status,
		Allocations:    allocations,
		Timestamp:      time.Now().UTC(),
	}

	if status == model.AllocationFull {
		return result
	}

	seen := make(map[string]bool)
	for _, score := range scores {
		for _, reason := range score.RejectionReasons {
			if !seen[reason] {
				seen[reason] = true
				result.RejectionReasons = append(result.RejectionReasons, reason)
			}
		}
	}

	result.AlternativeFunds = alternativeFunds(scores, fundsByID)

	return result
}

// alternativeFunds suggests vehicles whose only blocking reason was a
// minimum-commitment shortfall: the investor could access them by raising
// their commitment.
func alternativeFunds(scores []model.AllocationScore, fundsByID map[string]model.FundVehicle) []model.AlternativeFund {
	alternatives := []model.AlternativeFund{}

	for _, score := range scores {
		if score.Eligible || len(score.RejectionReasons) != 1 {
			continue
		}
		if !strings.Contains(score.RejectionReasons[0], "minimum commitment") {
			continue
		}

		fund := fundsByID[score.FundID]
		alternatives = append(alternatives, model.AlternativeFund{
			FundID:        fund.ID,
			FundName:      fund.Name,
			Suggestion:    fmt.Sprintf("Increase commitment to %s", fund.MinCommitment),
			MinCommitment: fund.MinCommitment,
		})

		if len(alternatives) == 3 {
			break
		}
	}

	return alternatives
}

func containsType(types []model.InvestorType, t model.InvestorType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
