package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/ndewijer/Fund-Administration-Backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	daysPerYearExact = decimal.NewFromFloat(365.25)
	ownershipTarget  = decimal.NewFromInt(100)
)

// WaterfallService is the waterfall calculation engine. Calculate is a
// pure function over the supplied input; RunDistribution wraps it with
// position persistence and per-fund locking. Positions are the only state
// carried between calculations, always through the explicit input.
type WaterfallService struct {
	fundRepo     *repository.FundRepository
	positionRepo *repository.PositionRepository
	locker       *FundLocker
	logger       zerolog.Logger
}

// NewWaterfallService creates a new WaterfallService with the provided dependencies.
func NewWaterfallService(
	fundRepo *repository.FundRepository,
	positionRepo *repository.PositionRepository,
	locker *FundLocker,
	logger zerolog.Logger,
) *WaterfallService {
	return &WaterfallService{
		fundRepo:     fundRepo,
		positionRepo: positionRepo,
		locker:       locker,
		logger:       logger,
	}
}

// RunDistribution loads the fund's investor positions, runs the waterfall
// and persists the updated positions. Positions are only saved when the
// calculation passed validation.
func (s *WaterfallService) RunDistribution(
	fundID string,
	calculationDate time.Time,
	amount decimal.Decimal,
	tiers []model.WaterfallTierDefinition,
) (model.WaterfallResult, error) {
	fund, err := s.fundRepo.GetFund(fundID)
	if err != nil {
		return model.WaterfallResult{}, err
	}

	unlock := s.locker.Lock(fundID)
	defer unlock()

	positions, err := s.positionRepo.GetPositions(fundID)
	if err != nil {
		return model.WaterfallResult{}, err
	}

	result := s.Calculate(model.WaterfallInput{
		FundID:             fundID,
		CalculationDate:    calculationDate,
		DistributionAmount: amount,
		FundInceptionDate:  fund.InceptionDate,
		Tiers:              tiers,
		Positions:          positions,
	})

	if result.ValidationPassed {
		if err := s.positionRepo.SavePositions(fundID, result.UpdatedPositions); err != nil {
			return model.WaterfallResult{}, err
		}
	}

	s.logger.Info().
		Str("fund_id", fundID).
		Str("distribution", amount.String()).
		Str("lp_total", result.LPTotal.String()).
		Str("gp_total", result.GPTotal.String()).
		Bool("validation_passed", result.ValidationPassed).
		Msg("waterfall distribution calculated")

	return result, nil
}

// Calculate runs the tiers strictly in order, each one consuming from the
// amount left by its predecessors. The input positions are copied; the
// working copy is mutated tier by tier and returned as UpdatedPositions.
func (s *WaterfallService) Calculate(input model.WaterfallInput) model.WaterfallResult {
	result := model.WaterfallResult{
		CalculationID:     uuid.NewString(),
		FundID:            input.FundID,
		CalculationDate:   input.CalculationDate,
		TotalDistribution: input.DistributionAmount,
		InvestorSummaries: make(map[string]model.InvestorWaterfallSummary),
		CalculatedAt:      time.Now().UTC(),
	}

	validateWaterfallInput(&result, input)
	if len(result.ValidationErrors) > 0 {
		return result
	}
	result.ValidationPassed = true

	positions := make([]model.InvestorPosition, len(input.Positions))
	copy(positions, input.Positions)

	remaining := input.DistributionAmount

	for _, tier := range input.Tiers {
		if !remaining.IsPositive() {
			break
		}

		dist := model.TierDistribution{
			TierID:                tier.TierID,
			TierName:              tier.Name,
			Type:                  tier.Type,
			AvailableAmount:       remaining,
			InvestorDistributions: make(map[string]decimal.Decimal),
		}

		switch tier.Type {
		case model.TierReturnOfCapital:
			applyReturnOfCapital(&dist, positions)
		case model.TierPreferredReturn:
			applyPreferredReturn(&dist, positions, tier, input.FundInceptionDate, input.CalculationDate)
		case model.TierCatchUp:
			applyCatchUp(&dist, positions, tier)
		case model.TierPromotedCarry:
			applyPromotedCarry(&dist, positions, tier)
		case model.TierRemainingProceeds:
			applyRemainingProceeds(&dist, positions, tier)
		default:
			dist.CalculationNotes = append(dist.CalculationNotes,
				fmt.Sprintf("unknown tier type %s skipped", tier.Type))
		}

		dist.RemainingAmount = dist.AvailableAmount.Sub(dist.DistributedAmount)
		remaining = dist.RemainingAmount

		result.LPTotal = result.LPTotal.Add(dist.LPAmount)
		result.GPTotal = result.GPTotal.Add(dist.GPAmount)
		accumulateSummaries(result.InvestorSummaries, dist)

		result.TierDistributions = append(result.TierDistributions, dist)
	}

	result.UpdatedPositions = positions

	return result
}

// validateWaterfallInput applies the up-front checks. Structural problems
// are errors that abort the run; ownership drift and a missing
// return-of-capital tier are warnings only.
func validateWaterfallInput(result *model.WaterfallResult, input model.WaterfallInput) {
	if !input.DistributionAmount.IsPositive() {
		result.ValidationErrors = append(result.ValidationErrors, "distribution amount must be positive")
	}
	if len(input.Tiers) == 0 {
		result.ValidationErrors = append(result.ValidationErrors, "at least one tier must be defined")
	}
	if len(input.Positions) == 0 {
		result.ValidationErrors = append(result.ValidationErrors, "at least one investor position is required")
	}

	totalOwnership := decimal.Zero
	for _, p := range input.Positions {
		totalOwnership = totalOwnership.Add(p.OwnershipPercentage)
	}
	if len(input.Positions) > 0 && totalOwnership.Sub(ownershipTarget).Abs().GreaterThan(roundingEpsilon) {
		result.ValidationWarnings = append(result.ValidationWarnings,
			fmt.Sprintf("ownership percentages sum to %s, expected 100", totalOwnership))
	}

	hasReturnOfCapital := false
	for _, t := range input.Tiers {
		if t.Type == model.TierReturnOfCapital {
			hasReturnOfCapital = true
		}
		// A remaining-proceeds split over 100 percent would distribute
		// more than the tier has available.
		if t.Type == model.TierRemainingProceeds && t.LPPercentage.Add(t.GPPercentage).GreaterThan(oneHundred) {
			result.ValidationErrors = append(result.ValidationErrors,
				fmt.Sprintf("tier %s: remaining proceeds split %s/%s exceeds 100 percent", t.Name, t.LPPercentage, t.GPPercentage))
		}
	}
	if !hasReturnOfCapital {
		result.ValidationWarnings = append(result.ValidationWarnings, "no return of capital tier defined")
	}
}

// applyReturnOfCapital pays back unreturned contributions pro-rata by
// each investor's unreturned share.
func applyReturnOfCapital(dist *model.TierDistribution, positions []model.InvestorPosition) {
	totalUnreturned := decimal.Zero
	for _, p := range positions {
		totalUnreturned = totalUnreturned.Add(p.UnreturnedContributions)
	}

	if !totalUnreturned.IsPositive() {
		dist.CalculationNotes = append(dist.CalculationNotes, "all contributions already returned")
		return
	}

	distributed := decimal.Min(dist.AvailableAmount, totalUnreturned)

	for i := range positions {
		p := &positions[i]
		if !p.UnreturnedContributions.IsPositive() {
			continue
		}
		share := distributed.Mul(p.UnreturnedContributions).Div(totalUnreturned)
		p.UnreturnedContributions = p.UnreturnedContributions.Sub(share)
		p.PriorDistributions = p.PriorDistributions.Add(share)
		dist.InvestorDistributions[p.InvestorID] = share
	}

	dist.DistributedAmount = distributed
	dist.LPAmount = distributed
	dist.CalculationNotes = append(dist.CalculationNotes,
		fmt.Sprintf("returned %s of %s unreturned contributions", distributed, totalUnreturned))
}

// applyPreferredReturn pays each investor toward their cumulative
// preferred-return target, pro-rata by shortfall share. Years since
// inception use a 365.25-day year.
func applyPreferredReturn(
	dist *model.TierDistribution,
	positions []model.InvestorPosition,
	tier model.WaterfallTierDefinition,
	inception, calculationDate time.Time,
) {
	days := decimal.NewFromFloat(calculationDate.Sub(inception).Hours() / 24)
	years := days.Div(daysPerYearExact)

	shortfalls := make([]decimal.Decimal, len(positions))
	totalShortfall := decimal.Zero
	for i, p := range positions {
		target := p.TotalContributions.Mul(tier.HurdleRate).Mul(years)
		shortfall := decimal.Max(target.Sub(p.CumulativePreferredReturn), decimal.Zero)
		shortfalls[i] = shortfall
		totalShortfall = totalShortfall.Add(shortfall)
	}

	if !totalShortfall.IsPositive() {
		dist.CalculationNotes = append(dist.CalculationNotes, "preferred return fully paid")
		return
	}

	distributed := decimal.Min(dist.AvailableAmount, totalShortfall)

	for i := range positions {
		if !shortfalls[i].IsPositive() {
			continue
		}
		p := &positions[i]
		share := distributed.Mul(shortfalls[i]).Div(totalShortfall)
		p.CumulativePreferredReturn = p.CumulativePreferredReturn.Add(share)
		p.PreferredReturnShortfall = shortfalls[i].Sub(share)
		p.PriorDistributions = p.PriorDistributions.Add(share)
		dist.InvestorDistributions[p.InvestorID] = share
	}

	dist.DistributedAmount = distributed
	dist.LPAmount = distributed
	dist.CalculationNotes = append(dist.CalculationNotes,
		fmt.Sprintf("paid %s against %s preferred return shortfall", distributed, totalShortfall))
}

// applyCatchUp accelerates the GP's carry until it matches the target
// share of LP distributions so far. The whole tier goes to the GP.
func applyCatchUp(dist *model.TierDistribution, positions []model.InvestorPosition, tier model.WaterfallTierDefinition) {
	one := decimal.NewFromInt(1)
	if tier.CatchUpRate.GreaterThanOrEqual(one) {
		dist.CalculationNotes = append(dist.CalculationNotes, "catch-up rate must be below 1, tier skipped")
		return
	}

	totalLPDistributions := decimal.Zero
	gpReceived := decimal.Zero
	for _, p := range positions {
		totalLPDistributions = totalLPDistributions.Add(p.PriorDistributions)
		gpReceived = gpReceived.Add(p.PriorCarryDistributions)
	}

	target := totalLPDistributions.Mul(tier.CatchUpRate).Div(one.Sub(tier.CatchUpRate))
	needed := decimal.Max(target.Sub(gpReceived), decimal.Zero)

	if !needed.IsPositive() {
		dist.CalculationNotes = append(dist.CalculationNotes, "general partner already caught up")
		return
	}

	distributed := decimal.Min(dist.AvailableAmount, needed)
	recordCarry(positions, distributed)

	dist.DistributedAmount = distributed
	dist.GPAmount = distributed
	dist.CalculationNotes = append(dist.CalculationNotes,
		fmt.Sprintf("general partner catch-up of %s toward target %s", distributed, target))
}

// applyPromotedCarry splits everything still available between LPs and
// the GP at the carry rate. The tier always consumes the full amount.
func applyPromotedCarry(dist *model.TierDistribution, positions []model.InvestorPosition, tier model.WaterfallTierDefinition) {
	gpAmount := dist.AvailableAmount.Mul(tier.CarryRate)
	lpAmount := dist.AvailableAmount.Sub(gpAmount)

	distributeByOwnership(dist, positions, lpAmount)
	recordCarry(positions, gpAmount)

	dist.DistributedAmount = dist.AvailableAmount
	dist.LPAmount = lpAmount
	dist.GPAmount = gpAmount
	dist.CalculationNotes = append(dist.CalculationNotes,
		fmt.Sprintf("split at %s carry: %s to limited partners, %s to general partner",
			tier.CarryRate, lpAmount, gpAmount))
}

// applyRemainingProceeds splits the available amount by the tier's
// explicit LP/GP percentages.
func applyRemainingProceeds(dist *model.TierDistribution, positions []model.InvestorPosition, tier model.WaterfallTierDefinition) {
	lpAmount := dist.AvailableAmount.Mul(tier.LPPercentage).Div(oneHundred)
	gpAmount := dist.AvailableAmount.Mul(tier.GPPercentage).Div(oneHundred)

	distributeByOwnership(dist, positions, lpAmount)
	recordCarry(positions, gpAmount)

	dist.DistributedAmount = lpAmount.Add(gpAmount)
	dist.LPAmount = lpAmount
	dist.GPAmount = gpAmount
	dist.CalculationNotes = append(dist.CalculationNotes,
		fmt.Sprintf("remaining proceeds split %s/%s", tier.LPPercentage, tier.GPPercentage))
}

// distributeByOwnership spreads an LP amount across positions pro-rata by
// ownership percentage, updating prior distributions.
func distributeByOwnership(dist *model.TierDistribution, positions []model.InvestorPosition, lpAmount decimal.Decimal) {
	if !lpAmount.IsPositive() {
		return
	}

	totalOwnership := decimal.Zero
	for _, p := range positions {
		totalOwnership = totalOwnership.Add(p.OwnershipPercentage)
	}
	if !totalOwnership.IsPositive() {
		return
	}

	for i := range positions {
		p := &positions[i]
		if !p.OwnershipPercentage.IsPositive() {
			continue
		}
		share := lpAmount.Mul(p.OwnershipPercentage).Div(totalOwnership)
		p.PriorDistributions = p.PriorDistributions.Add(share)
		dist.InvestorDistributions[p.InvestorID] = dist.InvestorDistributions[p.InvestorID].Add(share)
	}
}

// recordCarry attributes GP carry back to positions pro-rata by
// ownership, so later catch-up calculations see what the GP has received.
func recordCarry(positions []model.InvestorPosition, gpAmount decimal.Decimal) {
	if !gpAmount.IsPositive() {
		return
	}

	totalOwnership := decimal.Zero
	for _, p := range positions {
		totalOwnership = totalOwnership.Add(p.OwnershipPercentage)
	}
	if !totalOwnership.IsPositive() {
		return
	}

	for i := range positions {
		p := &positions[i]
		if !p.OwnershipPercentage.IsPositive() {
			continue
		}
		p.PriorCarryDistributions = p.PriorCarryDistributions.Add(
			gpAmount.Mul(p.OwnershipPercentage).Div(totalOwnership))
	}
}

// accumulateSummaries folds a tier's per-investor amounts into the
// running per-investor summaries, bucketed by tier type.
func accumulateSummaries(summaries map[string]model.InvestorWaterfallSummary, dist model.TierDistribution) {
	for investorID, amount := range dist.InvestorDistributions {
		summary := summaries[investorID]
		summary.TotalDistribution = summary.TotalDistribution.Add(amount)

		switch dist.Type {
		case model.TierReturnOfCapital:
			summary.ReturnOfCapital = summary.ReturnOfCapital.Add(amount)
		case model.TierPreferredReturn:
			summary.PreferredReturn = summary.PreferredReturn.Add(amount)
		case model.TierPromotedCarry:
			summary.CarryDistributions = summary.CarryDistributions.Add(amount)
		default:
			summary.OtherDistributions = summary.OtherDistributions.Add(amount)
		}

		summaries[investorID] = summary
	}
}
