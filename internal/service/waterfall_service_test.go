package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/ndewijer/Fund-Administration-Backend/internal/repository"
	"github.com/ndewijer/Fund-Administration-Backend/internal/testutil"
)

func waterfallInput(amount string, tiers []model.WaterfallTierDefinition, positions []model.InvestorPosition) model.WaterfallInput {
	return model.WaterfallInput{
		FundID:             testutil.MakeID(),
		CalculationDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		DistributionAmount: decimal.RequireFromString(amount),
		FundInceptionDate:  time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		Tiers:              tiers,
		Positions:          positions,
	}
}

func returnOfCapitalTier() model.WaterfallTierDefinition {
	return model.WaterfallTierDefinition{
		TierID: testutil.MakeID(),
		Type:   model.TierReturnOfCapital,
		Name:   "Return of Capital",
	}
}

// TestWaterfallService_Calculate_ReturnOfCapital tests the first tier.
//
// WHY: Return of capital is the foundation of every waterfall; the
// reference split (4M/6M unreturned against 5M available) must come out
// 40/60 and exhaust the distribution.
func TestWaterfallService_Calculate_ReturnOfCapital(t *testing.T) {
	t.Run("pro-rata by unreturned share", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		investorA := testutil.MakeID()
		investorB := testutil.MakeID()
		input := waterfallInput("5000000",
			[]model.WaterfallTierDefinition{returnOfCapitalTier()},
			[]model.InvestorPosition{
				testutil.NewPosition(investorA, "4000000", "40"),
				testutil.NewPosition(investorB, "6000000", "60"),
			})

		// Execute
		result := svc.Calculate(input)

		// Assert
		if !result.ValidationPassed {
			t.Fatalf("Expected validation to pass, got errors %v", result.ValidationErrors)
		}

		tier := result.TierDistributions[0]
		if !tier.DistributedAmount.Equal(decimal.RequireFromString("5000000")) {
			t.Fatalf("Expected full 5000000 distributed, got %s", tier.DistributedAmount)
		}
		if !tier.InvestorDistributions[investorA].Equal(decimal.RequireFromString("2000000")) {
			t.Errorf("Expected 2000000 to investor A, got %s", tier.InvestorDistributions[investorA])
		}
		if !tier.InvestorDistributions[investorB].Equal(decimal.RequireFromString("3000000")) {
			t.Errorf("Expected 3000000 to investor B, got %s", tier.InvestorDistributions[investorB])
		}
		if !tier.RemainingAmount.IsZero() {
			t.Errorf("Expected nothing left for later tiers, got %s", tier.RemainingAmount)
		}

		// Positions reflect the partial return
		for _, p := range result.UpdatedPositions {
			if p.InvestorID == investorA && !p.UnreturnedContributions.Equal(decimal.RequireFromString("2000000")) {
				t.Errorf("Expected 2000000 still unreturned for A, got %s", p.UnreturnedContributions)
			}
		}
	})

	t.Run("caps at total unreturned contributions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		input := waterfallInput("10000000",
			[]model.WaterfallTierDefinition{returnOfCapitalTier()},
			[]model.InvestorPosition{
				testutil.NewPosition(testutil.MakeID(), "3000000", "100"),
			})

		result := svc.Calculate(input)

		tier := result.TierDistributions[0]
		if !tier.DistributedAmount.Equal(decimal.RequireFromString("3000000")) {
			t.Errorf("Expected 3000000 distributed, got %s", tier.DistributedAmount)
		}
		if !tier.RemainingAmount.Equal(decimal.RequireFromString("7000000")) {
			t.Errorf("Expected 7000000 remaining, got %s", tier.RemainingAmount)
		}
	})
}

// TestWaterfallService_Calculate_PreferredReturn tests hurdle accrual.
//
// WHY: Preferred return is time-based; the target must accrue on total
// contributions over a 365.25-day year and pay down the shortfall only.
func TestWaterfallService_Calculate_PreferredReturn(t *testing.T) {
	t.Run("pays toward the accrued target", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		investorID := testutil.MakeID()
		position := testutil.NewPosition(investorID, "10000000", "100")
		// Capital already fully returned; only the hurdle remains.
		position.UnreturnedContributions = decimal.Zero

		tier := model.WaterfallTierDefinition{
			TierID:     testutil.MakeID(),
			Type:       model.TierPreferredReturn,
			Name:       "Preferred Return",
			HurdleRate: decimal.RequireFromString("0.08"),
		}

		input := waterfallInput("5000000",
			[]model.WaterfallTierDefinition{returnOfCapitalTier(), tier},
			[]model.InvestorPosition{position})

		result := svc.Calculate(input)

		// Two years and a day shy of 2022-01-01 to 2024-01-01 at a 365.25-day
		// year: 730/365.25 years on 10M at 8%.
		years := decimal.NewFromInt(730).Div(decimal.RequireFromString("365.25"))
		expected := decimal.RequireFromString("10000000").
			Mul(decimal.RequireFromString("0.08")).
			Mul(years)

		pref := result.TierDistributions[1]
		if !pref.DistributedAmount.Equal(expected) {
			t.Errorf("Expected preferred return %s, got %s", expected, pref.DistributedAmount)
		}

		if !result.UpdatedPositions[0].CumulativePreferredReturn.Equal(expected) {
			t.Errorf("Expected cumulative preferred %s, got %s", expected, result.UpdatedPositions[0].CumulativePreferredReturn)
		}
	})

	t.Run("already-paid preferred return reduces the shortfall", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		position := testutil.NewPosition(testutil.MakeID(), "10000000", "100")
		position.UnreturnedContributions = decimal.Zero
		years := decimal.NewFromInt(730).Div(decimal.RequireFromString("365.25"))
		target := decimal.RequireFromString("10000000").
			Mul(decimal.RequireFromString("0.08")).
			Mul(years)
		position.CumulativePreferredReturn = target // fully paid

		tier := model.WaterfallTierDefinition{
			TierID:     testutil.MakeID(),
			Type:       model.TierPreferredReturn,
			Name:       "Preferred Return",
			HurdleRate: decimal.RequireFromString("0.08"),
		}

		input := waterfallInput("5000000",
			[]model.WaterfallTierDefinition{tier},
			[]model.InvestorPosition{position})

		result := svc.Calculate(input)

		if !result.TierDistributions[0].DistributedAmount.IsZero() {
			t.Errorf("Expected nothing distributed, got %s", result.TierDistributions[0].DistributedAmount)
		}
	})
}

// TestWaterfallService_Calculate_CarryTiers tests catch-up and carry math.
//
// WHY: The GP's take is contractual; the catch-up target formula and the
// 80/20 promoted split must be exact or the GP is over- or under-paid.
func TestWaterfallService_Calculate_CarryTiers(t *testing.T) {
	t.Run("catch-up pays the GP toward the target", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		position := testutil.NewPosition(testutil.MakeID(), "10000000", "100")
		position.UnreturnedContributions = decimal.Zero
		position.PriorDistributions = decimal.RequireFromString("8000000") // LP distributions so far

		tier := model.WaterfallTierDefinition{
			TierID:      testutil.MakeID(),
			Type:        model.TierCatchUp,
			Name:        "GP Catch-Up",
			CatchUpRate: decimal.RequireFromString("0.2"),
		}

		input := waterfallInput("5000000",
			[]model.WaterfallTierDefinition{tier},
			[]model.InvestorPosition{position})

		result := svc.Calculate(input)

		// Target = 8,000,000 * 0.2 / 0.8 = 2,000,000, all to the GP.
		catchUp := result.TierDistributions[0]
		if !catchUp.GPAmount.Equal(decimal.RequireFromString("2000000")) {
			t.Errorf("Expected GP catch-up 2000000, got %s", catchUp.GPAmount)
		}
		if !catchUp.LPAmount.IsZero() {
			t.Errorf("Expected nothing to LPs in catch-up, got %s", catchUp.LPAmount)
		}
		if !catchUp.RemainingAmount.Equal(decimal.RequireFromString("3000000")) {
			t.Errorf("Expected 3000000 remaining, got %s", catchUp.RemainingAmount)
		}
	})

	t.Run("promoted carry splits the full remainder", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		investorA := testutil.MakeID()
		investorB := testutil.MakeID()
		positionA := testutil.NewPosition(investorA, "6000000", "60")
		positionB := testutil.NewPosition(investorB, "4000000", "40")
		positionA.UnreturnedContributions = decimal.Zero
		positionB.UnreturnedContributions = decimal.Zero

		tier := model.WaterfallTierDefinition{
			TierID:    testutil.MakeID(),
			Type:      model.TierPromotedCarry,
			Name:      "80/20 Carry",
			CarryRate: decimal.RequireFromString("0.2"),
		}

		input := waterfallInput("10000000",
			[]model.WaterfallTierDefinition{tier},
			[]model.InvestorPosition{positionA, positionB})

		result := svc.Calculate(input)

		carry := result.TierDistributions[0]
		if !carry.GPAmount.Equal(decimal.RequireFromString("2000000")) {
			t.Errorf("Expected GP carry 2000000, got %s", carry.GPAmount)
		}
		if !carry.LPAmount.Equal(decimal.RequireFromString("8000000")) {
			t.Errorf("Expected LP share 8000000, got %s", carry.LPAmount)
		}
		if !carry.InvestorDistributions[investorA].Equal(decimal.RequireFromString("4800000")) {
			t.Errorf("Expected 4800000 to investor A, got %s", carry.InvestorDistributions[investorA])
		}
		if !carry.RemainingAmount.IsZero() {
			t.Errorf("Expected the tier to consume everything, got %s remaining", carry.RemainingAmount)
		}
	})

	t.Run("remaining proceeds uses the explicit split", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		position := testutil.NewPosition(testutil.MakeID(), "1000000", "100")
		position.UnreturnedContributions = decimal.Zero

		tier := model.WaterfallTierDefinition{
			TierID:       testutil.MakeID(),
			Type:         model.TierRemainingProceeds,
			Name:         "Residual",
			LPPercentage: decimal.NewFromInt(75),
			GPPercentage: decimal.NewFromInt(25),
		}

		input := waterfallInput("4000000",
			[]model.WaterfallTierDefinition{tier},
			[]model.InvestorPosition{position})

		result := svc.Calculate(input)

		residual := result.TierDistributions[0]
		if !residual.LPAmount.Equal(decimal.RequireFromString("3000000")) {
			t.Errorf("Expected LP share 3000000, got %s", residual.LPAmount)
		}
		if !residual.GPAmount.Equal(decimal.RequireFromString("1000000")) {
			t.Errorf("Expected GP share 1000000, got %s", residual.GPAmount)
		}
	})
}

// TestWaterfallService_Calculate_Properties tests cross-tier invariants.
//
// WHY: Whatever the tier mix, no tier may distribute more than it had
// available, LP+GP must equal the distributed amount, and the waterfall
// can never pay out more than came in.
func TestWaterfallService_Calculate_Properties(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestWaterfallService(t, db)

	tiers := []model.WaterfallTierDefinition{
		returnOfCapitalTier(),
		{TierID: testutil.MakeID(), Type: model.TierPreferredReturn, Name: "Pref", HurdleRate: decimal.RequireFromString("0.08")},
		{TierID: testutil.MakeID(), Type: model.TierCatchUp, Name: "Catch-Up", CatchUpRate: decimal.RequireFromString("0.2")},
		{TierID: testutil.MakeID(), Type: model.TierPromotedCarry, Name: "Carry", CarryRate: decimal.RequireFromString("0.2")},
	}
	positions := []model.InvestorPosition{
		testutil.NewPosition(testutil.MakeID(), "4000000", "40"),
		testutil.NewPosition(testutil.MakeID(), "6000000", "60"),
	}

	result := svc.Calculate(waterfallInput("25000000", tiers, positions))

	if !result.ValidationPassed {
		t.Fatalf("Expected validation to pass, got %v", result.ValidationErrors)
	}

	totalDistributed := decimal.Zero
	for _, tier := range result.TierDistributions {
		if tier.DistributedAmount.GreaterThan(tier.AvailableAmount) {
			t.Errorf("Tier %s distributed %s above available %s", tier.TierName, tier.DistributedAmount, tier.AvailableAmount)
		}
		if !tier.LPAmount.Add(tier.GPAmount).Equal(tier.DistributedAmount) {
			t.Errorf("Tier %s LP+GP %s does not match distributed %s",
				tier.TierName, tier.LPAmount.Add(tier.GPAmount), tier.DistributedAmount)
		}
		totalDistributed = totalDistributed.Add(tier.DistributedAmount)
	}

	if totalDistributed.GreaterThan(result.TotalDistribution) {
		t.Errorf("Distributed %s exceeds input %s", totalDistributed, result.TotalDistribution)
	}

	if !result.LPTotal.Add(result.GPTotal).Equal(totalDistributed) {
		t.Errorf("LP %s + GP %s does not reconcile with %s", result.LPTotal, result.GPTotal, totalDistributed)
	}
}

// TestWaterfallService_Calculate_Validation tests the up-front checks.
//
// WHY: Structural problems must fail the run before any position is
// touched; drift and a missing return-of-capital tier only warn.
func TestWaterfallService_Calculate_Validation(t *testing.T) {
	t.Run("rejects non-positive distribution", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		input := waterfallInput("0",
			[]model.WaterfallTierDefinition{returnOfCapitalTier()},
			[]model.InvestorPosition{testutil.NewPosition(testutil.MakeID(), "1000000", "100")})

		result := svc.Calculate(input)

		if result.ValidationPassed {
			t.Error("Expected validation failure for zero distribution")
		}
		if len(result.TierDistributions) != 0 {
			t.Errorf("Expected no tiers processed, got %d", len(result.TierDistributions))
		}
	})

	t.Run("rejects empty tiers and positions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		result := svc.Calculate(waterfallInput("1000000", nil, nil))

		if result.ValidationPassed {
			t.Error("Expected validation failure")
		}
		if len(result.ValidationErrors) < 2 {
			t.Errorf("Expected errors for both tiers and positions, got %v", result.ValidationErrors)
		}
	})

	t.Run("rejects a remaining proceeds split over 100 percent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		tier := model.WaterfallTierDefinition{
			TierID:       testutil.MakeID(),
			Type:         model.TierRemainingProceeds,
			Name:         "Residual",
			LPPercentage: decimal.NewFromInt(90),
			GPPercentage: decimal.NewFromInt(20),
		}
		input := waterfallInput("1000000",
			[]model.WaterfallTierDefinition{returnOfCapitalTier(), tier},
			[]model.InvestorPosition{testutil.NewPosition(testutil.MakeID(), "1000000", "100")})

		result := svc.Calculate(input)

		if result.ValidationPassed {
			t.Error("Expected validation failure for a 110 percent split")
		}
		found := false
		for _, e := range result.ValidationErrors {
			if strings.Contains(e, "exceeds 100 percent") {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected a split error, got %v", result.ValidationErrors)
		}
	})

	t.Run("ownership drift is a warning only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		input := waterfallInput("1000000",
			[]model.WaterfallTierDefinition{returnOfCapitalTier()},
			[]model.InvestorPosition{testutil.NewPosition(testutil.MakeID(), "1000000", "90")})

		result := svc.Calculate(input)

		if !result.ValidationPassed {
			t.Fatalf("Expected drift to pass validation, got %v", result.ValidationErrors)
		}
		if len(result.ValidationWarnings) == 0 {
			t.Error("Expected an ownership drift warning")
		}
	})

	t.Run("missing return of capital tier warns", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestWaterfallService(t, db)

		tier := model.WaterfallTierDefinition{
			TierID:    testutil.MakeID(),
			Type:      model.TierPromotedCarry,
			Name:      "Carry",
			CarryRate: decimal.RequireFromString("0.2"),
		}
		input := waterfallInput("1000000",
			[]model.WaterfallTierDefinition{tier},
			[]model.InvestorPosition{testutil.NewPosition(testutil.MakeID(), "1000000", "100")})

		result := svc.Calculate(input)

		if !result.ValidationPassed {
			t.Fatalf("Expected validation to pass, got %v", result.ValidationErrors)
		}
		if len(result.ValidationWarnings) == 0 {
			t.Error("Expected a missing return-of-capital warning")
		}
	})
}

// TestWaterfallService_RunDistribution tests position persistence.
//
// WHY: Positions are the only state carried between waterfalls; a second
// run must see the first run's updated unreturned contributions.
func TestWaterfallService_RunDistribution(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestWaterfallService(t, db)

	fund := testutil.NewFund().
		WithInceptionDate(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)).
		Build(t, db)

	investorID := testutil.MakeID()
	positionRepo := repository.NewPositionRepository(db)
	if err := positionRepo.SavePositions(fund.ID, []model.InvestorPosition{
		testutil.NewPosition(investorID, "10000000", "100"),
	}); err != nil {
		t.Fatalf("SavePositions() returned unexpected error: %v", err)
	}

	calculationDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tiers := []model.WaterfallTierDefinition{returnOfCapitalTier()}

	// First distribution returns 6M of the 10M contributed.
	first, err := svc.RunDistribution(fund.ID, calculationDate, decimal.RequireFromString("6000000"), tiers)
	if err != nil {
		t.Fatalf("RunDistribution() returned unexpected error: %v", err)
	}
	if !first.TierDistributions[0].DistributedAmount.Equal(decimal.RequireFromString("6000000")) {
		t.Fatalf("Expected 6000000 distributed, got %s", first.TierDistributions[0].DistributedAmount)
	}

	// Second run sees only 4M still unreturned.
	second, err := svc.RunDistribution(fund.ID, calculationDate, decimal.RequireFromString("6000000"), tiers)
	if err != nil {
		t.Fatalf("RunDistribution() returned unexpected error: %v", err)
	}
	tier := second.TierDistributions[0]
	if !tier.DistributedAmount.Equal(decimal.RequireFromString("4000000")) {
		t.Errorf("Expected 4000000 distributed on the second run, got %s", tier.DistributedAmount)
	}
	if !tier.RemainingAmount.Equal(decimal.RequireFromString("2000000")) {
		t.Errorf("Expected 2000000 left over, got %s", tier.RemainingAmount)
	}

	positions, err := positionRepo.GetPositions(fund.ID)
	if err != nil {
		t.Fatalf("GetPositions() returned unexpected error: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("Expected 1 position, got %d", len(positions))
	}
	if !positions[0].UnreturnedContributions.IsZero() {
		t.Errorf("Expected contributions fully returned, got %s unreturned", positions[0].UnreturnedContributions)
	}
	if !positions[0].PriorDistributions.Equal(decimal.RequireFromString("10000000")) {
		t.Errorf("Expected prior distributions 10000000, got %s", positions[0].PriorDistributions)
	}
}
