package service_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Fund-Administration-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/ndewijer/Fund-Administration-Backend/internal/repository"
	"github.com/ndewijer/Fund-Administration-Backend/internal/testutil"
)

func allocationRequest(investorID string, amount string) model.AllocationRequest {
	return model.AllocationRequest{
		InvestorID:      investorID,
		RequestedAmount: decimal.RequireFromString(amount),
		InvestorType:    model.InvestorInstitutional,
		Jurisdiction:    "US",
	}
}

// TestAllocationService_Allocate_Eligibility tests the screening rules.
//
// WHY: Regulatory screens (jurisdiction, investor type, ERISA) are the
// reason this engine exists; a miss here is a compliance breach, not a
// rounding error. Rejections must be structured results, never errors.
func TestAllocationService_Allocate_Eligibility(t *testing.T) {
	t.Run("below minimum commitment is rejected with an alternative", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		fund := testutil.NewFund().WithMinCommitment("250000").Build(t, db)
		investor := testutil.NewInvestor().Build(t, db)

		// Execute
		result, err := svc.Allocate(allocationRequest(investor.ID, "100000"))

		// Assert
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}
		if result.Status != model.AllocationRejected {
			t.Fatalf("Expected rejected status, got %s", result.Status)
		}

		foundReason := false
		for _, reason := range result.RejectionReasons {
			if strings.Contains(reason, "minimum commitment") {
				foundReason = true
			}
		}
		if !foundReason {
			t.Errorf("Expected a minimum commitment reason, got %v", result.RejectionReasons)
		}

		if len(result.AlternativeFunds) != 1 {
			t.Fatalf("Expected 1 alternative, got %d", len(result.AlternativeFunds))
		}
		alt := result.AlternativeFunds[0]
		if alt.FundID != fund.ID {
			t.Errorf("Expected alternative to name the fund, got %s", alt.FundID)
		}
		if !alt.MinCommitment.Equal(fund.MinCommitment) {
			t.Errorf("Expected alternative minimum %s, got %s", fund.MinCommitment, alt.MinCommitment)
		}
	})

	t.Run("restricted jurisdiction is rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		testutil.NewFund().WithRestrictedJurisdictions("KP").Build(t, db)
		investor := testutil.NewInvestor().WithJurisdiction("KP").Build(t, db)

		req := allocationRequest(investor.ID, "5000000")
		req.Jurisdiction = "KP"

		result, err := svc.Allocate(req)
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}

		if result.Status != model.AllocationRejected {
			t.Fatalf("Expected rejected status, got %s", result.Status)
		}
		if len(result.RejectionReasons) == 0 || !strings.Contains(result.RejectionReasons[0], "restricted") {
			t.Errorf("Expected a jurisdiction reason, got %v", result.RejectionReasons)
		}
	})

	t.Run("ineligible investor type is rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		testutil.NewFund().WithEligibleTypes(model.InvestorPensionFund).Build(t, db)
		investor := testutil.NewInvestor().Build(t, db)

		result, err := svc.Allocate(allocationRequest(investor.ID, "5000000"))
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}

		if result.Status != model.AllocationRejected {
			t.Errorf("Expected rejected status, got %s", result.Status)
		}
	})

	t.Run("investor count cap blocks new investors", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		testutil.NewFund().WithMaxInvestors(1).Build(t, db)
		first := testutil.NewInvestor().Build(t, db)
		second := testutil.NewInvestor().Build(t, db)

		if _, err := svc.Allocate(allocationRequest(first.ID, "5000000")); err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}

		result, err := svc.Allocate(allocationRequest(second.ID, "5000000"))
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}
		if result.Status != model.AllocationRejected {
			t.Fatalf("Expected rejected status, got %s", result.Status)
		}
		if !strings.Contains(strings.Join(result.RejectionReasons, " "), "investor limit") {
			t.Errorf("Expected an investor limit reason, got %v", result.RejectionReasons)
		}
	})

	t.Run("unknown investor is a hard error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		testutil.NewFund().Build(t, db)

		_, err := svc.Allocate(allocationRequest(testutil.MakeID(), "5000000"))
		if !errors.Is(err, apperrors.ErrInvestorNotFound) {
			t.Errorf("Expected ErrInvestorNotFound, got %v", err)
		}
	})
}

// TestAllocationService_Allocate_Erisa tests the 25% benefit-plan cap.
//
// WHY: A main vehicle crossing 25% benefit-plan capital becomes subject
// to ERISA plan-asset rules. The check must use the vehicle's cumulative
// tracked state, not a fresh zero each request.
func TestAllocationService_Allocate_Erisa(t *testing.T) {
	t.Run("prospective share above 25 percent is rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		testutil.NewFund().WithEligibleTypes(model.InvestorErisaPlan).Build(t, db)
		investor := testutil.NewInvestor().WithType(model.InvestorErisaPlan).Build(t, db)

		req := allocationRequest(investor.ID, "10000000")
		req.InvestorType = model.InvestorErisaPlan
		req.ErisaPercentage = decimal.NewFromInt(100)

		result, err := svc.Allocate(req)
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}

		if result.Status != model.AllocationRejected {
			t.Fatalf("Expected rejected status, got %s", result.Status)
		}
		if !strings.Contains(strings.Join(result.RejectionReasons, " "), "ERISA") {
			t.Errorf("Expected an ERISA reason, got %v", result.RejectionReasons)
		}
	})

	t.Run("erisa capital accumulates across allocations", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		fund := testutil.NewFund().
			WithTargetSize("200000000").
			WithCommittedCapital("80000000").
			WithEligibleTypes(model.InvestorErisaPlan, model.InvestorInstitutional).
			Build(t, db)
		investor := testutil.NewInvestor().WithType(model.InvestorErisaPlan).Build(t, db)

		// (0 + 20M) / (80M + 20M) = 20%, under the cap.
		first := allocationRequest(investor.ID, "20000000")
		first.InvestorType = model.InvestorErisaPlan
		first.ErisaPercentage = decimal.NewFromInt(100)

		result, err := svc.Allocate(first)
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}
		if result.Status != model.AllocationFull {
			t.Fatalf("Expected full allocation, got %s (%v)", result.Status, result.RejectionReasons)
		}

		updated, err := repository.NewFundRepository(db).GetFund(fund.ID)
		if err != nil {
			t.Fatalf("GetFund() returned unexpected error: %v", err)
		}
		if !updated.ErisaCapital.Equal(decimal.RequireFromString("20000000")) {
			t.Fatalf("Expected tracked erisa capital 20000000, got %s", updated.ErisaCapital)
		}

		// (20M + 10M) / (100M + 10M) = 27.3%, over the cap.
		second := allocationRequest(investor.ID, "10000000")
		second.InvestorType = model.InvestorErisaPlan
		second.ErisaPercentage = decimal.NewFromInt(100)

		result, err = svc.Allocate(second)
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}
		if result.Status != model.AllocationRejected {
			t.Errorf("Expected rejected status once cumulative share crosses 25%%, got %s", result.Status)
		}
	})
}

// TestAllocationService_Allocate_Greedy tests capital placement.
//
// WHY: The engine walks ranked vehicles greedily and its side effect on
// committed capital is permanent; sums must reconcile exactly with the
// accepted amounts.
func TestAllocationService_Allocate_Greedy(t *testing.T) {
	t.Run("full allocation sums to the requested amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		fund := testutil.NewFund().Build(t, db)
		investor := testutil.NewInvestor().Build(t, db)

		result, err := svc.Allocate(allocationRequest(investor.ID, "5000000"))
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}

		if result.Status != model.AllocationFull {
			t.Fatalf("Expected full allocation, got %s (%v)", result.Status, result.RejectionReasons)
		}

		total := decimal.Zero
		for _, a := range result.Allocations {
			total = total.Add(a.AllocatedAmount)
		}
		if !total.Equal(result.TotalRequested) {
			t.Errorf("Expected allocations to sum to %s, got %s", result.TotalRequested, total)
		}

		updated, err := repository.NewFundRepository(db).GetFund(fund.ID)
		if err != nil {
			t.Fatalf("GetFund() returned unexpected error: %v", err)
		}
		if !updated.CommittedCapital.Equal(result.TotalAllocated) {
			t.Errorf("Expected committed capital %s, got %s", result.TotalAllocated, updated.CommittedCapital)
		}
	})

	t.Run("spills across vehicles and reports partial", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		main := testutil.NewFund().
			WithName("Main Fund").
			WithTargetSize("50000000").
			Build(t, db)
		parallel := testutil.NewFund().
			WithName("Parallel Fund").
			WithStructureType(model.StructureParallel).
			WithTargetSize("50000000").
			WithCommittedCapital("45000000").
			Build(t, db)
		investor := testutil.NewInvestor().Build(t, db)

		result, err := svc.Allocate(allocationRequest(investor.ID, "60000000"))
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}

		if result.Status != model.AllocationPartial {
			t.Fatalf("Expected partial allocation, got %s", result.Status)
		}
		if len(result.Allocations) != 2 {
			t.Fatalf("Expected 2 allocations, got %d", len(result.Allocations))
		}

		// Main ranks first on structure and capacity; parallel absorbs the rest.
		if result.Allocations[0].FundID != main.ID {
			t.Errorf("Expected main vehicle first, got %s", result.Allocations[0].FundName)
		}
		if !result.Allocations[0].AllocatedAmount.Equal(decimal.RequireFromString("50000000")) {
			t.Errorf("Expected 50000000 to main, got %s", result.Allocations[0].AllocatedAmount)
		}
		if result.Allocations[1].FundID != parallel.ID {
			t.Errorf("Expected parallel vehicle second, got %s", result.Allocations[1].FundName)
		}
		if !result.TotalAllocated.Equal(decimal.RequireFromString("55000000")) {
			t.Errorf("Expected total allocated 55000000, got %s", result.TotalAllocated)
		}
	})

	t.Run("explicit preference outranks score", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		testutil.NewFund().WithName("Main Fund").Build(t, db)
		feeder := testutil.NewFund().
			WithName("Feeder Fund").
			WithStructureType(model.StructureFeeder).
			Build(t, db)
		investor := testutil.NewInvestor().Build(t, db)

		req := allocationRequest(investor.ID, "5000000")
		req.PreferenceOrder = []string{feeder.ID}

		result, err := svc.Allocate(req)
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}

		if result.Status != model.AllocationFull {
			t.Fatalf("Expected full allocation, got %s", result.Status)
		}
		if result.Allocations[0].FundID != feeder.ID {
			t.Errorf("Expected preferred feeder first, got %s", result.Allocations[0].FundName)
		}
	})

	t.Run("pro-rata strategy scales under outstanding demand", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		fund := testutil.NewFund().
			WithTargetSize("1000000").
			WithMinCommitment("100000").
			Build(t, db)
		first := testutil.NewInvestor().Build(t, db)
		second := testutil.NewInvestor().Build(t, db)

		// First request records 600000 of pending demand.
		if _, err := svc.Allocate(allocationRequest(first.ID, "600000")); err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}

		// Capacity is down to 400000 while 600000 is still pending, so the
		// second take of 400000 scales by 400000/1000000.
		result, err := svc.Allocate(allocationRequest(second.ID, "600000"))
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}

		if result.Status != model.AllocationPartial {
			t.Fatalf("Expected partial allocation, got %s", result.Status)
		}
		if !result.TotalAllocated.Equal(decimal.RequireFromString("160000")) {
			t.Errorf("Expected scaled allocation 160000, got %s", result.TotalAllocated)
		}

		updated, err := repository.NewFundRepository(db).GetFund(fund.ID)
		if err != nil {
			t.Fatalf("GetFund() returned unexpected error: %v", err)
		}
		if !updated.CommittedCapital.Equal(decimal.RequireFromString("760000")) {
			t.Errorf("Expected committed capital 760000, got %s", updated.CommittedCapital)
		}
	})

	t.Run("allocation records are persisted as pending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		fund := testutil.NewFund().Build(t, db)
		investor := testutil.NewInvestor().Build(t, db)

		if _, err := svc.Allocate(allocationRequest(investor.ID, "5000000")); err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}

		records, err := svc.GetAllocationsByFund(fund.ID)
		if err != nil {
			t.Fatalf("GetAllocationsByFund() returned unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 allocation record, got %d", len(records))
		}
		if records[0].Status != model.AllocationRecordPending {
			t.Errorf("Expected pending record, got %s", records[0].Status)
		}
		if records[0].InvestorID != investor.ID {
			t.Errorf("Expected record for investor %s, got %s", investor.ID, records[0].InvestorID)
		}
	})
}

// TestAllocationService_Scoring tests the relationship bonus path.
//
// WHY: An investor already holding a sibling vehicle should be steered
// toward related vehicles when scores are otherwise close.
func TestAllocationService_Scoring(t *testing.T) {
	t.Run("sibling holding earns the relationship bonus", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		siblingID := testutil.MakeID()
		testutil.NewFund().
			WithID(siblingID).
			WithName("Sibling Fund").
			WithStructureType(model.StructureParallel).
			Build(t, db)

		// Two parallel vehicles, identical but for the sibling link.
		related := testutil.NewFund().
			WithName("Related Fund").
			WithStructureType(model.StructureParallel).
			WithSiblings(siblingID).
			Build(t, db)
		testutil.NewFund().
			WithName("Unrelated Fund").
			WithStructureType(model.StructureParallel).
			Build(t, db)

		investor := testutil.NewInvestor().Build(t, db)

		// Record an existing holding in the sibling vehicle.
		repo := repository.NewAllocationRepository(db)
		if err := repo.CreateAllocation(model.InvestorAllocation{
			ID:              testutil.MakeID(),
			InvestorID:      investor.ID,
			FundID:          siblingID,
			AllocatedAmount: decimal.NewFromInt(1_000_000),
			Status:          model.AllocationRecordConfirmed,
		}); err != nil {
			t.Fatalf("CreateAllocation() returned unexpected error: %v", err)
		}

		result, err := svc.Allocate(allocationRequest(investor.ID, "5000000"))
		if err != nil {
			t.Fatalf("Allocate() returned unexpected error: %v", err)
		}
		if result.Status != model.AllocationFull {
			t.Fatalf("Expected full allocation, got %s", result.Status)
		}
		if result.Allocations[0].FundID != related.ID {
			t.Errorf("Expected the related vehicle to rank first, got %s", result.Allocations[0].FundName)
		}
	})
}

// TestAllocationService_Allocate_Concurrent races two requests against the
// same vehicle's remaining capacity.
//
// WHY: Committed capital is read, summed and written back as an absolute
// value. Two requests naming different funds previously took different
// locks, interleaved their reads, and the later write erased the earlier
// one. The registry must reconcile with the accepted allocations no matter
// how the requests interleave.
func TestAllocationService_Allocate_Concurrent(t *testing.T) {
	t.Run("racing requests never lose committed capital", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAllocationService(t, db)

		shared := testutil.NewFund().
			WithName("Shared Fund").
			Build(t, db)
		// A vehicle the institutional investors cannot enter, so each
		// request can name a different fund while both compete for the
		// shared vehicle's capacity.
		decoy := testutil.NewFund().
			WithName("Pension Only Fund").
			WithStructureType(model.StructureParallel).
			WithEligibleTypes(model.InvestorPensionFund).
			Build(t, db)

		first := testutil.NewInvestor().Build(t, db)
		second := testutil.NewInvestor().Build(t, db)

		reqA := allocationRequest(first.ID, "60000000")
		reqA.FundID = shared.ID
		reqB := allocationRequest(second.ID, "60000000")
		reqB.FundID = decoy.ID

		var (
			wg      sync.WaitGroup
			start   = make(chan struct{})
			results [2]model.AllocationResult
			errs    [2]error
		)
		for i, req := range []model.AllocationRequest{reqA, reqB} {
			wg.Add(1)
			go func(i int, req model.AllocationRequest) {
				defer wg.Done()
				<-start
				results[i], errs[i] = svc.Allocate(req)
			}(i, req)
		}
		close(start)
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("Allocate() %d returned unexpected error: %v", i, err)
			}
		}

		updated, err := repository.NewFundRepository(db).GetFund(shared.ID)
		if err != nil {
			t.Fatalf("GetFund() returned unexpected error: %v", err)
		}

		accepted := decimal.Zero
		for _, result := range results {
			accepted = accepted.Add(result.TotalAllocated)
		}
		if !updated.CommittedCapital.Equal(accepted) {
			t.Errorf("Expected committed capital %s to equal accepted allocations %s", updated.CommittedCapital, accepted)
		}
		if updated.CommittedCapital.GreaterThan(updated.TargetSize) {
			t.Errorf("Expected committed capital within target %s, got %s", updated.TargetSize, updated.CommittedCapital)
		}
	})
}
