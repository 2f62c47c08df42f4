package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/ndewijer/Fund-Administration-Backend/internal/repository"
)

// MakeID returns a fresh UUID string.
func MakeID() string {
	return uuid.NewString()
}

// FundBuilder provides a fluent interface for creating test fund vehicles.
//
// Example usage:
//
//	// Simple creation with defaults
//	fund := testutil.NewFund().Build(t, db)
//
//	// Customized fund
//	fund := testutil.NewFund().
//	    WithStructureType(model.StructureFeeder).
//	    WithTargetSize("50000000").
//	    Build(t, db)
type FundBuilder struct {
	fund model.FundVehicle
}

// NewFund creates a FundBuilder with sensible defaults.
func NewFund() *FundBuilder {
	return &FundBuilder{
		fund: model.FundVehicle{
			ID:            MakeID(),
			Name:          "Test Fund",
			StructureType: model.StructureMain,
			Status:        model.FundFundraising,
			InceptionDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			TargetSize:    decimal.NewFromInt(100_000_000),
			MinCommitment: decimal.NewFromInt(1_000_000),
			EligibleInvestorTypes: []model.InvestorType{
				model.InvestorInstitutional,
				model.InvestorPensionFund,
			},
			ManagementFeeRate:  decimal.NewFromFloat(0.02),
			CarryRate:          decimal.NewFromFloat(0.20),
			AllocationStrategy: model.StrategyProRata,
			CreatedAt:          time.Now().UTC(),
			UpdatedAt:          time.Now().UTC(),
		},
	}
}

// WithID sets a custom ID.
func (b *FundBuilder) WithID(id string) *FundBuilder {
	b.fund.ID = id
	return b
}

// WithName sets a custom name.
func (b *FundBuilder) WithName(name string) *FundBuilder {
	b.fund.Name = name
	return b
}

// WithStructureType sets the vehicle's structure type.
func (b *FundBuilder) WithStructureType(st model.StructureType) *FundBuilder {
	b.fund.StructureType = st
	return b
}

// WithParent sets the parent fund ID.
func (b *FundBuilder) WithParent(parentID string) *FundBuilder {
	b.fund.ParentFundID = parentID
	return b
}

// WithSiblings sets the sibling fund IDs.
func (b *FundBuilder) WithSiblings(ids ...string) *FundBuilder {
	b.fund.SiblingFundIDs = ids
	return b
}

// WithTargetSize sets the target size.
func (b *FundBuilder) WithTargetSize(amount string) *FundBuilder {
	b.fund.TargetSize = decimal.RequireFromString(amount)
	return b
}

// WithMinCommitment sets the minimum commitment.
func (b *FundBuilder) WithMinCommitment(amount string) *FundBuilder {
	b.fund.MinCommitment = decimal.RequireFromString(amount)
	return b
}

// WithMaxCommitment sets the maximum commitment.
func (b *FundBuilder) WithMaxCommitment(amount string) *FundBuilder {
	b.fund.MaxCommitment = decimal.RequireFromString(amount)
	return b
}

// WithMaxInvestors caps the investor count.
func (b *FundBuilder) WithMaxInvestors(n int) *FundBuilder {
	b.fund.MaxInvestors = n
	return b
}

// WithCommittedCapital pre-fills committed capital.
func (b *FundBuilder) WithCommittedCapital(amount string) *FundBuilder {
	b.fund.CommittedCapital = decimal.RequireFromString(amount)
	return b
}

// WithErisaCapital pre-fills benefit-plan capital.
func (b *FundBuilder) WithErisaCapital(amount string) *FundBuilder {
	b.fund.ErisaCapital = decimal.RequireFromString(amount)
	return b
}

// WithEligibleTypes sets the eligible investor types.
func (b *FundBuilder) WithEligibleTypes(types ...model.InvestorType) *FundBuilder {
	b.fund.EligibleInvestorTypes = types
	return b
}

// WithRestrictedJurisdictions sets the restricted jurisdictions.
func (b *FundBuilder) WithRestrictedJurisdictions(jurisdictions ...string) *FundBuilder {
	b.fund.RestrictedJurisdictions = jurisdictions
	return b
}

// WithFees sets the management fee and carry rates.
func (b *FundBuilder) WithFees(mgmtFee, carry string) *FundBuilder {
	b.fund.ManagementFeeRate = decimal.RequireFromString(mgmtFee)
	b.fund.CarryRate = decimal.RequireFromString(carry)
	return b
}

// WithStatus sets the fund lifecycle status.
func (b *FundBuilder) WithStatus(status model.FundStatus) *FundBuilder {
	b.fund.Status = status
	return b
}

// WithStrategy sets the allocation strategy.
func (b *FundBuilder) WithStrategy(s model.AllocationStrategy) *FundBuilder {
	b.fund.AllocationStrategy = s
	return b
}

// WithInceptionDate sets the inception date.
func (b *FundBuilder) WithInceptionDate(d time.Time) *FundBuilder {
	b.fund.InceptionDate = d
	return b
}

// Build creates the fund in the database and returns it.
func (b *FundBuilder) Build(t *testing.T, db *sql.DB) model.FundVehicle {
	t.Helper()

	if err := repository.NewFundRepository(db).CreateFund(b.fund); err != nil {
		t.Fatalf("Failed to create test fund: %v", err)
	}
	return b.fund
}

// InvestorBuilder provides a fluent interface for creating test investors.
type InvestorBuilder struct {
	investor model.Investor
}

// NewInvestor creates an InvestorBuilder with sensible defaults.
func NewInvestor() *InvestorBuilder {
	return &InvestorBuilder{
		investor: model.Investor{
			ID:           MakeID(),
			Name:         "Test Investor",
			Type:         model.InvestorInstitutional,
			Email:        "investor@example.com",
			Jurisdiction: "US",
			KYCStatus:    model.ComplianceApproved,
			AMLStatus:    model.ComplianceApproved,
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		},
	}
}

// WithID sets a custom ID.
func (b *InvestorBuilder) WithID(id string) *InvestorBuilder {
	b.investor.ID = id
	return b
}

// WithName sets a custom name.
func (b *InvestorBuilder) WithName(name string) *InvestorBuilder {
	b.investor.Name = name
	return b
}

// WithType sets the investor type.
func (b *InvestorBuilder) WithType(t model.InvestorType) *InvestorBuilder {
	b.investor.Type = t
	return b
}

// WithJurisdiction sets the jurisdiction.
func (b *InvestorBuilder) WithJurisdiction(j string) *InvestorBuilder {
	b.investor.Jurisdiction = j
	return b
}

// Build creates the investor in the database and returns it.
// Tax IDs are stored unencrypted in tests.
func (b *InvestorBuilder) Build(t *testing.T, db *sql.DB) model.Investor {
	t.Helper()

	if err := repository.NewInvestorRepository(db, nil).CreateInvestor(b.investor); err != nil {
		t.Fatalf("Failed to create test investor: %v", err)
	}
	return b.investor
}

// CommitmentBuilder provides a fluent interface for creating test commitments.
type CommitmentBuilder struct {
	commitment model.InvestorCommitment
}

// NewCommitment creates a CommitmentBuilder with sensible defaults for the
// given investor and fund.
func NewCommitment(investorID, fundID string) *CommitmentBuilder {
	return &CommitmentBuilder{
		commitment: model.InvestorCommitment{
			ID:               MakeID(),
			InvestorID:       investorID,
			FundID:           fundID,
			CommitmentAmount: decimal.NewFromInt(10_000_000),
			CommitmentDate:   time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC),
			Status:           model.CommitmentActive,
		},
	}
}

// WithAmount sets the commitment amount.
func (b *CommitmentBuilder) WithAmount(amount string) *CommitmentBuilder {
	b.commitment.CommitmentAmount = decimal.RequireFromString(amount)
	return b
}

// WithPaidIn sets the paid-in amount.
func (b *CommitmentBuilder) WithPaidIn(amount string) *CommitmentBuilder {
	b.commitment.PaidInAmount = decimal.RequireFromString(amount)
	return b
}

// WithNAV sets the NAV amount.
func (b *CommitmentBuilder) WithNAV(amount string) *CommitmentBuilder {
	b.commitment.NAVAmount = decimal.RequireFromString(amount)
	return b
}

// WithDate sets the commitment date.
func (b *CommitmentBuilder) WithDate(d time.Time) *CommitmentBuilder {
	b.commitment.CommitmentDate = d
	return b
}

// WithWithholdingRate sets an investor-specific withholding rate.
func (b *CommitmentBuilder) WithWithholdingRate(rate string) *CommitmentBuilder {
	b.commitment.WithholdingRate = decimal.RequireFromString(rate)
	b.commitment.HasWithholdingRate = true
	return b
}

// WithStatus sets the commitment status.
func (b *CommitmentBuilder) WithStatus(s model.CommitmentStatus) *CommitmentBuilder {
	b.commitment.Status = s
	return b
}

// Value returns the commitment without persisting it, for pure
// calculation tests.
func (b *CommitmentBuilder) Value() model.InvestorCommitment {
	return b.commitment
}

// Build creates the commitment in the database and returns it.
func (b *CommitmentBuilder) Build(t *testing.T, db *sql.DB) model.InvestorCommitment {
	t.Helper()

	if err := repository.NewCommitmentRepository(db).CreateCommitment(b.commitment); err != nil {
		t.Fatalf("Failed to create test commitment: %v", err)
	}
	return b.commitment
}

// NewPosition returns an investor position for waterfall tests with the
// given contribution fully unreturned.
func NewPosition(investorID string, contributions, ownership string) model.InvestorPosition {
	amount := decimal.RequireFromString(contributions)
	return model.InvestorPosition{
		InvestorID:              investorID,
		InvestorName:            "Investor " + investorID[:8],
		TotalContributions:      amount,
		UnreturnedContributions: amount,
		OwnershipPercentage:     decimal.RequireFromString(ownership),
	}
}
