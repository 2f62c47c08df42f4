package testutil

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Fund-Administration-Backend/internal/repository"
	"github.com/ndewijer/Fund-Administration-Backend/internal/service"
)

// NewTestAllocationService wires an AllocationService against the test database.
func NewTestAllocationService(t *testing.T, db *sql.DB) *service.AllocationService {
	t.Helper()

	return service.NewAllocationService(
		db,
		repository.NewFundRepository(db),
		repository.NewInvestorRepository(db, nil),
		repository.NewAllocationRepository(db),
		service.NewFundLocker(),
		zerolog.Nop(),
	)
}

// NewTestEventService wires an EventService against the test database.
func NewTestEventService(t *testing.T, db *sql.DB) *service.EventService {
	t.Helper()

	return service.NewEventService(
		db,
		repository.NewEventRepository(db),
		repository.NewCommitmentRepository(db),
		service.NewFundLocker(),
		zerolog.Nop(),
	)
}

// NewTestWaterfallService wires a WaterfallService against the test database.
func NewTestWaterfallService(t *testing.T, db *sql.DB) *service.WaterfallService {
	t.Helper()

	return service.NewWaterfallService(
		repository.NewFundRepository(db),
		repository.NewPositionRepository(db),
		service.NewFundLocker(),
		zerolog.Nop(),
	)
}

// NewTestFundService wires a FundService against the test database.
func NewTestFundService(t *testing.T, db *sql.DB) *service.FundService {
	t.Helper()

	return service.NewFundService(
		repository.NewFundRepository(db),
		repository.NewInvestorRepository(db, nil),
		repository.NewAllocationRepository(db),
		zerolog.Nop(),
	)
}

// NewTestInvestorService wires an InvestorService against the test database.
func NewTestInvestorService(t *testing.T, db *sql.DB) *service.InvestorService {
	t.Helper()

	return service.NewInvestorService(
		repository.NewInvestorRepository(db, nil),
		repository.NewCommitmentRepository(db),
		repository.NewFundRepository(db),
		zerolog.Nop(),
	)
}
