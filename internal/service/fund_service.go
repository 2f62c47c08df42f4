package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/ndewijer/Fund-Administration-Backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// FundService manages the fund vehicle registry and reporting.
type FundService struct {
	fundRepo       *repository.FundRepository
	investorRepo   *repository.InvestorRepository
	allocationRepo *repository.AllocationRepository
	logger         zerolog.Logger
}

// NewFundService creates a new FundService with the provided dependencies.
func NewFundService(
	fundRepo *repository.FundRepository,
	investorRepo *repository.InvestorRepository,
	allocationRepo *repository.AllocationRepository,
	logger zerolog.Logger,
) *FundService {
	return &FundService{
		fundRepo:       fundRepo,
		investorRepo:   investorRepo,
		allocationRepo: allocationRepo,
		logger:         logger,
	}
}

// CreateFund registers a new fund vehicle.
func (s *FundService) CreateFund(fund model.FundVehicle) (model.FundVehicle, error) {
	fund.ID = uuid.NewString()
	now := time.Now().UTC()
	fund.CreatedAt = now
	fund.UpdatedAt = now

	if fund.Status == "" {
		fund.Status = model.FundFundraising
	}
	if fund.AllocationStrategy == "" {
		fund.AllocationStrategy = model.StrategyProRata
	}

	if err := s.fundRepo.CreateFund(fund); err != nil {
		return model.FundVehicle{}, err
	}

	s.logger.Info().
		Str("fund_id", fund.ID).
		Str("structure", string(fund.StructureType)).
		Msg("fund created")

	return fund, nil
}

// GetFund retrieves a single fund vehicle by ID.
func (s *FundService) GetFund(fundID string) (model.FundVehicle, error) {
	return s.fundRepo.GetFund(fundID)
}

// GetFunds retrieves all fund vehicles.
func (s *FundService) GetFunds() ([]model.FundVehicle, error) {
	return s.fundRepo.GetFunds()
}

// GenerateAllocationReport summarizes subscription state across every
// vehicle in the registry.
func (s *FundService) GenerateAllocationReport() (model.AllocationReport, error) {
	funds, err := s.fundRepo.GetFunds()
	if err != nil {
		return model.AllocationReport{}, err
	}

	totalInvestors, err := s.investorRepo.CountInvestors()
	if err != nil {
		return model.AllocationReport{}, err
	}

	totalAllocations, err := s.allocationRepo.CountAllocations()
	if err != nil {
		return model.AllocationReport{}, err
	}

	report := model.AllocationReport{
		GeneratedAt:      time.Now().UTC(),
		TotalFunds:       len(funds),
		TotalInvestors:   totalInvestors,
		TotalAllocations: totalAllocations,
		Funds:            make([]model.FundReportEntry, 0, len(funds)),
	}

	for _, fund := range funds {
		investorCount, err := s.allocationRepo.CountFundInvestors(fund.ID)
		if err != nil {
			return model.AllocationReport{}, err
		}

		subscriptionRate := decimal.Zero
		if fund.TargetSize.IsPositive() {
			subscriptionRate = fund.CommittedCapital.Mul(oneHundred).Div(fund.TargetSize)
		}

		report.Funds = append(report.Funds, model.FundReportEntry{
			FundID:            fund.ID,
			FundName:          fund.Name,
			StructureType:     fund.StructureType,
			TargetSize:        fund.TargetSize,
			CommittedCapital:  fund.CommittedCapital,
			SubscriptionRate:  subscriptionRate,
			InvestorCount:     investorCount,
			MaxInvestors:      fund.MaxInvestors,
			AvailableCapacity: fund.AvailableCapacity(),
		})
	}

	return report, nil
}
