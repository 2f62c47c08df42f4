package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/ndewijer/Fund-Administration-Backend/internal/repository"
	"github.com/rs/zerolog"
)

// InvestorService manages the investor registry and commitments.
type InvestorService struct {
	investorRepo   *repository.InvestorRepository
	commitmentRepo *repository.CommitmentRepository
	fundRepo       *repository.FundRepository
	logger         zerolog.Logger
}

// NewInvestorService creates a new InvestorService with the provided dependencies.
func NewInvestorService(
	investorRepo *repository.InvestorRepository,
	commitmentRepo *repository.CommitmentRepository,
	fundRepo *repository.FundRepository,
	logger zerolog.Logger,
) *InvestorService {
	return &InvestorService{
		investorRepo:   investorRepo,
		commitmentRepo: commitmentRepo,
		fundRepo:       fundRepo,
		logger:         logger,
	}
}

// CreateInvestor registers a new investor. Compliance reviews start
// pending; the investor is active immediately.
func (s *InvestorService) CreateInvestor(investor model.Investor) (model.Investor, error) {
	investor.ID = uuid.NewString()
	now := time.Now().UTC()
	investor.CreatedAt = now
	investor.UpdatedAt = now

	if investor.KYCStatus == "" {
		investor.KYCStatus = model.CompliancePending
	}
	if investor.AMLStatus == "" {
		investor.AMLStatus = model.CompliancePending
	}
	investor.IsActive = true

	if err := s.investorRepo.CreateInvestor(investor); err != nil {
		return model.Investor{}, err
	}

	s.logger.Info().
		Str("investor_id", investor.ID).
		Str("type", string(investor.Type)).
		Msg("investor created")

	return investor, nil
}

// GetInvestor retrieves a single investor by ID.
func (s *InvestorService) GetInvestor(investorID string) (model.Investor, error) {
	return s.investorRepo.GetInvestor(investorID)
}

// GetInvestors retrieves all investors.
func (s *InvestorService) GetInvestors() ([]model.Investor, error) {
	return s.investorRepo.GetInvestors()
}

// CreateCommitment records an investor's commitment to a fund. Both sides
// of the relation must exist.
func (s *InvestorService) CreateCommitment(commitment model.InvestorCommitment) (model.InvestorCommitment, error) {
	if _, err := s.investorRepo.GetInvestor(commitment.InvestorID); err != nil {
		return model.InvestorCommitment{}, err
	}
	if _, err := s.fundRepo.GetFund(commitment.FundID); err != nil {
		return model.InvestorCommitment{}, err
	}

	commitment.ID = uuid.NewString()
	if commitment.Status == "" {
		commitment.Status = model.CommitmentActive
	}

	if err := s.commitmentRepo.CreateCommitment(commitment); err != nil {
		return model.InvestorCommitment{}, err
	}

	s.logger.Info().
		Str("commitment_id", commitment.ID).
		Str("investor_id", commitment.InvestorID).
		Str("fund_id", commitment.FundID).
		Msg("commitment created")

	return commitment, nil
}

// GetCommitmentsByFund retrieves all commitments recorded against a fund.
func (s *InvestorService) GetCommitmentsByFund(fundID string) ([]model.InvestorCommitment, error) {
	if _, err := s.fundRepo.GetFund(fundID); err != nil {
		return nil, err
	}
	return s.commitmentRepo.GetCommitmentsByFund(fundID)
}
