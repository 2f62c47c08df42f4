package repository

import (
	"database/sql"
	"fmt"

	"github.com/ndewijer/Fund-Administration-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/shopspring/decimal"
)

// CommitmentRepository provides data access methods for the commitment table.
// It is the event calculation engine's commitment source.
type CommitmentRepository struct {
	db *sql.DB
}

// NewCommitmentRepository creates a new CommitmentRepository with the provided database connection.
func NewCommitmentRepository(db *sql.DB) *CommitmentRepository {
	return &CommitmentRepository{db: db}
}

// CreateCommitment inserts a new investor commitment.
func (r *CommitmentRepository) CreateCommitment(c model.InvestorCommitment) error {
	query := `
		INSERT INTO commitment (id, investor_id, fund_id, commitment_amount, paid_in_amount, nav_amount, commitment_date, withholding_rate, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var withholding any
	if c.HasWithholdingRate {
		withholding = c.WithholdingRate.String()
	}

	_, err := r.db.Exec(query,
		c.ID,
		c.InvestorID,
		c.FundID,
		c.CommitmentAmount,
		c.PaidInAmount,
		c.NAVAmount,
		c.CommitmentDate.Format("2006-01-02"),
		withholding,
		string(c.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert commitment: %w", err)
	}

	return nil
}

// GetCommitment retrieves a single commitment by ID.
func (r *CommitmentRepository) GetCommitment(commitmentID string) (model.InvestorCommitment, error) {
	query := `
		SELECT id, investor_id, fund_id, commitment_amount, paid_in_amount, nav_amount, commitment_date, withholding_rate, status
		FROM commitment
		WHERE id = ?
	`

	row := r.db.QueryRow(query, commitmentID)
	c, err := scanCommitment(row.Scan)
	if err == sql.ErrNoRows {
		return model.InvestorCommitment{}, apperrors.ErrCommitmentNotFound
	}
	if err != nil {
		return model.InvestorCommitment{}, fmt.Errorf("failed to scan commitment table results: %w", err)
	}

	return c, nil
}

// GetCommitmentsByFund retrieves all commitments for a fund, ordered by
// commitment date. The event calculation engine applies record-date
// eligibility itself, so no date filter is pushed down here.
func (r *CommitmentRepository) GetCommitmentsByFund(fundID string) ([]model.InvestorCommitment, error) {
	query := `
		SELECT id, investor_id, fund_id, commitment_amount, paid_in_amount, nav_amount, commitment_date, withholding_rate, status
		FROM commitment
		WHERE fund_id = ?
		ORDER BY commitment_date ASC
	`

	rows, err := r.db.Query(query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query commitment table: %w", err)
	}
	defer rows.Close()

	commitments := []model.InvestorCommitment{}
	for rows.Next() {
		c, err := scanCommitment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commitment table results: %w", err)
		}
		commitments = append(commitments, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commitment table: %w", err)
	}

	return commitments, nil
}

func scanCommitment(scan func(dest ...any) error) (model.InvestorCommitment, error) {
	var c model.InvestorCommitment
	var dateStr, status string
	var withholding sql.NullString

	err := scan(
		&c.ID,
		&c.InvestorID,
		&c.FundID,
		&c.CommitmentAmount,
		&c.PaidInAmount,
		&c.NAVAmount,
		&dateStr,
		&withholding,
		&status,
	)
	if err != nil {
		return model.InvestorCommitment{}, err
	}

	c.Status = model.CommitmentStatus(status)

	if withholding.Valid {
		rate, err := decimal.NewFromString(withholding.String)
		if err != nil {
			return model.InvestorCommitment{}, fmt.Errorf("invalid withholding rate: %w", err)
		}
		c.WithholdingRate = rate
		c.HasWithholdingRate = true
	}

	if c.CommitmentDate, err = ParseTime(dateStr); err != nil {
		return model.InvestorCommitment{}, err
	}

	return c, nil
}
