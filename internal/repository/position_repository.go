package repository

import (
	"database/sql"
	"fmt"

	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
)

// PositionRepository provides data access methods for the investor_position
// table. It is the waterfall engine's position store: positions are loaded
// before a calculation and the returned, updated list is saved after.
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository creates a new PositionRepository with the provided database connection.
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// GetPositions retrieves the current investor positions for a fund.
// Returns an empty slice when no positions exist yet.
func (r *PositionRepository) GetPositions(fundID string) ([]model.InvestorPosition, error) {
	query := `
		SELECT investor_id, investor_name, total_contributions, unreturned_contributions,
			preferred_return_shortfall, cumulative_preferred_return,
			prior_distributions, prior_carry_distributions, ownership_percentage
		FROM investor_position
		WHERE fund_id = ?
		ORDER BY investor_id ASC
	`

	rows, err := r.db.Query(query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query investor_position table: %w", err)
	}
	defer rows.Close()

	positions := []model.InvestorPosition{}
	for rows.Next() {
		var p model.InvestorPosition

		err := rows.Scan(
			&p.InvestorID,
			&p.InvestorName,
			&p.TotalContributions,
			&p.UnreturnedContributions,
			&p.PreferredReturnShortfall,
			&p.CumulativePreferredReturn,
			&p.PriorDistributions,
			&p.PriorCarryDistributions,
			&p.OwnershipPercentage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investor_position table results: %w", err)
		}

		positions = append(positions, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investor_position table: %w", err)
	}

	return positions, nil
}

// SavePositions upserts the full position list for a fund inside one
// transaction, so a waterfall run's state lands atomically.
func (r *PositionRepository) SavePositions(fundID string, positions []model.InvestorPosition) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin position save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	query := `
		INSERT INTO investor_position (fund_id, investor_id, investor_name,
			total_contributions, unreturned_contributions,
			preferred_return_shortfall, cumulative_preferred_return,
			prior_distributions, prior_carry_distributions, ownership_percentage, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(fund_id, investor_id) DO UPDATE SET
			investor_name = excluded.investor_name,
			total_contributions = excluded.total_contributions,
			unreturned_contributions = excluded.unreturned_contributions,
			preferred_return_shortfall = excluded.preferred_return_shortfall,
			cumulative_preferred_return = excluded.cumulative_preferred_return,
			prior_distributions = excluded.prior_distributions,
			prior_carry_distributions = excluded.prior_carry_distributions,
			ownership_percentage = excluded.ownership_percentage,
			updated_at = CURRENT_TIMESTAMP
	`

	for _, p := range positions {
		_, err := tx.Exec(query,
			fundID,
			p.InvestorID,
			p.InvestorName,
			p.TotalContributions,
			p.UnreturnedContributions,
			p.PreferredReturnShortfall,
			p.CumulativePreferredReturn,
			p.PriorDistributions,
			p.PriorCarryDistributions,
			p.OwnershipPercentage,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert investor position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit position save: %w", err)
	}

	return nil
}
