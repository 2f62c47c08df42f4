package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/shopspring/decimal"
)

// AllocationRepository provides data access methods for the allocation table.
// It records capital placed in vehicles and answers the demand, investor-count
// and relationship queries the allocation engine screens against.
type AllocationRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewAllocationRepository creates a new AllocationRepository with the provided database connection.
func NewAllocationRepository(db *sql.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

func (r *AllocationRepository) WithTx(tx *sql.Tx) *AllocationRepository {
	return &AllocationRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *AllocationRepository) getQuerier() interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// CreateAllocation inserts an accepted allocation record.
func (r *AllocationRepository) CreateAllocation(a model.InvestorAllocation) error {
	query := `
		INSERT INTO allocation (id, investor_id, fund_id, allocated_amount, erisa_amount, allocation_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getQuerier().Exec(query,
		a.ID,
		a.InvestorID,
		a.FundID,
		a.AllocatedAmount,
		a.ErisaAmount,
		a.AllocationDate.UTC().Format("2006-01-02 15:04:05"),
		string(a.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to insert allocation: %w", err)
	}

	return nil
}

// GetAllocationsByFund retrieves all allocations for a fund.
func (r *AllocationRepository) GetAllocationsByFund(fundID string) ([]model.InvestorAllocation, error) {
	return r.queryAllocations(`
		SELECT id, investor_id, fund_id, allocated_amount, erisa_amount, allocation_date, status
		FROM allocation
		WHERE fund_id = ?
		ORDER BY allocation_date ASC
	`, fundID)
}

// GetAllocationsByInvestor retrieves all allocations for an investor.
func (r *AllocationRepository) GetAllocationsByInvestor(investorID string) ([]model.InvestorAllocation, error) {
	return r.queryAllocations(`
		SELECT id, investor_id, fund_id, allocated_amount, erisa_amount, allocation_date, status
		FROM allocation
		WHERE investor_id = ?
		ORDER BY allocation_date ASC
	`, investorID)
}

// CountFundInvestors returns the number of distinct investors holding an
// allocation in the given fund. Used for the max-investor screen.
func (r *AllocationRepository) CountFundInvestors(fundID string) (int, error) {
	var count int
	err := r.getQuerier().QueryRow(`
		SELECT COUNT(DISTINCT investor_id)
		FROM allocation
		WHERE fund_id = ? AND status != ?
	`, fundID, string(model.AllocationRecordRejected)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count fund investors: %w", err)
	}
	return count, nil
}

// CountAllocations returns the total number of allocation records.
func (r *AllocationRepository) CountAllocations() (int, error) {
	var count int
	if err := r.getQuerier().QueryRow(`SELECT COUNT(*) FROM allocation`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count allocations: %w", err)
	}
	return count, nil
}

// SumPendingDemand returns the total pending allocation amount recorded
// against a fund. The allocation engine uses it for pro-rata reduction
// when demand exceeds remaining capacity. Amounts are summed in Go so
// the decimal values stay exact.
func (r *AllocationRepository) SumPendingDemand(fundID string) (decimal.Decimal, error) {
	rows, err := r.getQuerier().Query(`
		SELECT allocated_amount
		FROM allocation
		WHERE fund_id = ? AND status = ?
	`, fundID, string(model.AllocationRecordPending))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query pending demand: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan pending demand: %w", err)
		}
		total = total.Add(amount)
	}

	if err = rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating pending demand: %w", err)
	}

	return total, nil
}

// InvestorHoldsAny reports whether the investor already holds an allocation
// in any of the given funds. Used for the relationship bonus.
func (r *AllocationRepository) InvestorHoldsAny(investorID string, fundIDs []string) (bool, error) {
	if len(fundIDs) == 0 {
		return false, nil
	}

	//#nosec G202 -- Safe: placeholders are generated programmatically, not from user input
	query := `
		SELECT COUNT(*)
		FROM allocation
		WHERE investor_id = ? AND fund_id IN (` + placeholders(len(fundIDs)) + `)
	`

	args := make([]any, 0, len(fundIDs)+1)
	args = append(args, investorID)
	for _, id := range fundIDs {
		args = append(args, id)
	}

	var count int
	if err := r.getQuerier().QueryRow(query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to query related allocations: %w", err)
	}

	return count > 0, nil
}

func (r *AllocationRepository) queryAllocations(query string, arg any) ([]model.InvestorAllocation, error) {
	rows, err := r.getQuerier().Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation table: %w", err)
	}
	defer rows.Close()

	allocations := []model.InvestorAllocation{}
	for rows.Next() {
		var a model.InvestorAllocation
		var dateStr, status string

		err := rows.Scan(
			&a.ID,
			&a.InvestorID,
			&a.FundID,
			&a.AllocatedAmount,
			&a.ErisaAmount,
			&dateStr,
			&status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation table results: %w", err)
		}

		a.Status = model.AllocationRecordStatus(status)
		if a.AllocationDate, err = ParseTime(dateStr); err != nil {
			return nil, err
		}

		allocations = append(allocations, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating allocation table: %w", err)
	}

	return allocations, nil
}
