package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Fund-Administration-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
	"github.com/shopspring/decimal"
)

// FundRepository provides data access methods for the fund table.
// It backs the allocation engine's registry of fund vehicles.
type FundRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewFundRepository creates a new FundRepository with the provided database connection.
func NewFundRepository(db *sql.DB) *FundRepository {
	return &FundRepository{db: db}
}

func (r *FundRepository) WithTx(tx *sql.Tx) *FundRepository {
	return &FundRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *FundRepository) getQuerier() interface {
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

const fundColumns = `id, name, structure_type, status, parent_fund_id, master_fund_id,
	inception_date, target_size, min_commitment, max_commitment, max_investors,
	eligible_investor_types, restricted_jurisdictions, management_fee_rate, carry_rate,
	committed_capital, called_capital, paid_in_capital, nav, erisa_capital,
	child_fund_ids, sibling_fund_ids, allocation_strategy, created_at, updated_at`

// CreateFund inserts a new fund vehicle.
func (r *FundRepository) CreateFund(fund model.FundVehicle) error {
	query := `
		INSERT INTO fund (` + fundColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var parentID, masterID any
	if fund.ParentFundID != "" {
		parentID = fund.ParentFundID
	}
	if fund.MasterFundID != "" {
		masterID = fund.MasterFundID
	}

	types := make([]string, len(fund.EligibleInvestorTypes))
	for i, t := range fund.EligibleInvestorTypes {
		types[i] = string(t)
	}

	_, err := r.getQuerier().Exec(query,
		fund.ID,
		fund.Name,
		string(fund.StructureType),
		string(fund.Status),
		parentID,
		masterID,
		fund.InceptionDate.Format("2006-01-02"),
		fund.TargetSize,
		fund.MinCommitment,
		fund.MaxCommitment,
		fund.MaxInvestors,
		joinList(types),
		joinList(fund.RestrictedJurisdictions),
		fund.ManagementFeeRate,
		fund.CarryRate,
		fund.CommittedCapital,
		fund.CalledCapital,
		fund.PaidInCapital,
		fund.NAV,
		fund.ErisaCapital,
		joinList(fund.ChildFundIDs),
		joinList(fund.SiblingFundIDs),
		string(fund.AllocationStrategy),
		fund.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		fund.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fund: %w", err)
	}

	return nil
}

// GetFund retrieves a single fund vehicle by ID.
// Returns apperrors.ErrFundNotFound when no row matches.
func (r *FundRepository) GetFund(fundID string) (model.FundVehicle, error) {
	query := `SELECT ` + fundColumns + ` FROM fund WHERE id = ?`

	row := r.getQuerier().QueryRow(query, fundID)
	fund, err := scanFund(row.Scan)
	if err == sql.ErrNoRows {
		return model.FundVehicle{}, apperrors.ErrFundNotFound
	}
	if err != nil {
		return model.FundVehicle{}, fmt.Errorf("failed to scan fund table results: %w", err)
	}

	return fund, nil
}

// GetFunds retrieves all fund vehicles, ordered by name.
// Returns an empty slice when the table is empty.
func (r *FundRepository) GetFunds() ([]model.FundVehicle, error) {
	query := `SELECT ` + fundColumns + ` FROM fund ORDER BY name ASC`

	rows, err := r.getQuerier().Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund table: %w", err)
	}
	defer rows.Close()

	funds := []model.FundVehicle{}
	for rows.Next() {
		fund, err := scanFund(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund table results: %w", err)
		}
		funds = append(funds, fund)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund table: %w", err)
	}

	return funds, nil
}

// UpdateCapital updates the committed and ERISA capital columns for a fund.
// This is the allocation engine's only mutation of registry state.
func (r *FundRepository) UpdateCapital(fundID string, committed, erisa decimal.Decimal) error {
	query := `
		UPDATE fund
		SET committed_capital = ?, erisa_capital = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.getQuerier().Exec(query, committed, erisa, fundID)
	if err != nil {
		return fmt.Errorf("failed to update fund capital: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check fund capital update: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrFundNotFound
	}

	return nil
}

// scanFund maps one fund row into a model.FundVehicle.
func scanFund(scan func(dest ...any) error) (model.FundVehicle, error) {
	var f model.FundVehicle
	var parentID, masterID sql.NullString
	var inceptionStr, createdStr, updatedStr string
	var typesStr, jurisdictionsStr, childStr, siblingStr string
	var structureType, status, strategy string

	err := scan(
		&f.ID,
		&f.Name,
		&structureType,
		&status,
		&parentID,
		&masterID,
		&inceptionStr,
		&f.TargetSize,
		&f.MinCommitment,
		&f.MaxCommitment,
		&f.MaxInvestors,
		&typesStr,
		&jurisdictionsStr,
		&f.ManagementFeeRate,
		&f.CarryRate,
		&f.CommittedCapital,
		&f.CalledCapital,
		&f.PaidInCapital,
		&f.NAV,
		&f.ErisaCapital,
		&childStr,
		&siblingStr,
		&strategy,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return model.FundVehicle{}, err
	}

	f.StructureType = model.StructureType(structureType)
	f.Status = model.FundStatus(status)
	f.AllocationStrategy = model.AllocationStrategy(strategy)
	f.ParentFundID = parentID.String
	f.MasterFundID = masterID.String

	for _, t := range splitList(typesStr) {
		f.EligibleInvestorTypes = append(f.EligibleInvestorTypes, model.InvestorType(t))
	}
	f.RestrictedJurisdictions = splitList(jurisdictionsStr)
	f.ChildFundIDs = splitList(childStr)
	f.SiblingFundIDs = splitList(siblingStr)

	if f.InceptionDate, err = ParseTime(inceptionStr); err != nil {
		return model.FundVehicle{}, err
	}
	if f.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.FundVehicle{}, err
	}
	if f.UpdatedAt, err = ParseTime(updatedStr); err != nil {
		return model.FundVehicle{}, err
	}

	return f, nil
}
