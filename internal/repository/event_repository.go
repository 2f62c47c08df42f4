package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Fund-Administration-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
)

// EventRepository provides data access methods for the fund_event and
// event_calculation tables. Calculation rows are append-only: they are
// written once per processing run and never updated.
type EventRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewEventRepository creates a new EventRepository with the provided database connection.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) WithTx(tx *sql.Tx) *EventRepository {
	return &EventRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *EventRepository) getQuerier() interface {
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

const eventColumns = `id, fund_id, type, name, event_date, effective_date, record_date,
	total_amount, method, basis, status,
	investment_amount, management_fee_amount, expense_amount, minimum_call_amount, allow_partial_funding,
	gross_distribution, management_fee_offset, expense_offset, withholding_required, default_withholding_rate,
	fee_period_start, fee_period_end, fee_rate, prorate_for_period, days_in_period,
	created_at, updated_at`

// CreateEvent inserts a new fund event.
func (r *EventRepository) CreateEvent(e model.FundEvent) error {
	query := `
		INSERT INTO fund_event (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var feeStart, feeEnd any
	if !e.FeePeriodStart.IsZero() {
		feeStart = e.FeePeriodStart.Format("2006-01-02")
	}
	if !e.FeePeriodEnd.IsZero() {
		feeEnd = e.FeePeriodEnd.Format("2006-01-02")
	}

	_, err := r.getQuerier().Exec(query,
		e.ID,
		e.FundID,
		string(e.Type),
		e.Name,
		e.EventDate.Format("2006-01-02"),
		e.EffectiveDate.Format("2006-01-02"),
		e.RecordDate.Format("2006-01-02"),
		e.TotalAmount,
		string(e.Method),
		string(e.Basis),
		string(e.Status),
		e.InvestmentAmount,
		e.ManagementFeeAmount,
		e.ExpenseAmount,
		e.MinimumCallAmount,
		e.AllowPartialFunding,
		e.GrossDistribution,
		e.ManagementFeeOffset,
		e.ExpenseOffset,
		e.WithholdingRequired,
		e.DefaultWithholdingRate,
		feeStart,
		feeEnd,
		e.FeeRate,
		e.ProrateForPeriod,
		e.DaysInPeriod,
		e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		e.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fund event: %w", err)
	}

	return nil
}

// GetEvent retrieves a single fund event by ID.
// Returns apperrors.ErrEventNotFound when no row matches.
func (r *EventRepository) GetEvent(eventID string) (model.FundEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM fund_event WHERE id = ?`

	row := r.getQuerier().QueryRow(query, eventID)
	event, err := scanEvent(row.Scan)
	if err == sql.ErrNoRows {
		return model.FundEvent{}, apperrors.ErrEventNotFound
	}
	if err != nil {
		return model.FundEvent{}, fmt.Errorf("failed to scan fund_event table results: %w", err)
	}

	return event, nil
}

// GetEventsByFund retrieves all events for a fund, newest first.
func (r *EventRepository) GetEventsByFund(fundID string) ([]model.FundEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM fund_event WHERE fund_id = ? ORDER BY event_date DESC`

	rows, err := r.getQuerier().Query(query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fund_event table: %w", err)
	}
	defer rows.Close()

	events := []model.FundEvent{}
	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund_event table results: %w", err)
		}
		events = append(events, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fund_event table: %w", err)
	}

	return events, nil
}

// UpdateEventStatus persists a workflow status change.
func (r *EventRepository) UpdateEventStatus(eventID string, status model.EventStatus) error {
	result, err := r.getQuerier().Exec(`
		UPDATE fund_event
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(status), eventID)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check event status update: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}

// SaveCalculations appends the per-investor calculations of a processing run.
func (r *EventRepository) SaveCalculations(calculations []model.InvestorEventCalculation) error {
	query := `
		INSERT INTO event_calculation (id, event_id, investor_id, commitment_id,
			ownership_percentage, basis_amount, gross_amount,
			management_fee_offset, expense_offset, withholding_amount, net_amount,
			investment_portion, management_fee_portion, expense_portion, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, c := range calculations {
		_, err := r.getQuerier().Exec(query,
			c.ID,
			c.EventID,
			c.InvestorID,
			c.CommitmentID,
			c.OwnershipPercentage,
			c.BasisAmount,
			c.GrossAmount,
			c.ManagementFeeOffset,
			c.ExpenseOffset,
			c.WithholdingAmount,
			c.NetAmount,
			c.InvestmentPortion,
			c.ManagementFeePortion,
			c.ExpensePortion,
			c.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		)
		if err != nil {
			return fmt.Errorf("failed to insert event calculation: %w", err)
		}
	}

	return nil
}

// GetCalculations retrieves the calculation ledger for an event.
func (r *EventRepository) GetCalculations(eventID string) ([]model.InvestorEventCalculation, error) {
	query := `
		SELECT id, event_id, investor_id, commitment_id,
			ownership_percentage, basis_amount, gross_amount,
			management_fee_offset, expense_offset, withholding_amount, net_amount,
			investment_portion, management_fee_portion, expense_portion, created_at
		FROM event_calculation
		WHERE event_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.getQuerier().Query(query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query event_calculation table: %w", err)
	}
	defer rows.Close()

	calculations := []model.InvestorEventCalculation{}
	for rows.Next() {
		var c model.InvestorEventCalculation
		var createdStr string

		err := rows.Scan(
			&c.ID,
			&c.EventID,
			&c.InvestorID,
			&c.CommitmentID,
			&c.OwnershipPercentage,
			&c.BasisAmount,
			&c.GrossAmount,
			&c.ManagementFeeOffset,
			&c.ExpenseOffset,
			&c.WithholdingAmount,
			&c.NetAmount,
			&c.InvestmentPortion,
			&c.ManagementFeePortion,
			&c.ExpensePortion,
			&createdStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event_calculation table results: %w", err)
		}

		if c.CreatedAt, err = ParseTime(createdStr); err != nil {
			return nil, err
		}

		calculations = append(calculations, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event_calculation table: %w", err)
	}

	return calculations, nil
}

func scanEvent(scan func(dest ...any) error) (model.FundEvent, error) {
	var e model.FundEvent
	var eventType, method, basis, status string
	var eventDateStr, effectiveDateStr, recordDateStr, createdStr, updatedStr string
	var feeStart, feeEnd sql.NullString

	err := scan(
		&e.ID,
		&e.FundID,
		&eventType,
		&e.Name,
		&eventDateStr,
		&effectiveDateStr,
		&recordDateStr,
		&e.TotalAmount,
		&method,
		&basis,
		&status,
		&e.InvestmentAmount,
		&e.ManagementFeeAmount,
		&e.ExpenseAmount,
		&e.MinimumCallAmount,
		&e.AllowPartialFunding,
		&e.GrossDistribution,
		&e.ManagementFeeOffset,
		&e.ExpenseOffset,
		&e.WithholdingRequired,
		&e.DefaultWithholdingRate,
		&feeStart,
		&feeEnd,
		&e.FeeRate,
		&e.ProrateForPeriod,
		&e.DaysInPeriod,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return model.FundEvent{}, err
	}

	e.Type = model.EventType(eventType)
	e.Method = model.CalculationMethod(method)
	e.Basis = model.CalculationBasis(basis)
	e.Status = model.EventStatus(status)

	if e.EventDate, err = ParseTime(eventDateStr); err != nil {
		return model.FundEvent{}, err
	}
	if e.EffectiveDate, err = ParseTime(effectiveDateStr); err != nil {
		return model.FundEvent{}, err
	}
	if e.RecordDate, err = ParseTime(recordDateStr); err != nil {
		return model.FundEvent{}, err
	}
	if feeStart.Valid {
		if e.FeePeriodStart, err = ParseTime(feeStart.String); err != nil {
			return model.FundEvent{}, err
		}
	}
	if feeEnd.Valid {
		if e.FeePeriodEnd, err = ParseTime(feeEnd.String); err != nil {
			return model.FundEvent{}, err
		}
	}
	if e.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.FundEvent{}, err
	}
	if e.UpdatedAt, err = ParseTime(updatedStr); err != nil {
		return model.FundEvent{}, err
	}

	return e, nil
}
