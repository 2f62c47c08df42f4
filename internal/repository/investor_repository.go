package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/ndewijer/Fund-Administration-Backend/internal/apperrors"
	"github.com/ndewijer/Fund-Administration-Backend/internal/model"
)

// InvestorRepository provides data access methods for the investor table.
// Tax IDs are fernet-encrypted at rest when an encryption key is configured;
// without a key they are stored as-is, which is only acceptable for
// development databases.
type InvestorRepository struct {
	db  *sql.DB
	key *fernet.Key
}

// NewInvestorRepository creates a new InvestorRepository.
// key may be nil, disabling at-rest encryption of tax IDs.
func NewInvestorRepository(db *sql.DB, key *fernet.Key) *InvestorRepository {
	return &InvestorRepository{db: db, key: key}
}

// CreateInvestor inserts a new investor record.
func (r *InvestorRepository) CreateInvestor(investor model.Investor) error {
	taxID, err := r.encryptTaxID(investor.TaxID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO investor (id, name, type, email, jurisdiction, tax_id, kyc_status, aml_status, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		investor.ID,
		investor.Name,
		string(investor.Type),
		investor.Email,
		investor.Jurisdiction,
		taxID,
		string(investor.KYCStatus),
		string(investor.AMLStatus),
		investor.IsActive,
		investor.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		investor.UpdatedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert investor: %w", err)
	}

	return nil
}

// GetInvestor retrieves a single investor by ID.
// Returns apperrors.ErrInvestorNotFound when no row matches.
func (r *InvestorRepository) GetInvestor(investorID string) (model.Investor, error) {
	query := `
		SELECT id, name, type, email, jurisdiction, tax_id, kyc_status, aml_status, is_active, created_at, updated_at
		FROM investor
		WHERE id = ?
	`

	row := r.db.QueryRow(query, investorID)
	investor, err := r.scanInvestor(row.Scan)
	if err == sql.ErrNoRows {
		return model.Investor{}, apperrors.ErrInvestorNotFound
	}
	if err != nil {
		return model.Investor{}, fmt.Errorf("failed to scan investor table results: %w", err)
	}

	return investor, nil
}

// GetInvestors retrieves all investors, ordered by name.
func (r *InvestorRepository) GetInvestors() ([]model.Investor, error) {
	query := `
		SELECT id, name, type, email, jurisdiction, tax_id, kyc_status, aml_status, is_active, created_at, updated_at
		FROM investor
		ORDER BY name ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query investor table: %w", err)
	}
	defer rows.Close()

	investors := []model.Investor{}
	for rows.Next() {
		investor, err := r.scanInvestor(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investor table results: %w", err)
		}
		investors = append(investors, investor)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating investor table: %w", err)
	}

	return investors, nil
}

// CountInvestors returns the number of investor records.
func (r *InvestorRepository) CountInvestors() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM investor`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count investors: %w", err)
	}
	return count, nil
}

func (r *InvestorRepository) scanInvestor(scan func(dest ...any) error) (model.Investor, error) {
	var inv model.Investor
	var investorType, kycStatus, amlStatus string
	var taxID sql.NullString
	var createdStr, updatedStr string

	err := scan(
		&inv.ID,
		&inv.Name,
		&investorType,
		&inv.Email,
		&inv.Jurisdiction,
		&taxID,
		&kycStatus,
		&amlStatus,
		&inv.IsActive,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return model.Investor{}, err
	}

	inv.Type = model.InvestorType(investorType)
	inv.KYCStatus = model.ComplianceStatus(kycStatus)
	inv.AMLStatus = model.ComplianceStatus(amlStatus)

	if inv.TaxID, err = r.decryptTaxID(taxID.String); err != nil {
		return model.Investor{}, err
	}

	if inv.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.Investor{}, err
	}
	if inv.UpdatedAt, err = ParseTime(updatedStr); err != nil {
		return model.Investor{}, err
	}

	return inv, nil
}

func (r *InvestorRepository) encryptTaxID(taxID string) (string, error) {
	if taxID == "" || r.key == nil {
		return taxID, nil
	}

	token, err := fernet.EncryptAndSign([]byte(taxID), r.key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt tax ID: %w", err)
	}

	return string(token), nil
}

func (r *InvestorRepository) decryptTaxID(stored string) (string, error) {
	if stored == "" || r.key == nil {
		return stored, nil
	}

	// TTL 0: tokens never expire, the column is durable storage.
	plain := fernet.VerifyAndDecrypt([]byte(stored), 0*time.Second, []*fernet.Key{r.key})
	if plain == nil {
		return "", fmt.Errorf("failed to decrypt tax ID: %w", apperrors.ErrDataInconsistency)
	}

	return string(plain), nil
}
