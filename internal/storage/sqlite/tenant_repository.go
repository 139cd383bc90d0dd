package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
)

const dateLayout = "2006-01-02"

// TenantRepository reads the users -> portfolios -> assets hierarchy from SQLite
type TenantRepository struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

var _ interfaces.TenantStore = (*TenantRepository)(nil)

// NewTenantRepository creates a new TenantRepository instance
func NewTenantRepository(db *SQLiteDB, logger arbor.ILogger) *TenantRepository {
	return &TenantRepository{db: db, logger: logger}
}

func (r *TenantRepository) ListActiveTenants(ctx context.Context) ([]models.Tenant, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT id, first_name, last_name, email, active, created_at
		FROM users WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	r.logger.Debug().Int("count", len(tenants)).Msg("Loaded active tenants")
	return tenants, nil
}

func (r *TenantRepository) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	row := r.db.DB().QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, active, created_at
		FROM users WHERE id = ?`, tenantID)

	tenant, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrTenantNotFound, tenantID)
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *TenantRepository) LoadPortfolios(ctx context.Context, tenantID string) ([]models.Portfolio, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT id, user_id, name, description
		FROM portfolios WHERE user_id = ? ORDER BY id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolios for %s: %w", tenantID, err)
	}
	defer rows.Close()

	var portfolios []models.Portfolio
	for rows.Next() {
		var p models.Portfolio
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

func (r *TenantRepository) LoadAssets(ctx context.Context, portfolioID int64) ([]models.Asset, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT id, portfolio_id, symbol, quantity, acquisition_price, acquisition_date
		FROM assets WHERE portfolio_id = ? ORDER BY id`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets for portfolio %d: %w", portfolioID, err)
	}
	defer rows.Close()

	var assets []models.Asset
	for rows.Next() {
		var (
			a        models.Asset
			quantity string
			price    string
			acquired sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.PortfolioID, &a.Symbol, &quantity, &price, &acquired); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}

		if a.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("asset %d has invalid quantity %q: %w", a.ID, quantity, err)
		}
		if a.AcquisitionPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("asset %d has invalid acquisition price %q: %w", a.ID, price, err)
		}
		if acquired.Valid && acquired.String != "" {
			date, err := time.Parse(dateLayout, acquired.String)
			if err != nil {
				return nil, fmt.Errorf("asset %d has invalid acquisition date %q: %w", a.ID, acquired.String, err)
			}
			a.AcquisitionDate = &date
		}

		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// SaveTenant inserts or updates a tenant row.
func (r *TenantRepository) SaveTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		return fmt.Errorf("tenant id is required")
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			email = excluded.email,
			active = excluded.active`,
		tenant.ID, tenant.FirstName, tenant.LastName, tenant.Email, tenant.Active, tenant.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save tenant %s: %w", tenant.ID, err)
	}
	return nil
}

func (r *TenantRepository) CreatePortfolio(ctx context.Context, portfolio *models.Portfolio) (int64, error) {
	res, err := r.db.DB().ExecContext(ctx,
		`INSERT INTO portfolios (user_id, name, description) VALUES (?, ?, ?)`,
		portfolio.TenantID, portfolio.Name, portfolio.Description)
	if err != nil {
		return 0, fmt.Errorf("failed to create portfolio %q: %w", portfolio.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	portfolio.ID = id
	return id, nil
}

func (r *TenantRepository) AddAsset(ctx context.Context, asset *models.Asset) (int64, error) {
	var acquired any
	if asset.AcquisitionDate != nil {
		acquired = asset.AcquisitionDate.Format(dateLayout)
	}

	res, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO assets (portfolio_id, symbol, quantity, acquisition_price, acquisition_date)
		VALUES (?, ?, ?, ?, ?)`,
		asset.PortfolioID, asset.Symbol, asset.Quantity.String(), asset.AcquisitionPrice.String(), acquired)
	if err != nil {
		return 0, fmt.Errorf("failed to add asset %s: %w", asset.Symbol, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	asset.ID = id
	return id, nil
}

func (r *TenantRepository) DeleteAsset(ctx context.Context, assetID int64) error {
	if _, err := r.db.DB().ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, assetID); err != nil {
		return fmt.Errorf("failed to delete asset %d: %w", assetID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var (
		t       models.Tenant
		created int64
	)
	if err := row.Scan(&t.ID, &t.FirstName, &t.LastName, &t.Email, &t.Active, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}
	t.CreatedAt = time.Unix(created, 0).UTC()
	return &t, nil
}
