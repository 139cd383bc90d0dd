// Package yamlfile serves the tenant hierarchy from a YAML document.
// The same document format feeds the -seed import into SQLite.
package yamlfile

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout:
//
//	tenants:
//	  - id: user_001
//	    first_name: Ana
//	    portfolios:
//	      - name: Growth
//	        assets:
//	          - { symbol: NVD.F, quantity: "10", price: "95.20", acquired: "2024-03-01" }
type File struct {
	Tenants []TenantEntry `yaml:"tenants"`
}

type TenantEntry struct {
	ID         string           `yaml:"id"`
	FirstName  string           `yaml:"first_name"`
	LastName   string           `yaml:"last_name"`
	Email      string           `yaml:"email"`
	Active     *bool            `yaml:"active"` // omitted means active
	Portfolios []PortfolioEntry `yaml:"portfolios"`
}

type PortfolioEntry struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Assets      []AssetEntry `yaml:"assets"`
}

type AssetEntry struct {
	Symbol   string `yaml:"symbol"`
	Quantity string `yaml:"quantity"`
	Price    string `yaml:"price"`
	Acquired string `yaml:"acquired"` // YYYY-MM-DD
}

// Parse decodes and validates a tenant document.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tenant yaml: %w", err)
	}

	seen := make(map[string]bool, len(file.Tenants))
	for i, t := range file.Tenants {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			return nil, fmt.Errorf("tenant #%d has no id", i+1)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate tenant id %q", id)
		}
		seen[id] = true
		file.Tenants[i].ID = id
	}
	return &file, nil
}

// LoadFile reads and parses a tenant document from disk.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenant file %s: %w", path, err)
	}
	return Parse(data)
}

func (e TenantEntry) tenant() models.Tenant {
	return models.Tenant{
		ID:        e.ID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Email:     e.Email,
		Active:    e.Active == nil || *e.Active,
	}
}

func (e AssetEntry) asset(portfolioID int64) (models.Asset, error) {
	asset := models.Asset{
		PortfolioID: portfolioID,
		Symbol:      e.Symbol,
		Quantity:    decimal.Zero,
	}

	var err error
	if e.Quantity != "" {
		if asset.Quantity, err = decimal.NewFromString(e.Quantity); err != nil {
			return asset, fmt.Errorf("asset %s: invalid quantity %q: %w", e.Symbol, e.Quantity, err)
		}
	}
	if e.Price != "" {
		if asset.AcquisitionPrice, err = decimal.NewFromString(e.Price); err != nil {
			return asset, fmt.Errorf("asset %s: invalid price %q: %w", e.Symbol, e.Price, err)
		}
	}
	if e.Acquired != "" {
		date, err := time.Parse("2006-01-02", e.Acquired)
		if err != nil {
			return asset, fmt.Errorf("asset %s: invalid acquisition date %q: %w", e.Symbol, e.Acquired, err)
		}
		asset.AcquisitionDate = &date
	}
	return asset, nil
}

// Repository is a read-only TenantRepository over a parsed File.
// Portfolio and asset ids are assigned in document order starting at 1.
type Repository struct {
	logger     arbor.ILogger
	tenants    []models.Tenant
	portfolios map[string][]models.Portfolio
	assets     map[int64][]models.Asset
}

var _ interfaces.TenantRepository = (*Repository)(nil)

// NewRepository loads path into memory.
func NewRepository(path string, logger arbor.ILogger) (*Repository, error) {
	file, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewRepositoryFromFile(file, logger)
}

// NewRepositoryFromFile builds a repository from an already parsed document.
func NewRepositoryFromFile(file *File, logger arbor.ILogger) (*Repository, error) {
	r := &Repository{
		logger:     logger,
		portfolios: make(map[string][]models.Portfolio),
		assets:     make(map[int64][]models.Asset),
	}

	var portfolioID, assetID int64
	for _, entry := range file.Tenants {
		r.tenants = append(r.tenants, entry.tenant())

		for _, p := range entry.Portfolios {
			portfolioID++
			r.portfolios[entry.ID] = append(r.portfolios[entry.ID], models.Portfolio{
				ID:          portfolioID,
				TenantID:    entry.ID,
				Name:        p.Name,
				Description: p.Description,
			})

			for _, a := range p.Assets {
				asset, err := a.asset(portfolioID)
				if err != nil {
					return nil, fmt.Errorf("tenant %s portfolio %q: %w", entry.ID, p.Name, err)
				}
				assetID++
				asset.ID = assetID
				r.assets[portfolioID] = append(r.assets[portfolioID], asset)
			}
		}
	}

	sort.Slice(r.tenants, func(i, j int) bool { return r.tenants[i].ID < r.tenants[j].ID })

	logger.Debug().
		Int("tenants", len(r.tenants)).
		Int("portfolios", int(portfolioID)).
		Int("assets", int(assetID)).
		Msg("Tenant document loaded")
	return r, nil
}

func (r *Repository) ListActiveTenants(ctx context.Context) ([]models.Tenant, error) {
	var active []models.Tenant
	for _, t := range r.tenants {
		if t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

func (r *Repository) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	for _, t := range r.tenants {
		if t.ID == tenantID {
			tenant := t
			return &tenant, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", interfaces.ErrTenantNotFound, tenantID)
}

func (r *Repository) LoadPortfolios(ctx context.Context, tenantID string) ([]models.Portfolio, error) {
	return append([]models.Portfolio(nil), r.portfolios[tenantID]...), nil
}

func (r *Repository) LoadAssets(ctx context.Context, portfolioID int64) ([]models.Asset, error) {
	return append([]models.Asset(nil), r.assets[portfolioID]...), nil
}
