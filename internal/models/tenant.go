package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Tenant is a client whose portfolios are processed and stored independently.
type Tenant struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns "First Last", or "Tenant {id}" when no name is stored.
func (t Tenant) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(t.FirstName) + " " + strings.TrimSpace(t.LastName))
	if name == "" {
		return "Tenant " + t.ID
	}
	return name
}

// Portfolio belongs to exactly one tenant and owns zero or more assets.
type Portfolio struct {
	ID          int64  `json:"id"`
	TenantID    string `json:"tenant_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Asset is a position as stored. Symbol is the raw stored form and is never rewritten.
type Asset struct {
	ID               int64           `json:"id"`
	PortfolioID      int64           `json:"portfolio_id"`
	Symbol           string          `json:"symbol"`
	Quantity         decimal.Decimal `json:"quantity"`
	AcquisitionPrice decimal.Decimal `json:"acquisition_price"`
	AcquisitionDate  *time.Time      `json:"acquisition_date,omitempty"`
}

// CostBasis returns quantity * acquisition price.
func (a Asset) CostBasis() decimal.Decimal {
	return a.Quantity.Mul(a.AcquisitionPrice)
}

// Holding aggregates every asset of one tenant that normalizes to the same symbol.
type Holding struct {
	Symbol     string          `json:"symbol"`
	RawSymbols []string        `json:"raw_symbols"`
	Portfolios []string        `json:"portfolios"`
	Quantity   decimal.Decimal `json:"quantity"`
	CostBasis  decimal.Decimal `json:"cost_basis"`
}
