package models

import "time"

// Category is one independently fetched block of market data.
type Category string

const (
	CategoryProfile    Category = "profile"
	CategoryStatements Category = "statements"
	CategoryPrices     Category = "prices"
	CategoryNews       Category = "news"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryProfile,
	CategoryStatements,
	CategoryPrices,
	CategoryNews,
}

// Title returns the section heading used in reports.
func (c Category) Title() string {
	switch c {
	case CategoryProfile:
		return "Profile"
	case CategoryStatements:
		return "Financial Statements"
	case CategoryPrices:
		return "Price History"
	case CategoryNews:
		return "Recent News"
	default:
		return string(c)
	}
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Profile holds company or instrument reference data.
type Profile struct {
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	Exchange    string  `json:"exchange"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	Currency    string  `json:"currency"`
	MarketCap   float64 `json:"market_cap"`
	LastClose   float64 `json:"last_close"`
	Description string  `json:"description"`
}

// StatementPeriod is one reporting period of a financial statement.
type StatementPeriod struct {
	Date   string             `json:"date"` // YYYY-MM-DD period end
	Values map[string]float64 `json:"values"`
}

// StatementTable is one financial statement, newest period first.
type StatementTable struct {
	Periods []StatementPeriod `json:"periods"`
}

// Empty reports whether the table has no values.
func (t StatementTable) Empty() bool {
	for _, p := range t.Periods {
		if len(p.Values) > 0 {
			return false
		}
	}
	return true
}

// Statements groups the three annual statements.
type Statements struct {
	Currency string         `json:"currency"`
	Income   StatementTable `json:"income"`
	Balance  StatementTable `json:"balance"`
	CashFlow StatementTable `json:"cash_flow"`
}

// Empty reports whether no statement carries data.
func (s Statements) Empty() bool {
	return s.Income.Empty() && s.Balance.Empty() && s.CashFlow.Empty()
}

// PriceBar is one OHLCV bar.
type PriceBar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceHistory holds daily bars and optional intraday bars, oldest first.
type PriceHistory struct {
	Currency string     `json:"currency"`
	Daily    []PriceBar `json:"daily"`
	Intraday []PriceBar `json:"intraday"`
}

// NewsItem is one article about a symbol.
type NewsItem struct {
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary"` // may contain HTML
	PublishedAt time.Time `json:"published_at"`
}

// FetchResult is the outcome of one category fetch for one symbol.
// Exactly one payload field is set when Err is nil.
type FetchResult struct {
	Symbol     string
	Category   Category
	Provider   string
	Err        error
	Profile    *Profile
	Statements *Statements
	Prices     *PriceHistory
	News       []NewsItem
}

// OK reports whether the fetch succeeded.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// Reason returns the failure reason, or "" on success.
func (r FetchResult) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
