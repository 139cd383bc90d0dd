package market

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/foliogen/internal/eodhd"
	"github.com/ternarybob/foliogen/internal/models"
)

// ProviderEODHD is the registered name of the EODHD provider.
const ProviderEODHD = "eodhd"

// maxStatementPeriods caps the yearly periods kept from EODHD statements.
const maxStatementPeriods = 4

// defaultFundamentalsTTL bounds how long one fundamentals response serves
// both the profile and statements categories of a symbol.
const defaultFundamentalsTTL = 10 * time.Minute

// EODHDOptions configures the EODHD provider.
type EODHDOptions struct {
	ProbeSymbol string
	HistoryDays int
	NewsCount   int
	// FundamentalsTTL is how long a fundamentals response is reused.
	FundamentalsTTL time.Duration
	Now             func() time.Time
}

// EODHDProvider serves every category from EODHD.
type EODHDProvider struct {
	client  *eodhd.Client
	options EODHDOptions

	mu           sync.Mutex
	fundamentals map[string]cachedFundamentals
}

type cachedFundamentals struct {
	response  *eodhd.FundamentalsResponse
	fetchedAt time.Time
}

// NewEODHDProvider wraps an EODHD client.
func NewEODHDProvider(client *eodhd.Client, options EODHDOptions) *EODHDProvider {
	if options.ProbeSymbol == "" {
		options.ProbeSymbol = "AAPL"
	}
	if options.HistoryDays <= 0 {
		options.HistoryDays = 30
	}
	if options.NewsCount <= 0 {
		options.NewsCount = 10
	}
	if options.FundamentalsTTL <= 0 {
		options.FundamentalsTTL = defaultFundamentalsTTL
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	return &EODHDProvider{
		client:       client,
		options:      options,
		fundamentals: make(map[string]cachedFundamentals),
	}
}

func (p *EODHDProvider) Name() string { return ProviderEODHD }

func (p *EODHDProvider) Supports(category models.Category) bool { return category.IsValid() }

func (p *EODHDProvider) Verify(ctx context.Context) error {
	if _, err := p.client.GetRealTimeQuote(ctx, eodhd.Symbol(p.options.ProbeSymbol)); err != nil {
		return fmt.Errorf("eodhd probe %s: %w", p.options.ProbeSymbol, err)
	}
	return nil
}

// getFundamentals serves profile and statements from one upstream call per
// symbol. Failures are not cached.
func (p *EODHDProvider) getFundamentals(ctx context.Context, symbol string) (*eodhd.FundamentalsResponse, error) {
	now := p.options.Now()

	p.mu.Lock()
	entry, ok := p.fundamentals[symbol]
	p.mu.Unlock()
	if ok && now.Sub(entry.fetchedAt) < p.options.FundamentalsTTL {
		return entry.response, nil
	}

	response, err := p.client.GetFundamentals(ctx, eodhd.Symbol(symbol))
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for cached, e := range p.fundamentals {
		if now.Sub(e.fetchedAt) >= p.options.FundamentalsTTL {
			delete(p.fundamentals, cached)
		}
	}
	p.fundamentals[symbol] = cachedFundamentals{response: response, fetchedAt: now}
	return response, nil
}

func (p *EODHDProvider) FetchProfile(ctx context.Context, symbol string) (*models.Profile, error) {
	fundamentals, err := p.getFundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if fundamentals.General == nil || fundamentals.General.Name == "" {
		return nil, fmt.Errorf("profile %s: no general data", symbol)
	}

	general := fundamentals.General
	profile := &models.Profile{
		Symbol:      symbol,
		Name:        general.Name,
		Exchange:    general.Exchange,
		Sector:      general.Sector,
		Industry:    general.Industry,
		Currency:    general.CurrencyCode,
		Description: general.Description,
	}
	if fundamentals.Highlights != nil {
		profile.MarketCap = fundamentals.Highlights.MarketCapitalization.Float64()
	}
	return profile, nil
}

func (p *EODHDProvider) FetchStatements(ctx context.Context, symbol string) (*models.Statements, error) {
	fundamentals, err := p.getFundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if fundamentals.Financials == nil {
		return nil, fmt.Errorf("statements %s: no financials", symbol)
	}

	financials := fundamentals.Financials
	statements := &models.Statements{
		Income:   eodhdStatementTable(financials.IncomeStatement),
		Balance:  eodhdStatementTable(financials.BalanceSheet),
		CashFlow: eodhdStatementTable(financials.CashFlow),
	}
	if financials.IncomeStatement != nil {
		statements.Currency = financials.IncomeStatement.Currency
	}
	if statements.Empty() {
		return nil, fmt.Errorf("statements %s: no statement data", symbol)
	}
	return statements, nil
}

func (p *EODHDProvider) FetchPrices(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	to := p.options.Now().UTC()
	// Calendar window wide enough to cover the requested trading days
	from := to.AddDate(0, 0, -(p.options.HistoryDays*7/5 + 7))

	bars, err := p.client.GetEOD(ctx, eodhd.Symbol(symbol), eodhd.WithDateRange(from, to))
	if err != nil {
		return nil, err
	}

	daily := make([]models.PriceBar, 0, len(bars))
	for _, bar := range bars {
		daily = append(daily, models.PriceBar{
			Time:   bar.Date,
			Open:   bar.Open.Float64(),
			High:   bar.High.Float64(),
			Low:    bar.Low.Float64(),
			Close:  bar.Close.Float64(),
			Volume: bar.Volume,
		})
	}
	if len(daily) == 0 {
		return nil, fmt.Errorf("prices %s: no bars", symbol)
	}

	return &models.PriceHistory{Daily: tail(daily, p.options.HistoryDays)}, nil
}

func (p *EODHDProvider) FetchNews(ctx context.Context, symbol string) ([]models.NewsItem, error) {
	items, err := p.client.GetNews(ctx, []string{eodhd.Symbol(symbol)}, eodhd.WithLimit(p.options.NewsCount))
	if err != nil {
		return nil, err
	}

	news := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		news = append(news, models.NewsItem{
			Title:       item.Title,
			Publisher:   "EODHD",
			Link:        item.Link,
			Summary:     item.Content,
			PublishedAt: item.Date,
		})
	}
	return news, nil
}

// eodhdStatementTable keeps the newest yearly periods.
func eodhdStatementTable(statement *eodhd.FinancialStatement) models.StatementTable {
	var table models.StatementTable
	if statement == nil {
		return table
	}

	dates := make([]string, 0, len(statement.Yearly))
	for date := range statement.Yearly {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) > maxStatementPeriods {
		dates = dates[:maxStatementPeriods]
	}

	for _, date := range dates {
		period := models.StatementPeriod{Date: date, Values: make(map[string]float64)}
		for key, value := range statement.Yearly[date] {
			switch key {
			case "date", "filing_date", "currency_symbol":
				continue
			}
			period.Values[key] = value.Float64()
		}
		table.Periods = append(table.Periods, period)
	}
	return table
}
