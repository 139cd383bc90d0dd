package market

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/foliogen/internal/models"
	"github.com/ternarybob/foliogen/internal/yahoo"
)

// ProviderYahoo is the registered name of the Yahoo provider.
const ProviderYahoo = "yahoo"

// YahooOptions configures the Yahoo provider.
type YahooOptions struct {
	ProbeSymbol string
	HistoryDays int
	Intraday    bool
	NewsCount   int
}

// YahooProvider serves every category from Yahoo Finance.
type YahooProvider struct {
	client  *yahoo.Client
	options YahooOptions
}

// NewYahooProvider wraps a Yahoo client.
func NewYahooProvider(client *yahoo.Client, options YahooOptions) *YahooProvider {
	if options.ProbeSymbol == "" {
		options.ProbeSymbol = "AAPL"
	}
	if options.HistoryDays <= 0 {
		options.HistoryDays = 30
	}
	if options.NewsCount <= 0 {
		options.NewsCount = 10
	}
	return &YahooProvider{client: client, options: options}
}

func (p *YahooProvider) Name() string { return ProviderYahoo }

func (p *YahooProvider) Supports(category models.Category) bool { return category.IsValid() }

func (p *YahooProvider) Verify(ctx context.Context) error {
	if _, err := p.client.GetChart(ctx, p.options.ProbeSymbol, "5d", "1d"); err != nil {
		return fmt.Errorf("yahoo probe %s: %w", p.options.ProbeSymbol, err)
	}
	return nil
}

func (p *YahooProvider) FetchProfile(ctx context.Context, symbol string) (*models.Profile, error) {
	summary, err := p.client.GetQuoteSummary(ctx, symbol, "price", "assetProfile")
	if err != nil {
		return nil, err
	}
	if summary.Price == nil {
		return nil, fmt.Errorf("profile %s: %w", symbol, yahoo.ErrNoData)
	}

	profile := &models.Profile{
		Symbol:    summary.Price.Symbol,
		Name:      firstNonEmpty(summary.Price.LongName, summary.Price.ShortName),
		Exchange:  summary.Price.ExchangeName,
		Currency:  summary.Price.Currency,
		MarketCap: summary.Price.MarketCap.Raw,
		LastClose: summary.Price.RegularMarketPrice.Raw,
	}
	if profile.Symbol == "" {
		profile.Symbol = symbol
	}
	if profile.LastClose == 0 {
		profile.LastClose = summary.Price.RegularMarketPreviousClose.Raw
	}
	if summary.AssetProfile != nil {
		profile.Sector = summary.AssetProfile.Sector
		profile.Industry = summary.AssetProfile.Industry
		profile.Description = summary.AssetProfile.LongBusinessSummary
	}
	return profile, nil
}

func (p *YahooProvider) FetchStatements(ctx context.Context, symbol string) (*models.Statements, error) {
	summary, err := p.client.GetQuoteSummary(ctx, symbol,
		"incomeStatementHistory", "balanceSheetHistory", "cashflowStatementHistory")
	if err != nil {
		return nil, err
	}

	statements := &models.Statements{}
	if summary.IncomeStatementHistory != nil {
		statements.Income = yahooStatementTable(summary.IncomeStatementHistory.Statements)
	}
	if summary.BalanceSheetHistory != nil {
		statements.Balance = yahooStatementTable(summary.BalanceSheetHistory.Statements)
	}
	if summary.CashflowStatementHistory != nil {
		statements.CashFlow = yahooStatementTable(summary.CashflowStatementHistory.Statements)
	}

	if statements.Empty() {
		return nil, fmt.Errorf("statements %s: %w", symbol, yahoo.ErrNoData)
	}
	return statements, nil
}

func (p *YahooProvider) FetchPrices(ctx context.Context, symbol string) (*models.PriceHistory, error) {
	daily, err := p.client.GetChart(ctx, symbol, chartRange(p.options.HistoryDays), "1d")
	if err != nil {
		return nil, err
	}

	history := &models.PriceHistory{
		Currency: daily.Meta.Currency,
		Daily:    tail(chartBars(daily), p.options.HistoryDays),
	}
	if len(history.Daily) == 0 {
		return nil, fmt.Errorf("prices %s: %w", symbol, yahoo.ErrNoData)
	}

	// Intraday is supplementary; a failure here keeps the daily bars
	if p.options.Intraday {
		if intraday, err := p.client.GetChart(ctx, symbol, "5d", "1h"); err == nil {
			history.Intraday = tail(chartBars(intraday), 100)
		}
	}

	return history, nil
}

func (p *YahooProvider) FetchNews(ctx context.Context, symbol string) ([]models.NewsItem, error) {
	hits, err := p.client.SearchNews(ctx, symbol, p.options.NewsCount)
	if err != nil {
		return nil, err
	}

	news := make([]models.NewsItem, 0, len(hits))
	for _, hit := range hits {
		news = append(news, models.NewsItem{
			Title:       hit.Title,
			Publisher:   hit.Publisher,
			Link:        hit.Link,
			PublishedAt: time.Unix(hit.ProviderPublishTime, 0).UTC(),
		})
	}
	return news, nil
}

// yahooStatementTable converts quoteSummary statement entries, newest period first.
func yahooStatementTable(entries []yahoo.StatementEntry) models.StatementTable {
	var table models.StatementTable
	for _, entry := range entries {
		period := models.StatementPeriod{
			Date:   entry["endDate"].Fmt,
			Values: make(map[string]float64, len(entry)),
		}
		for key, value := range entry {
			if key == "endDate" || key == "maxAge" {
				continue
			}
			period.Values[key] = value.Raw
		}
		table.Periods = append(table.Periods, period)
	}
	sort.SliceStable(table.Periods, func(i, j int) bool {
		return table.Periods[i].Date > table.Periods[j].Date
	})
	return table
}

// chartBars zips a chart result into bars, dropping rows without a close.
func chartBars(chart *yahoo.ChartResult) []models.PriceBar {
	if chart == nil || len(chart.Indicators.Quote) == 0 {
		return nil
	}
	quote := chart.Indicators.Quote[0]

	bars := make([]models.PriceBar, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		close := floatAt(quote.Close, i)
		if close == nil {
			continue
		}
		bar := models.PriceBar{
			Time:  time.Unix(ts, 0).UTC(),
			Close: *close,
		}
		if v := floatAt(quote.Open, i); v != nil {
			bar.Open = *v
		}
		if v := floatAt(quote.High, i); v != nil {
			bar.High = *v
		}
		if v := floatAt(quote.Low, i); v != nil {
			bar.Low = *v
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}
	return bars
}

func floatAt(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

// chartRange picks the smallest Yahoo range covering days trading days.
func chartRange(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 20:
		return "1mo"
	case days <= 60:
		return "3mo"
	case days <= 120:
		return "6mo"
	case days <= 250:
		return "1y"
	default:
		return "2y"
	}
}
