package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/foliogen/internal/eodhd"
	"github.com/ternarybob/foliogen/internal/yahoo"
)

func newYahooTestProvider(t *testing.T, mux *http.ServeMux, options YahooOptions) *YahooProvider {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := yahoo.NewClient(yahoo.WithBaseURL(server.URL), yahoo.WithSessionURL(""))
	return NewYahooProvider(client, options)
}

func TestYahooProvider_FetchStatementsNewestFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v10/finance/quoteSummary/NVDA", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{
			"incomeStatementHistory":{"incomeStatementHistory":[
				{"maxAge":1,"endDate":{"raw":1,"fmt":"2023-01-29"},"totalRevenue":{"raw":26974000000}},
				{"maxAge":1,"endDate":{"raw":2,"fmt":"2024-01-28"},"totalRevenue":{"raw":60922000000},"netIncome":{"raw":29760000000}}
			]},
			"balanceSheetHistory":{"balanceSheetStatements":[]},
			"cashflowStatementHistory":{"cashflowStatements":[]}
		}],"error":null}}`))
	})

	statements, err := newYahooTestProvider(t, mux, YahooOptions{}).FetchStatements(context.Background(), "NVDA")
	require.NoError(t, err)
	require.Len(t, statements.Income.Periods, 2)
	assert.Equal(t, "2024-01-28", statements.Income.Periods[0].Date)
	assert.Equal(t, 60922000000.0, statements.Income.Periods[0].Values["totalRevenue"])
	assert.NotContains(t, statements.Income.Periods[0].Values, "maxAge")
	assert.True(t, statements.Balance.Empty())
}

func TestYahooProvider_FetchStatementsEmptyIsError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v10/finance/quoteSummary/BTC-USD", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{}],"error":null}}`))
	})

	_, err := newYahooTestProvider(t, mux, YahooOptions{}).FetchStatements(context.Background(), "BTC-USD")
	assert.ErrorIs(t, err, yahoo.ErrNoData)
}

func TestYahooProvider_FetchPricesKeepsLastDays(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v8/finance/chart/AAPL", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5d", r.URL.Query().Get("range"))
		w.Write([]byte(`{"chart":{"result":[{
			"meta":{"currency":"USD"},
			"timestamp":[1,2,3,4],
			"indicators":{"quote":[{"open":[1,2,null,4],"high":[1,2,null,4],"low":[1,2,null,4],"close":[1,2,null,4],"volume":[1,2,null,4]}]}
		}],"error":null}}`))
	})

	prices, err := newYahooTestProvider(t, mux, YahooOptions{HistoryDays: 2}).FetchPrices(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "USD", prices.Currency)
	require.Len(t, prices.Daily, 2)
	assert.Equal(t, 2.0, prices.Daily[0].Close)
	assert.Equal(t, 4.0, prices.Daily[1].Close)
	assert.Empty(t, prices.Intraday)
}

func TestEODHDProvider_FetchStatementsKeepsFourYears(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fundamentals/AAPL.US", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"General":{"Name":"Apple Inc"},"Financials":{"Income_Statement":{"currency_symbol":"USD","yearly":{
			"2020-09-30":{"date":"2020-09-30","totalRevenue":"274515000000.00"},
			"2021-09-30":{"date":"2021-09-30","totalRevenue":"365817000000.00"},
			"2022-09-30":{"date":"2022-09-30","totalRevenue":"394328000000.00"},
			"2023-09-30":{"date":"2023-09-30","totalRevenue":"383285000000.00"},
			"2024-09-30":{"date":"2024-09-30","totalRevenue":"391035000000.00","netIncome":null}
		}}}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	provider := NewEODHDProvider(eodhd.NewClient("key", eodhd.WithBaseURL(server.URL)), EODHDOptions{})
	statements, err := provider.FetchStatements(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Len(t, statements.Income.Periods, 4)
	assert.Equal(t, "2024-09-30", statements.Income.Periods[0].Date)
	assert.Equal(t, "2021-09-30", statements.Income.Periods[3].Date)
	assert.Equal(t, 391035000000.0, statements.Income.Periods[0].Values["totalRevenue"])
	assert.NotContains(t, statements.Income.Periods[0].Values, "date")
	assert.Equal(t, "USD", statements.Currency)
}

func TestEODHDProvider_FundamentalsFetchedOncePerSymbol(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/fundamentals/MSFT.US", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"General":{"Name":"Microsoft Corp","CurrencyCode":"USD"},"Financials":{"Income_Statement":{"currency_symbol":"USD","yearly":{
			"2024-06-30":{"date":"2024-06-30","totalRevenue":"245122000000.00"}
		}}}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	provider := NewEODHDProvider(eodhd.NewClient("key", eodhd.WithBaseURL(server.URL)),
		EODHDOptions{FundamentalsTTL: time.Minute, Now: func() time.Time { return now }})

	tests := []struct {
		name      string
		advance   time.Duration
		wantCalls int32
	}{
		{name: "first fetch", wantCalls: 1},
		{name: "within ttl", advance: 30 * time.Second, wantCalls: 1},
		{name: "after ttl", advance: time.Minute, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = now.Add(tt.advance)

			profile, err := provider.FetchProfile(context.Background(), "MSFT")
			require.NoError(t, err)
			assert.Equal(t, "Microsoft Corp", profile.Name)

			statements, err := provider.FetchStatements(context.Background(), "MSFT")
			require.NoError(t, err)
			require.Len(t, statements.Income.Periods, 1)

			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestEODHDProvider_FundamentalsFailureIsNotCached(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/fundamentals/TSLA.US", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"General":{"Name":"Tesla Inc"}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	provider := NewEODHDProvider(eodhd.NewClient("key", eodhd.WithBaseURL(server.URL)), EODHDOptions{})

	_, err := provider.FetchProfile(context.Background(), "TSLA")
	require.Error(t, err)

	profile, err := provider.FetchProfile(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "Tesla Inc", profile.Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEODHDProvider_FetchPricesUsesCanonicalMapping(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("/eod/BTC-USD.CC", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2025-03-14", r.URL.Query().Get("to"))
		w.Write([]byte(`[{"date":"2025-03-13","open":1,"high":2,"low":0.5,"close":1.5,"volume":100}]`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	provider := NewEODHDProvider(eodhd.NewClient("key", eodhd.WithBaseURL(server.URL)),
		EODHDOptions{Now: func() time.Time { return now }})
	prices, err := provider.FetchPrices(context.Background(), "BTC-USD")
	require.NoError(t, err)
	require.Len(t, prices.Daily, 1)
	assert.Equal(t, 1.5, prices.Daily[0].Close)
}

func TestChartRange(t *testing.T) {
	assert.Equal(t, "5d", chartRange(5))
	assert.Equal(t, "3mo", chartRange(30))
	assert.Equal(t, "1y", chartRange(200))
}
