package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-key", WithBaseURL(server.URL))
}

func TestClient_GetEOD(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eod/AAPL.US", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_token"))
		assert.Equal(t, "json", r.URL.Query().Get("fmt"))
		assert.Equal(t, "d", r.URL.Query().Get("period"))
		w.Write([]byte(`[
			{"date":"2025-01-02","open":1,"high":2,"low":0.5,"close":1.5,"adjusted_close":1.5,"volume":100},
			{"date":"2025-01-03","open":"1.5","high":"2.5","low":"1","close":"2","adjusted_close":"2","volume":200}
		]`))
	})

	bars, err := client.GetEOD(context.Background(), "AAPL.US")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 2025, bars[0].Date.Year())
	assert.Equal(t, 2.0, bars[1].Close.Float64())
	assert.Equal(t, int64(200), bars[1].Volume)
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte("quota exceeded"))
	})

	_, err := client.GetFundamentals(context.Background(), "AAPL.US")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Equal(t, "/fundamentals/AAPL.US", apiErr.Endpoint)
	assert.Contains(t, apiErr.Error(), "quota exceeded")
}

func TestClient_GetFundamentals(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fundamentalsFilter, r.URL.Query().Get("filter"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"General": map[string]interface{}{
				"Code": "AAPL", "Name": "Apple Inc", "Sector": "Technology", "CurrencyCode": "USD",
			},
			"Highlights": map[string]interface{}{"MarketCapitalization": 3.1e12},
			"Financials": map[string]interface{}{
				"Income_Statement": map[string]interface{}{
					"currency_symbol": "USD",
					"yearly": map[string]interface{}{
						"2024-09-30": map[string]interface{}{"date": "2024-09-30", "totalRevenue": "391035000000.00", "netIncome": nil},
					},
				},
			},
		})
	})

	f, err := client.GetFundamentals(context.Background(), "AAPL.US")
	require.NoError(t, err)
	require.NotNil(t, f.General)
	assert.Equal(t, "Apple Inc", f.General.Name)
	assert.Equal(t, 3.1e12, f.Highlights.MarketCapitalization.Float64())

	yearly := f.Financials.IncomeStatement.Yearly["2024-09-30"]
	assert.Equal(t, 391035000000.0, yearly["totalRevenue"].Float64())
	assert.Equal(t, 0.0, yearly["netIncome"].Float64())
	assert.Equal(t, 0.0, yearly["date"].Float64())
}

func TestClient_GetNewsParsesDates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NVDA.US", r.URL.Query().Get("s"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(`[
			{"date":"2025-03-01T14:30:00+00:00","title":"A","content":"<p>x</p>","link":"https://a"},
			{"date":"2025-03-02 09:00:00","title":"B","content":"y","link":"https://b"}
		]`))
	})

	news, err := client.GetNews(context.Background(), []string{"NVDA.US"}, WithLimit(10))
	require.NoError(t, err)
	require.Len(t, news, 2)
	assert.Equal(t, 14, news[0].Date.Hour())
	assert.Equal(t, 2, news[1].Date.Day())
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	var values struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":1.5,"b":"2.25","c":"NA","d":null}`), &values))
	assert.Equal(t, 1.5, values.A.Float64())
	assert.Equal(t, 2.25, values.B.Float64())
	assert.Equal(t, 0.0, values.C.Float64())
	assert.Equal(t, 0.0, values.D.Float64())
}

func TestSymbol(t *testing.T) {
	tests := map[string]string{
		"NVDA":    "NVDA.US",
		"BTC-USD": "BTC-USD.CC",
		"^GSPC":   "GSPC.INDX",
		"BRK.B":   "BRK-B.US",
		"":        "",
	}
	for input, want := range tests {
		assert.Equal(t, want, Symbol(input), input)
	}
}
