package yahoo

import (
	"bytes"
	"encoding/json"
)

// Value is Yahoo's {"raw": 1.0, "fmt": "1.00"} number wrapper.
// Bare numbers decode into Raw; anything else decodes to zero.
type Value struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '{':
		var wrapped struct {
			Raw float64 `json:"raw"`
			Fmt string  `json:"fmt"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		v.Raw, v.Fmt = wrapped.Raw, wrapped.Fmt
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return json.Unmarshal(data, &v.Raw)
	}
	return nil
}

type errorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ChartResponse is the /v8/finance/chart envelope.
type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *errorBody    `json:"error"`
	} `json:"chart"`
}

// ChartResult holds one symbol's bars. Indicator slices align with Timestamp and may hold nulls.
type ChartResult struct {
	Meta struct {
		Currency           string  `json:"currency"`
		Symbol             string  `json:"symbol"`
		ExchangeName       string  `json:"exchangeName"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// QuoteSummaryResponse is the /v10/finance/quoteSummary envelope.
type QuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []QuoteSummaryResult `json:"result"`
		Error  *errorBody           `json:"error"`
	} `json:"quoteSummary"`
}

// StatementEntry is one period of a statement module; "endDate" carries the period end.
type StatementEntry map[string]Value

// QuoteSummaryResult holds the requested modules; unrequested modules stay nil.
type QuoteSummaryResult struct {
	Price *struct {
		Symbol                     string `json:"symbol"`
		LongName                   string `json:"longName"`
		ShortName                  string `json:"shortName"`
		Currency                   string `json:"currency"`
		ExchangeName               string `json:"exchangeName"`
		QuoteType                  string `json:"quoteType"`
		RegularMarketPrice         Value  `json:"regularMarketPrice"`
		RegularMarketPreviousClose Value  `json:"regularMarketPreviousClose"`
		MarketCap                  Value  `json:"marketCap"`
	} `json:"price"`
	AssetProfile *struct {
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		LongBusinessSummary string `json:"longBusinessSummary"`
		Website             string `json:"website"`
	} `json:"assetProfile"`
	IncomeStatementHistory *struct {
		Statements []StatementEntry `json:"incomeStatementHistory"`
	} `json:"incomeStatementHistory"`
	BalanceSheetHistory *struct {
		Statements []StatementEntry `json:"balanceSheetStatements"`
	} `json:"balanceSheetHistory"`
	CashflowStatementHistory *struct {
		Statements []StatementEntry `json:"cashflowStatements"`
	} `json:"cashflowStatementHistory"`
}

// SearchResponse is the /v1/finance/search envelope; only news is used.
type SearchResponse struct {
	News []SearchNews `json:"news"`
}

// SearchNews is one news hit.
type SearchNews struct {
	UUID                string `json:"uuid"`
	Title               string `json:"title"`
	Publisher           string `json:"publisher"`
	Link                string `json:"link"`
	ProviderPublishTime int64  `json:"providerPublishTime"`
	Type                string `json:"type"`
}
