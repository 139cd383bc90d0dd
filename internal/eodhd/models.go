package eodhd

import (
	"time"
)

// EODData represents a single day's end-of-day price data.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          Number    `json:"open"`
	High          Number    `json:"high"`
	Low           Number    `json:"low"`
	Close         Number    `json:"close"`
	AdjustedClose Number    `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// EODResponse is a slice of EODData.
type EODResponse []EODData

// IntradayData represents one intraday bar.
type IntradayData struct {
	Timestamp int64  `json:"timestamp"`
	Datetime  string `json:"datetime"`
	Open      Number `json:"open"`
	High      Number `json:"high"`
	Low       Number `json:"low"`
	Close     Number `json:"close"`
	Volume    int64  `json:"volume"`
}

// IntradayResponse is a slice of IntradayData.
type IntradayResponse []IntradayData

// RealTimeQuote is the delayed quote returned by /real-time.
type RealTimeQuote struct {
	Code          string `json:"code"`
	Timestamp     int64  `json:"timestamp"`
	Open          Number `json:"open"`
	High          Number `json:"high"`
	Low           Number `json:"low"`
	Close         Number `json:"close"`
	Volume        Number `json:"volume"`
	PreviousClose Number `json:"previousClose"`
	Change        Number `json:"change"`
}

// NewsItem represents a single news article.
type NewsItem struct {
	Date    time.Time `json:"-"`
	DateStr string    `json:"date"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Link    string    `json:"link"`
	Symbols []string  `json:"symbols"`
	Tags    []string  `json:"tags"`
}

// NewsResponse is a slice of NewsItem.
type NewsResponse []NewsItem

// FundamentalsResponse is the subset of /fundamentals used for reports.
type FundamentalsResponse struct {
	General    *GeneralInfo `json:"General"`
	Highlights *Highlights  `json:"Highlights"`
	Financials *Financials  `json:"Financials"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code         string `json:"Code"`
	Type         string `json:"Type"`
	Name         string `json:"Name"`
	Exchange     string `json:"Exchange"`
	CurrencyCode string `json:"CurrencyCode"`
	Sector       string `json:"Sector"`
	Industry     string `json:"Industry"`
	Description  string `json:"Description"`
	WebURL       string `json:"WebURL"`
}

// Highlights contains key financial highlights.
type Highlights struct {
	MarketCapitalization Number `json:"MarketCapitalization"`
	PERatio              Number `json:"PERatio"`
	EarningsShare        Number `json:"EarningsShare"`
	DividendYield        Number `json:"DividendYield"`
}

// Financials contains financial statements.
type Financials struct {
	BalanceSheet    *FinancialStatement `json:"Balance_Sheet"`
	CashFlow        *FinancialStatement `json:"Cash_Flow"`
	IncomeStatement *FinancialStatement `json:"Income_Statement"`
}

// FinancialStatement holds statement lines keyed by period end date.
// Values are numeric strings or null.
type FinancialStatement struct {
	Currency  string                       `json:"currency_symbol"`
	Quarterly map[string]map[string]Number `json:"quarterly"`
	Yearly    map[string]map[string]Number `json:"yearly"`
}
