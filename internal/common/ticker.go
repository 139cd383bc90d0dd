// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// SymbolRule identifies which normalization rule matched a raw symbol.
type SymbolRule string

const (
	SymbolRuleOverride  SymbolRule = "override"
	SymbolRuleSuffix    SymbolRule = "suffix"
	SymbolRuleCrypto    SymbolRule = "crypto"
	SymbolRuleCommodity SymbolRule = "commodity"
	SymbolRuleUnchanged SymbolRule = "unchanged"
)

// SymbolOverrides maps known-bad stored symbols to their canonical form.
// Keys are the full stored string, including any exchange suffix.
var SymbolOverrides = map[string]string{
	// Frankfurt listings whose root differs from (or is ambiguous with) the US root
	"NVD.F":   "NVDA",
	"NVDA.F":  "NVDA",
	"GOOGL.F": "GOOGL",
	"GOOG.F":  "GOOGL",
	"AAPL.F":  "AAPL",
	"MSFT.F":  "MSFT",
	"AMZN.F":  "AMZN",
	"TSLA.F":  "TSLA",
	"META.F":  "META",
	"NFLX.F":  "NFLX",

	// Indices
	"^SPX": "^GSPC",
}

// ExchangeSuffixes lists the exchange codes stripped from BASE.SUFFIX symbols.
var ExchangeSuffixes = map[string]string{
	"F":  "Frankfurt",
	"DE": "Xetra",
	"L":  "London",
	"PA": "Paris",
	"AS": "Amsterdam",
	"MI": "Milan",
	"MC": "Madrid",
	"SW": "Switzerland",
	"TO": "Toronto",
	"AX": "Australia",
	"HK": "Hong Kong",
	"T":  "Tokyo",
}

// CryptoCodes are the base codes rewritten from CODEUSD to CODE-USD.
var CryptoCodes = map[string]bool{
	"BTC":   true,
	"ETH":   true,
	"ADA":   true,
	"SOL":   true,
	"DOT":   true,
	"DOGE":  true,
	"MATIC": true,
	"XRP":   true,
	"LINK":  true,
	"LTC":   true,
	"UNI":   true,
	"XLM":   true,
}

// CommoditySymbols maps commodity pairs to their provider symbol.
// Spot gold and silver have no quoted pair, so they resolve to the tracking ETFs.
var CommoditySymbols = map[string]string{
	"PAXGUSD":   "PAXG-USD",
	"GOLDUSD":   "GOLD-USD",
	"SILVERUSD": "SILVER-USD",
	"XAUUSD":    "GLD",
	"XAGUSD":    "SLV",
}

// NormalizeSymbol maps a stored symbol to the canonical provider symbol.
// It never fails: unknown symbols are returned trimmed and uppercased.
//
//	NormalizeSymbol("NVD.F")   -> "NVDA"
//	NormalizeSymbol("AAPL.DE") -> "AAPL"
//	NormalizeSymbol("BTCUSD")  -> "BTC-USD"
//	NormalizeSymbol("PAXGUSD") -> "PAXG-USD"
func NormalizeSymbol(raw string) string {
	symbol, _ := ClassifySymbol(raw)
	return symbol
}

// ClassifySymbol normalizes raw and reports the first rule that matched.
// Rules are re-applied until the symbol stops changing, so the result is
// always a fixed point: NormalizeSymbol(NormalizeSymbol(x)) == NormalizeSymbol(x).
func ClassifySymbol(raw string) (string, SymbolRule) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	matched := SymbolRuleUnchanged

	// Terminates: every rule either shortens the symbol or yields a terminal form
	for {
		next, rule := applySymbolRule(symbol)
		if rule == SymbolRuleUnchanged || next == symbol {
			break
		}
		if matched == SymbolRuleUnchanged {
			matched = rule
		}
		symbol = next
	}

	return symbol, matched
}

// applySymbolRule applies the first matching rule in precedence order:
// override > suffix strip > crypto/commodity > unchanged.
func applySymbolRule(symbol string) (string, SymbolRule) {
	if symbol == "" {
		return symbol, SymbolRuleUnchanged
	}

	if canonical, ok := SymbolOverrides[symbol]; ok {
		return canonical, SymbolRuleOverride
	}

	if base, ok := stripExchangeSuffix(symbol); ok {
		return base, SymbolRuleSuffix
	}

	if code, ok := strings.CutSuffix(symbol, "USD"); ok && code != "" {
		if CryptoCodes[code] {
			return code + "-USD", SymbolRuleCrypto
		}
		if canonical, ok := CommoditySymbols[symbol]; ok {
			return canonical, SymbolRuleCommodity
		}
	}

	return symbol, SymbolRuleUnchanged
}

// stripExchangeSuffix returns BASE for BASE.SUFFIX when SUFFIX is a known exchange.
// Class-share dots such as BRK.B are left alone.
func stripExchangeSuffix(symbol string) (string, bool) {
	idx := strings.LastIndex(symbol, ".")
	if idx <= 0 || idx == len(symbol)-1 {
		return "", false
	}
	if _, ok := ExchangeSuffixes[symbol[idx+1:]]; !ok {
		return "", false
	}
	return symbol[:idx], true
}

// NormalizeSymbols normalizes and deduplicates symbols, preserving first-seen order.
func NormalizeSymbols(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	result := make([]string, 0, len(raw))
	for _, r := range raw {
		symbol := NormalizeSymbol(r)
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		result = append(result, symbol)
	}
	return result
}
