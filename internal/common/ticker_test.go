package common

import (
	"testing"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input    string
		want     string
		wantRule SymbolRule
	}{
		// Overrides keyed by the full stored string
		{"NVD.F", "NVDA", SymbolRuleOverride},
		{"NVDA.F", "NVDA", SymbolRuleOverride},
		{"GOOG.F", "GOOGL", SymbolRuleOverride},
		{"^SPX", "^GSPC", SymbolRuleOverride},

		// Generic exchange suffix stripping
		{"AAPL.DE", "AAPL", SymbolRuleSuffix},
		{"VOD.L", "VOD", SymbolRuleSuffix},
		{"SAN.MC", "SAN", SymbolRuleSuffix},
		{"SHOP.TO", "SHOP", SymbolRuleSuffix},
		{"7203.T", "7203", SymbolRuleSuffix},
		{"0700.HK", "0700", SymbolRuleSuffix},

		// Crypto pairs
		{"BTCUSD", "BTC-USD", SymbolRuleCrypto},
		{"ETHUSD", "ETH-USD", SymbolRuleCrypto},
		{"DOGEUSD", "DOGE-USD", SymbolRuleCrypto},

		// Commodities
		{"PAXGUSD", "PAXG-USD", SymbolRuleCommodity},
		{"GOLDUSD", "GOLD-USD", SymbolRuleCommodity},
		{"XAUUSD", "GLD", SymbolRuleCommodity},
		{"XAGUSD", "SLV", SymbolRuleCommodity},

		// Unchanged
		{"NVDA", "NVDA", SymbolRuleUnchanged},
		{"BTC-USD", "BTC-USD", SymbolRuleUnchanged},
		{"BRK.B", "BRK.B", SymbolRuleUnchanged},
		{"EURUSD", "EURUSD", SymbolRuleUnchanged},
		{"USD", "USD", SymbolRuleUnchanged},
		{".F", ".F", SymbolRuleUnchanged},
		{"", "", SymbolRuleUnchanged},

		// Case and whitespace
		{"  nvd.f ", "NVDA", SymbolRuleOverride},
		{"btcusd", "BTC-USD", SymbolRuleCrypto},
		{" msft ", "MSFT", SymbolRuleUnchanged},

		// Compound forms settle on a fixed point
		{"BTCUSD.F", "BTC-USD", SymbolRuleSuffix},
		{"SAP.DE.F", "SAP", SymbolRuleSuffix},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, rule := ClassifySymbol(tt.input)
			if got != tt.want {
				t.Errorf("ClassifySymbol(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if rule != tt.wantRule {
				t.Errorf("ClassifySymbol(%q) rule = %q, want %q", tt.input, rule, tt.wantRule)
			}
			if NormalizeSymbol(tt.input) != tt.want {
				t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.input, NormalizeSymbol(tt.input), tt.want)
			}
		})
	}
}

func TestNormalizeSymbol_Idempotent(t *testing.T) {
	inputs := []string{
		"NVD.F", "NVDA", "AAPL.DE", "BTCUSD", "PAXGUSD", "XAUUSD", "^SPX", "BRK.B",
		"BTCUSD.F", "SAP.DE.F", "eth-usd", "  goog.f", "", "1234.HK", "LINKUSD.L",
		"AAPL.F.F.F.F.F.F.F.F.F.F", "BTCUSD.L.DE.PA.AS.MI.MC.SW.TO.AX.HK.T",
	}

	// Every table value must itself be a fixed point
	for key, value := range SymbolOverrides {
		inputs = append(inputs, key, value)
	}
	for key, value := range CommoditySymbols {
		inputs = append(inputs, key, value)
	}
	for code := range CryptoCodes {
		inputs = append(inputs, code+"USD", code+"-USD")
	}

	for _, input := range inputs {
		once := NormalizeSymbol(input)
		twice := NormalizeSymbol(once)
		if once != twice {
			t.Errorf("NormalizeSymbol not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestNormalizeSymbols(t *testing.T) {
	got := NormalizeSymbols([]string{"NVD.F", "NVDA", "  ", "aapl.de", "AAPL", "BTCUSD"})
	want := []string{"NVDA", "AAPL", "BTC-USD"}

	if len(got) != len(want) {
		t.Fatalf("NormalizeSymbols returned %d symbols, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
