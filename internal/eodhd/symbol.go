package eodhd

import "strings"

// Symbol converts a canonical (Yahoo-style) symbol to EODHD's TICKER.EXCHANGE form.
//
//	"NVDA"    -> "NVDA.US"
//	"BTC-USD" -> "BTC-USD.CC"
//	"^GSPC"   -> "GSPC.INDX"
//	"BRK.B"   -> "BRK-B.US"
func Symbol(canonical string) string {
	symbol := strings.ToUpper(strings.TrimSpace(canonical))
	switch {
	case symbol == "":
		return ""
	case strings.HasPrefix(symbol, "^"):
		return strings.TrimPrefix(symbol, "^") + ".INDX"
	case strings.HasSuffix(symbol, "-USD"):
		return symbol + ".CC"
	default:
		return strings.ReplaceAll(symbol, ".", "-") + ".US"
	}
}
