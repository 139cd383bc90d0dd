package common

import (
	"fmt"
	"regexp"
	"strings"
)

// ConsolidatedDocumentName is the fixed per-tenant name of the consolidated report.
const ConsolidatedDocumentName = "consolidated_report"

// AssetDocumentSuffix is appended to the canonical symbol to name a per-asset report.
const AssetDocumentSuffix = "_report"

var (
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	repeatedDashes  = regexp.MustCompile(`-{2,}`)
)

// SanitizeDocumentName replaces characters outside [A-Za-z0-9._-] with '-',
// collapses repeated dashes and trims them from the ends.
// Returns "report" when nothing usable is left.
func SanitizeDocumentName(name string) string {
	cleaned := unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "-")
	cleaned = repeatedDashes.ReplaceAllString(cleaned, "-")
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" || cleaned == "." || cleaned == ".." {
		return "report"
	}
	return cleaned
}

// IndexDocumentPrefix replaces the leading '^' of index symbols, so "^GSPC" and
// "GSPC" never share a document.
const IndexDocumentPrefix = "IDX-"

// AssetDocumentName returns the document name for a canonical symbol, e.g. "BTC-USD_report"
// or "IDX-GSPC_report" for "^GSPC".
func AssetDocumentName(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if index, ok := strings.CutPrefix(symbol, "^"); ok {
		symbol = IndexDocumentPrefix + index
	}
	return SanitizeDocumentName(symbol) + AssetDocumentSuffix
}

// ValidateDocumentName checks that name is a single opaque leaf.
// The same rule applies to tenant ids used as namespace keys.
func ValidateDocumentName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name is required")
	case name == "." || name == "..":
		return fmt.Errorf("name %q is not allowed", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name %q must not contain path separators", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("name %q must not contain NUL", name)
	}
	return nil
}

// ValidateDocumentKey validates both halves of a tenant-scoped document key.
func ValidateDocumentKey(tenantID, name string) error {
	if err := ValidateDocumentName(tenantID); err != nil {
		return fmt.Errorf("invalid tenant id: %w", err)
	}
	if err := ValidateDocumentName(name); err != nil {
		return fmt.Errorf("invalid document name: %w", err)
	}
	return nil
}
