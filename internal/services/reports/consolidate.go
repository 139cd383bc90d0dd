package reports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/foliogen/internal/models"
)

// Consolidate merges a tenant's asset reports into one document.
// Reports and holdings are ordered by symbol; the same input always yields
// the same bytes.
func (b *Builder) Consolidate(tenant models.Tenant, holdings []models.Holding, reports []models.AssetReport) models.ConsolidatedReport {
	ordered := make([]models.AssetReport, len(reports))
	copy(ordered, reports)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Symbol < ordered[j].Symbol })

	sortedHoldings := make([]models.Holding, len(holdings))
	copy(sortedHoldings, holdings)
	sort.SliceStable(sortedHoldings, func(i, j int) bool { return sortedHoldings[i].Symbol < sortedHoldings[j].Symbol })

	consolidated := models.ConsolidatedReport{
		TenantID:   tenant.ID,
		TenantName: tenant.DisplayName(),
		Holdings:   sortedHoldings,
	}
	for _, r := range ordered {
		consolidated.Symbols = append(consolidated.Symbols, r.Symbol)
		if r.Succeeded() {
			consolidated.Succeeded++
		} else {
			consolidated.Failed++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Consolidated Report: %s\n\n", consolidated.TenantName)
	fmt.Fprintf(&sb, "- Tenant: `%s`\n", tenant.ID)
	fmt.Fprintf(&sb, "- Symbols: %d\n", len(ordered))
	fmt.Fprintf(&sb, "- Succeeded: %d\n", consolidated.Succeeded)
	fmt.Fprintf(&sb, "- Failed: %d\n", consolidated.Failed)
	if len(consolidated.Symbols) > 0 {
		fmt.Fprintf(&sb, "- Coverage: %s\n", strings.Join(consolidated.Symbols, ", "))
	}

	if len(sortedHoldings) > 0 {
		sb.WriteString("\n## Holdings\n\n")
		rows := make([][]string, 0, len(sortedHoldings))
		for _, h := range sortedHoldings {
			rows = append(rows, []string{
				h.Symbol,
				formatQuantity(h.Quantity),
				formatMoney(h.CostBasis),
				cell(strings.Join(h.RawSymbols, ", ")),
				cell(strings.Join(h.Portfolios, ", ")),
			})
		}
		writeTable(&sb, []string{"Symbol", "Quantity", "Cost Basis", "Stored As", "Portfolios"}, rows)
	}

	if len(ordered) > 0 {
		sb.WriteString("\n## Data Availability\n\n")
		header := []string{"Symbol"}
		for _, c := range models.Categories {
			header = append(header, c.Title())
		}
		rows := make([][]string, 0, len(ordered))
		for _, r := range ordered {
			row := []string{r.Symbol}
			for _, c := range models.Categories {
				section, ok := r.Section(c)
				switch {
				case !ok || !section.Available:
					row = append(row, "unavailable")
				default:
					row = append(row, "ok")
				}
			}
			rows = append(rows, row)
		}
		writeTable(&sb, header, rows)
	}

	for _, r := range ordered {
		sb.WriteString("\n---\n\n")
		content := r.Content
		if content == "" {
			content = b.Render(r)
		}
		sb.WriteString(demoteHeadings(strings.TrimRight(content, "\n")) + "\n")
	}

	consolidated.Content = sb.String()
	return consolidated
}
