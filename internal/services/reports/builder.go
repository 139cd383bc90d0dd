// -----------------------------------------------------------------------
// Asset report builder - one structured section per data category.
// Failed or missing categories render an explicit unavailable marker.
// Output carries no wall-clock content so identical input renders identically.
// -----------------------------------------------------------------------

package reports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/foliogen/internal/models"
)

// Options tunes report rendering.
type Options struct {
	HistoryDays      int // daily bars rendered
	IntradayBars     int
	StatementPeriods int
	NewsLimit        int
	DescriptionLimit int // runes
}

// DefaultOptions matches the report layout of the batch job.
func DefaultOptions() Options {
	return Options{
		HistoryDays:      30,
		IntradayBars:     100,
		StatementPeriods: 4,
		NewsLimit:        10,
		DescriptionLimit: 500,
	}
}

// Builder turns fetch results into asset reports and consolidated reports.
type Builder struct {
	options Options
	markup  *markup
}

// NewBuilder creates a builder; zero option fields take their defaults.
func NewBuilder(options Options) *Builder {
	defaults := DefaultOptions()
	if options.HistoryDays <= 0 {
		options.HistoryDays = defaults.HistoryDays
	}
	if options.IntradayBars <= 0 {
		options.IntradayBars = defaults.IntradayBars
	}
	if options.StatementPeriods <= 0 {
		options.StatementPeriods = defaults.StatementPeriods
	}
	if options.NewsLimit <= 0 {
		options.NewsLimit = defaults.NewsLimit
	}
	if options.DescriptionLimit <= 0 {
		options.DescriptionLimit = defaults.DescriptionLimit
	}
	return &Builder{options: options, markup: newMarkup()}
}

// BuildAssetReport combines whichever categories succeeded for symbol.
// Every category gets a section; categories without a result are marked
// unavailable as "not fetched".
func (b *Builder) BuildAssetReport(symbol string, results []models.FetchResult) models.AssetReport {
	report := models.AssetReport{Symbol: symbol}

	for _, category := range models.Categories {
		section := models.Section{Category: category}

		result, found := findResult(results, category)
		switch {
		case !found:
			section.Reason = "not fetched"
		case !result.OK():
			section.Provider = result.Provider
			section.Reason = oneLine(result.Reason())
		default:
			section.Provider = result.Provider
			body, err := b.renderBody(result)
			if err != nil {
				section.Reason = err.Error()
			} else {
				section.Available = true
				section.Body = body
			}
		}

		if section.Available && category == models.CategoryProfile && result.Profile != nil {
			report.Name = result.Profile.Name
		}
		report.Sections = append(report.Sections, section)
	}

	report.Content = b.Render(report)
	return report
}

// Render renders an asset report as markdown.
func (b *Builder) Render(report models.AssetReport) string {
	var sb strings.Builder

	title := report.Symbol
	if report.Name != "" {
		title = fmt.Sprintf("%s - %s", report.Symbol, report.Name)
	}
	sb.WriteString("# " + title + "\n")

	for _, section := range report.Sections {
		sb.WriteString("\n## " + section.Category.Title() + "\n\n")
		if !section.Available {
			fmt.Fprintf(&sb, "_Unavailable: %s_\n", section.Reason)
			continue
		}
		if section.Provider != "" {
			fmt.Fprintf(&sb, "_Source: %s_\n\n", section.Provider)
		}
		sb.WriteString(section.Body)
	}

	return sb.String()
}

func findResult(results []models.FetchResult, category models.Category) (models.FetchResult, bool) {
	for _, r := range results {
		if r.Category == category {
			return r, true
		}
	}
	return models.FetchResult{}, false
}

func (b *Builder) renderBody(result models.FetchResult) (string, error) {
	switch result.Category {
	case models.CategoryProfile:
		if result.Profile == nil {
			return "", fmt.Errorf("empty profile response")
		}
		return b.renderProfile(result.Profile), nil
	case models.CategoryStatements:
		if result.Statements == nil || result.Statements.Empty() {
			return "", fmt.Errorf("empty statements response")
		}
		return b.renderStatements(result.Statements), nil
	case models.CategoryPrices:
		if result.Prices == nil || len(result.Prices.Daily) == 0 {
			return "", fmt.Errorf("empty price response")
		}
		return b.renderPrices(result.Prices), nil
	case models.CategoryNews:
		return b.renderNews(result.News), nil
	default:
		return "", fmt.Errorf("unknown category %q", result.Category)
	}
}

func (b *Builder) renderProfile(p *models.Profile) string {
	var sb strings.Builder

	rows := [][]string{}
	add := func(field, value string) {
		if value != "" {
			rows = append(rows, []string{field, cell(value)})
		}
	}
	add("Name", p.Name)
	add("Symbol", p.Symbol)
	add("Exchange", p.Exchange)
	add("Sector", p.Sector)
	add("Industry", p.Industry)
	add("Currency", p.Currency)
	if p.MarketCap != 0 {
		add("Market Cap", formatAmount(p.MarketCap))
	}
	if p.LastClose != 0 {
		add("Last Close", formatPrice(p.LastClose))
	}
	writeTable(&sb, []string{"Field", "Value"}, rows)

	if desc := strings.TrimSpace(p.Description); desc != "" {
		sb.WriteString("\n" + truncate(desc, b.options.DescriptionLimit) + "\n")
	}
	return sb.String()
}

func (b *Builder) renderStatements(s *models.Statements) string {
	var sb strings.Builder
	if s.Currency != "" {
		fmt.Fprintf(&sb, "Currency: %s\n\n", s.Currency)
	}

	tables := []struct {
		title string
		table models.StatementTable
		lines []statementLine
	}{
		{"Income Statement", s.Income, incomeLines},
		{"Balance Sheet", s.Balance, balanceLines},
		{"Cash Flow", s.CashFlow, cashFlowLines},
	}

	for i, t := range tables {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("### " + t.title + "\n\n")
		b.writeStatementTable(&sb, t.table, t.lines)
	}
	return sb.String()
}

func (b *Builder) writeStatementTable(sb *strings.Builder, table models.StatementTable, lines []statementLine) {
	periods := table.Periods
	if len(periods) > b.options.StatementPeriods {
		periods = periods[:b.options.StatementPeriods]
	}

	header := []string{"Line"}
	for _, p := range periods {
		header = append(header, p.Date)
	}

	var rows [][]string
	for _, line := range lines {
		row := []string{line.label}
		found := false
		for _, p := range periods {
			v, ok := line.value(p.Values)
			if !ok {
				row = append(row, "-")
				continue
			}
			found = true
			if line.perShare {
				row = append(row, formatPrice(v))
			} else {
				row = append(row, formatAmount(v))
			}
		}
		if found {
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		sb.WriteString("_No data_\n")
		return
	}
	writeTable(sb, header, rows)
}

func (b *Builder) renderPrices(h *models.PriceHistory) string {
	var sb strings.Builder

	daily := h.Daily
	if len(daily) > b.options.HistoryDays {
		daily = daily[len(daily)-b.options.HistoryDays:]
	}

	first, last := daily[0], daily[len(daily)-1]
	currency := ""
	if h.Currency != "" {
		currency = " " + h.Currency
	}
	fmt.Fprintf(&sb, "Last close: %s%s (%s)\n", formatPrice(last.Close), currency, last.Time.Format("2006-01-02"))
	if first.Close != 0 && len(daily) > 1 {
		change := (last.Close - first.Close) / first.Close * 100
		fmt.Fprintf(&sb, "Change over %d sessions: %+.2f%%\n", len(daily), change)
	}
	sb.WriteString("\n### Daily\n\n")
	writeBars(&sb, daily, "2006-01-02")

	if len(h.Intraday) > 0 {
		intraday := h.Intraday
		if len(intraday) > b.options.IntradayBars {
			intraday = intraday[len(intraday)-b.options.IntradayBars:]
		}
		sb.WriteString("\n### Intraday\n\n")
		writeBars(&sb, intraday, "2006-01-02 15:04")
	}
	return sb.String()
}

// writeBars renders bars newest first.
func writeBars(sb *strings.Builder, bars []models.PriceBar, layout string) {
	rows := make([][]string, 0, len(bars))
	for i := len(bars) - 1; i >= 0; i-- {
		bar := bars[i]
		rows = append(rows, []string{
			bar.Time.UTC().Format(layout),
			formatPrice(bar.Open),
			formatPrice(bar.High),
			formatPrice(bar.Low),
			formatPrice(bar.Close),
			fmt.Sprintf("%d", bar.Volume),
		})
	}
	writeTable(sb, []string{"Date", "Open", "High", "Low", "Close", "Volume"}, rows)
}

func (b *Builder) renderNews(items []models.NewsItem) string {
	if len(items) == 0 {
		return "_No recent news_\n"
	}

	sorted := make([]models.NewsItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PublishedAt.Equal(sorted[j].PublishedAt) {
			return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
		}
		return sorted[i].Title < sorted[j].Title
	})
	if len(sorted) > b.options.NewsLimit {
		sorted = sorted[:b.options.NewsLimit]
	}

	var sb strings.Builder
	for _, item := range sorted {
		title := b.markup.plainText(item.Title)
		if title == "" {
			title = "(untitled)"
		}
		if item.Link != "" {
			fmt.Fprintf(&sb, "- [%s](%s)", title, item.Link)
		} else {
			fmt.Fprintf(&sb, "- %s", title)
		}

		var meta []string
		if publisher := b.markup.plainText(item.Publisher); publisher != "" {
			meta = append(meta, publisher)
		}
		if !item.PublishedAt.IsZero() {
			meta = append(meta, item.PublishedAt.UTC().Format("2006-01-02"))
		}
		if len(meta) > 0 {
			sb.WriteString(" - " + strings.Join(meta, ", "))
		}
		sb.WriteString("\n")

		if summary := b.markup.htmlToMarkdown(item.Summary); summary != "" {
			summary = truncate(strings.Join(strings.Fields(summary), " "), b.options.DescriptionLimit)
			sb.WriteString("  " + summary + "\n")
		}
	}
	return sb.String()
}
