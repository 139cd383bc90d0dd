package models

// Section is one category block of an asset report.
// An unavailable section keeps the failure reason so the report shows what was attempted.
type Section struct {
	Category  Category `json:"category"`
	Available bool     `json:"available"`
	Provider  string   `json:"provider,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Body      string   `json:"body,omitempty"`
}

// AssetReport is the structured report for one canonical symbol.
type AssetReport struct {
	Symbol   string    `json:"symbol"`
	Name     string    `json:"name,omitempty"`
	Sections []Section `json:"sections"`
	Content  string    `json:"content"` // rendered markdown
}

// Section returns the section for category c.
func (r AssetReport) Section(c Category) (Section, bool) {
	for _, s := range r.Sections {
		if s.Category == c {
			return s, true
		}
	}
	return Section{}, false
}

// Succeeded reports whether at least one category is available.
func (r AssetReport) Succeeded() bool {
	for _, s := range r.Sections {
		if s.Available {
			return true
		}
	}
	return false
}

// UnavailableCategories lists the categories that failed, in report order.
func (r AssetReport) UnavailableCategories() []Category {
	var failed []Category
	for _, s := range r.Sections {
		if !s.Available {
			failed = append(failed, s.Category)
		}
	}
	return failed
}

// ConsolidatedReport aggregates every asset report of one tenant.
type ConsolidatedReport struct {
	TenantID   string    `json:"tenant_id"`
	TenantName string    `json:"tenant_name"`
	Symbols    []string  `json:"symbols"` // lexical order
	Holdings   []Holding `json:"holdings"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Content    string    `json:"content"`
}
