package models

import (
	"sort"
	"time"
)

// StoredDocument is a report persisted under a tenant namespace.
// Key is "{tenant_id}/{name}"; writes to the same key overwrite.
type StoredDocument struct {
	Key         string    `json:"key" badgerhold:"key"`
	TenantID    string    `json:"tenant_id" badgerhold:"index"`
	Name        string    `json:"name"`
	Content     string    `json:"content"`      // markdown
	ContentHTML string    `json:"content_html"` // rendered from Content
	Checksum    string    `json:"checksum"`     // sha256 of Content
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DocumentInfo describes a stored document without its content.
type DocumentInfo struct {
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OldestBeyond returns the documents that fall outside the newest keep,
// ordered oldest first. keep <= 0 returns nothing.
// Documents named in retain are never returned; each one present uses up a slot of keep.
func OldestBeyond(docs []DocumentInfo, keep int, retain ...string) []DocumentInfo {
	if keep <= 0 {
		return nil
	}

	protected := make(map[string]bool, len(retain))
	for _, name := range retain {
		protected[name] = true
	}

	sorted := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		if protected[d.Name] {
			keep--
			continue
		}
		sorted = append(sorted, d)
	}
	if keep < 0 {
		keep = 0
	}
	if len(sorted) <= keep {
		return nil
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].UpdatedAt.Equal(sorted[j].UpdatedAt) {
			return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
		}
		return sorted[i].Name < sorted[j].Name
	})

	stale := sorted[keep:]
	for i, j := 0, len(stale)-1; i < j; i, j = i+1, j-1 {
		stale[i], stale[j] = stale[j], stale[i]
	}
	return stale
}
