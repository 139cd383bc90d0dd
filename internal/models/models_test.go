package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOldestBeyond(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []DocumentInfo{
		{Name: "b", UpdatedAt: base.Add(2 * time.Hour)},
		{Name: "a", UpdatedAt: base},
		{Name: "c", UpdatedAt: base.Add(1 * time.Hour)},
		{Name: "d", UpdatedAt: base.Add(3 * time.Hour)},
	}

	tests := []struct {
		name   string
		keep   int
		retain []string
		want   []string
	}{
		{name: "pruning disabled", keep: 0, want: nil},
		{name: "keep more than exists", keep: 10, want: nil},
		{name: "keep newest two", keep: 2, want: []string{"a", "c"}},
		{name: "keep newest one", keep: 1, want: []string{"a", "c", "b"}},
		{name: "retained count towards keep", keep: 2, retain: []string{"a"}, want: []string{"c", "b"}},
		{name: "retained beyond keep survive", keep: 2, retain: []string{"a", "b", "c"}, want: []string{"d"}},
		{name: "unknown retained names ignored", keep: 3, retain: []string{"x"}, want: []string{"a"}},
		{name: "retained with pruning disabled", keep: 0, retain: []string{"a"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, d := range OldestBeyond(docs, tt.keep, tt.retain...) {
				got = append(got, d.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "b", docs[0].Name, "input order is preserved")
}

func TestBatchSummary_Aggregate(t *testing.T) {
	s := &BatchSummary{
		TenantsSucceeded: 99,
		Tenants: []TenantOutcome{
			{TenantID: "a", Status: TenantSucceeded, AssetsProcessed: 3, AssetsFailed: 1, DocumentsWritten: 5},
			{TenantID: "b", Status: TenantFailed, DocumentsFailed: 2},
			{TenantID: "c", Status: TenantSkipped},
		},
	}
	s.Aggregate()

	assert.Equal(t, 1, s.TenantsSucceeded)
	assert.Equal(t, 1, s.TenantsFailed)
	assert.Equal(t, 1, s.TenantsSkipped)
	assert.Equal(t, 2, s.TenantsProcessed())
	assert.Equal(t, 3, s.AssetsProcessed)
	assert.Equal(t, 1, s.AssetsFailed)
	assert.Equal(t, 5, s.DocumentsWritten)
	assert.Equal(t, 2, s.DocumentsFailed)

	outcome, ok := s.Outcome("b")
	assert.True(t, ok)
	assert.Equal(t, TenantFailed, outcome.Status)
	_, ok = s.Outcome("missing")
	assert.False(t, ok)
}

func TestRunMode_String(t *testing.T) {
	assert.Equal(t, "all", AllTenants().String())
	assert.Equal(t, "demo", Demo().String())
	assert.Equal(t, "tenant:user_1", SingleTenant("user_1").String())
}

func TestAssetReport_Succeeded(t *testing.T) {
	report := AssetReport{Sections: []Section{
		{Category: "profile", Available: false, Reason: "timeout"},
		{Category: "news", Available: true},
	}}
	assert.True(t, report.Succeeded())
	assert.Equal(t, []Category{"profile"}, report.UnavailableCategories())

	report.Sections[1].Available = false
	assert.False(t, report.Succeeded())
}

func TestTenant_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", Tenant{ID: "1", FirstName: " Ada ", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "Tenant 7", Tenant{ID: "7"}.DisplayName())
}

func TestAsset_CostBasis(t *testing.T) {
	a := Asset{Quantity: decimal.RequireFromString("2.5"), AcquisitionPrice: decimal.RequireFromString("10.10")}
	assert.True(t, decimal.RequireFromString("25.25").Equal(a.CostBasis()))
}
