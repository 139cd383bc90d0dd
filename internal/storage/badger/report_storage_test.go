package badger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/interfaces"
)

func newTestReportStorage(t *testing.T) *ReportStorage {
	t.Helper()

	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Enabled: true, Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	storage := NewReportStorage(db, arbor.NewLogger(), func(md string) (string, error) {
		return "<p>" + md + "</p>", nil
	})

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	storage.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return storage
}

func TestReportStorage_WriteIsUpsert(t *testing.T) {
	storage := newTestReportStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Write(ctx, "tenant_a", "NVDA_report", "first"))
	first, err := storage.Get(ctx, "tenant_a", "NVDA_report")
	require.NoError(t, err)

	require.NoError(t, storage.Write(ctx, "tenant_a", "NVDA_report", "second"))
	second, err := storage.Get(ctx, "tenant_a", "NVDA_report")
	require.NoError(t, err)

	assert.Equal(t, "second", second.Content)
	assert.Equal(t, "<p>second</p>", second.ContentHTML)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.NotEqual(t, first.Checksum, second.Checksum)

	docs, err := storage.List(ctx, "tenant_a")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestReportStorage_TenantIsolation(t *testing.T) {
	storage := newTestReportStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Write(ctx, "tenant_a", "consolidated_report", "A"))
	require.NoError(t, storage.Write(ctx, "tenant_b", "consolidated_report", "B"))

	a, err := storage.Read(ctx, "tenant_a", "consolidated_report")
	require.NoError(t, err)
	b, err := storage.Read(ctx, "tenant_b", "consolidated_report")
	require.NoError(t, err)
	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)

	docs, err := storage.List(ctx, "tenant_a")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "tenant_a", docs[0].TenantID)
}

func TestReportStorage_RejectsEscapingNames(t *testing.T) {
	storage := newTestReportStorage(t)
	ctx := context.Background()

	for _, name := range []string{"", "..", "../tenant_b/x", `a\b`} {
		assert.Error(t, storage.Write(ctx, "tenant_a", name, "x"), name)
	}
	assert.Error(t, storage.Write(ctx, "tenant_a/../tenant_b", "report", "x"))
	assert.Error(t, storage.EnsureNamespace(ctx, ".."))
	assert.NoError(t, storage.EnsureNamespace(ctx, "tenant_a"))
}

func TestReportStorage_ReadMissing(t *testing.T) {
	storage := newTestReportStorage(t)

	_, err := storage.Read(context.Background(), "tenant_a", "nope")
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
	assert.NoError(t, storage.Delete(context.Background(), "tenant_a", "nope"))
}

func TestReportStorage_PruneKeepsNewest(t *testing.T) {
	storage := newTestReportStorage(t)
	ctx := context.Background()

	for _, name := range []string{"a_report", "b_report", "c_report", "d_report"} {
		require.NoError(t, storage.Write(ctx, "tenant_a", name, strings.ToUpper(name)))
	}
	require.NoError(t, storage.Write(ctx, "tenant_b", "a_report", "other tenant"))

	deleted, err := storage.Prune(ctx, "tenant_a", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	docs, err := storage.List(ctx, "tenant_a")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c_report", docs[0].Name)
	assert.Equal(t, "d_report", docs[1].Name)

	other, err := storage.List(ctx, "tenant_b")
	require.NoError(t, err)
	assert.Len(t, other, 1)

	deleted, err = storage.Prune(ctx, "tenant_a", 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestReportStorage_PruneNeverDeletesRetained(t *testing.T) {
	storage := newTestReportStorage(t)
	ctx := context.Background()

	for _, name := range []string{"a_report", "b_report", "c_report", "d_report"} {
		require.NoError(t, storage.Write(ctx, "tenant_a", name, strings.ToUpper(name)))
	}

	deleted, err := storage.Prune(ctx, "tenant_a", 1, "a_report", "b_report")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	docs, err := storage.List(ctx, "tenant_a")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a_report", docs[0].Name)
	assert.Equal(t, "b_report", docs[1].Name)
}
