package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/interfaces"
)

func newTestFileStorage(t *testing.T) (*FileStorage, string) {
	t.Helper()
	base := t.TempDir()
	storage, err := NewFileStorage(&common.FilesystemConfig{Enabled: true, Path: base}, arbor.NewLogger())
	require.NoError(t, err)
	return storage, base
}

func TestFileStorage_WriteOverwritesInsideTenantFolder(t *testing.T) {
	storage, base := newTestFileStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Write(ctx, "tenant_a", "NVDA_report", "v1"))
	require.NoError(t, storage.Write(ctx, "tenant_a", "NVDA_report", "v2"))

	data, err := os.ReadFile(filepath.Join(base, "tenant_a", "NVDA_report.md"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	entries, err := os.ReadDir(filepath.Join(base, "tenant_a"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	_, err = os.Stat(filepath.Join(base, "tenant_b"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorage_RejectsTraversal(t *testing.T) {
	storage, base := newTestFileStorage(t)
	ctx := context.Background()

	assert.Error(t, storage.Write(ctx, "tenant_a", "../escape", "x"))
	assert.Error(t, storage.Write(ctx, "..", "escape", "x"))

	_, err := os.Stat(filepath.Join(filepath.Dir(base), "escape.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorage_ReadListDeletePrune(t *testing.T) {
	storage, base := newTestFileStorage(t)
	ctx := context.Background()

	_, err := storage.Read(ctx, "tenant_a", "missing")
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)

	docs, err := storage.List(ctx, "tenant_a")
	require.NoError(t, err)
	assert.Empty(t, docs)

	names := []string{"old_report", "mid_report", "new_report"}
	for i, name := range names {
		require.NoError(t, storage.Write(ctx, "tenant_a", name, name))
		stamp := time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, os.Chtimes(filepath.Join(base, "tenant_a", name+".md"), stamp, stamp))
	}

	docs, err = storage.List(ctx, "tenant_a")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "mid_report", docs[0].Name)

	content, err := storage.Read(ctx, "tenant_a", "mid_report")
	require.NoError(t, err)
	assert.Equal(t, "mid_report", content)

	deleted, err := storage.Prune(ctx, "tenant_a", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	docs, err = storage.List(ctx, "tenant_a")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "new_report", docs[0].Name)

	require.NoError(t, storage.Delete(ctx, "tenant_a", "new_report"))
	require.NoError(t, storage.Delete(ctx, "tenant_a", "new_report"))
}
