package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
)

const extension = ".md"

// FileStorage writes reports to {base}/{tenant}/{name}.md
type FileStorage struct {
	base   string
	logger arbor.ILogger
}

var _ interfaces.TenantDocumentStore = (*FileStorage)(nil)

func NewFileStorage(config *common.FilesystemConfig, logger arbor.ILogger) (*FileStorage, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("filesystem storage path is required")
	}
	if err := os.MkdirAll(config.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &FileStorage{base: filepath.Clean(config.Path), logger: logger}, nil
}

func (s *FileStorage) Name() string { return "filesystem" }

func (s *FileStorage) tenantDir(tenantID string) string {
	return filepath.Join(s.base, tenantID)
}

func (s *FileStorage) documentPath(tenantID, documentName string) string {
	return filepath.Join(s.base, tenantID, documentName+extension)
}

func (s *FileStorage) EnsureNamespace(ctx context.Context, tenantID string) error {
	if err := common.ValidateDocumentName(tenantID); err != nil {
		return err
	}
	return os.MkdirAll(s.tenantDir(tenantID), 0755)
}

// Write replaces the document atomically: a temp file in the tenant folder is renamed over the target.
func (s *FileStorage) Write(ctx context.Context, tenantID, documentName, content string) error {
	if err := common.ValidateDocumentKey(tenantID, documentName); err != nil {
		return err
	}
	if err := s.EnsureNamespace(ctx, tenantID); err != nil {
		return fmt.Errorf("failed to create tenant folder: %w", err)
	}

	tmp, err := os.CreateTemp(s.tenantDir(tenantID), "."+documentName+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", documentName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", documentName, err)
	}

	target := s.documentPath(tenantID, documentName)
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", documentName, err)
	}

	s.logger.Debug().Str("path", target).Int("bytes", len(content)).Msg("Report written")
	return nil
}

func (s *FileStorage) Read(ctx context.Context, tenantID, documentName string) (string, error) {
	if err := common.ValidateDocumentKey(tenantID, documentName); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.documentPath(tenantID, documentName))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s/%s", interfaces.ErrDocumentNotFound, tenantID, documentName)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *FileStorage) List(ctx context.Context, tenantID string) ([]models.DocumentInfo, error) {
	if err := common.ValidateDocumentName(tenantID); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.tenantDir(tenantID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", tenantID, err)
	}

	var docs []models.DocumentInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, extension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		docs = append(docs, models.DocumentInfo{
			TenantID:  tenantID,
			Name:      strings.TrimSuffix(name, extension),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}

func (s *FileStorage) Delete(ctx context.Context, tenantID, documentName string) error {
	if err := common.ValidateDocumentKey(tenantID, documentName); err != nil {
		return err
	}
	if err := os.Remove(s.documentPath(tenantID, documentName)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", documentName, err)
	}
	return nil
}

func (s *FileStorage) Prune(ctx context.Context, tenantID string, keep int, retain ...string) (int, error) {
	docs, err := s.List(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, doc := range models.OldestBeyond(docs, keep, retain...) {
		if err := s.Delete(ctx, tenantID, doc.Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
