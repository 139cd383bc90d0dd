package badger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// HTMLRenderer converts stored markdown into its HTML rendition.
type HTMLRenderer func(markdown string) (string, error)

// ReportStorage keeps tenant reports in Badger under "{tenant}/{name}" keys
type ReportStorage struct {
	db         *BadgerDB
	logger     arbor.ILogger
	renderHTML HTMLRenderer
	now        func() time.Time
}

var _ interfaces.TenantDocumentStore = (*ReportStorage)(nil)

// NewReportStorage creates a new ReportStorage instance. renderHTML may be nil.
func NewReportStorage(db *BadgerDB, logger arbor.ILogger, renderHTML HTMLRenderer) *ReportStorage {
	return &ReportStorage{
		db:         db,
		logger:     logger,
		renderHTML: renderHTML,
		now:        time.Now,
	}
}

func documentKey(tenantID, name string) string {
	return tenantID + "/" + name
}

func (s *ReportStorage) Name() string { return "badger" }

// EnsureNamespace only validates the tenant id; Badger has no folders to create.
func (s *ReportStorage) EnsureNamespace(ctx context.Context, tenantID string) error {
	return common.ValidateDocumentName(tenantID)
}

func (s *ReportStorage) Write(ctx context.Context, tenantID, documentName, content string) error {
	if err := common.ValidateDocumentKey(tenantID, documentName); err != nil {
		return err
	}

	key := documentKey(tenantID, documentName)
	now := s.now()

	doc := models.StoredDocument{
		Key:       key,
		TenantID:  tenantID,
		Name:      documentName,
		Content:   content,
		Checksum:  checksum(content),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var existing models.StoredDocument
	switch err := s.db.Store().Get(key, &existing); {
	case err == nil:
		doc.CreatedAt = existing.CreatedAt
	case !errors.Is(err, badgerhold.ErrNotFound):
		return fmt.Errorf("failed to read existing document %s: %w", key, err)
	}

	if s.renderHTML != nil {
		html, err := s.renderHTML(content)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to render HTML rendition; storing markdown only")
		} else {
			doc.ContentHTML = html
		}
	}

	if err := s.db.Store().Upsert(key, &doc); err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}

	s.logger.Debug().
		Str("tenant_id", tenantID).
		Str("document", documentName).
		Int("bytes", len(content)).
		Msg("Report stored")
	return nil
}

func (s *ReportStorage) Read(ctx context.Context, tenantID, documentName string) (string, error) {
	doc, err := s.Get(ctx, tenantID, documentName)
	if err != nil {
		return "", err
	}
	return doc.Content, nil
}

// Get returns the full stored record including the HTML rendition.
func (s *ReportStorage) Get(ctx context.Context, tenantID, documentName string) (*models.StoredDocument, error) {
	if err := common.ValidateDocumentKey(tenantID, documentName); err != nil {
		return nil, err
	}

	var doc models.StoredDocument
	if err := s.db.Store().Get(documentKey(tenantID, documentName), &doc); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", interfaces.ErrDocumentNotFound, tenantID, documentName)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (s *ReportStorage) List(ctx context.Context, tenantID string) ([]models.DocumentInfo, error) {
	if err := common.ValidateDocumentName(tenantID); err != nil {
		return nil, err
	}

	var docs []models.StoredDocument
	if err := s.db.Store().Find(&docs, badgerhold.Where("TenantID").Eq(tenantID).Index("TenantID")); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	infos := make([]models.DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		infos = append(infos, models.DocumentInfo{
			TenantID:  doc.TenantID,
			Name:      doc.Name,
			Size:      int64(len(doc.Content)),
			UpdatedAt: doc.UpdatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *ReportStorage) Delete(ctx context.Context, tenantID, documentName string) error {
	if err := common.ValidateDocumentKey(tenantID, documentName); err != nil {
		return err
	}

	if err := s.db.Store().Delete(documentKey(tenantID, documentName), &models.StoredDocument{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *ReportStorage) Prune(ctx context.Context, tenantID string, keep int, retain ...string) (int, error) {
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

func checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
