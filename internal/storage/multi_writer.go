package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/models"
)

// MultiWriter fans every write out to all stores. A write succeeds only if every store accepts it.
// Reads and listings are served by the first store.
type MultiWriter struct {
	stores []interfaces.TenantDocumentStore
}

var _ interfaces.TenantDocumentStore = (*MultiWriter)(nil)

func NewMultiWriter(stores ...interfaces.TenantDocumentStore) *MultiWriter {
	return &MultiWriter{stores: stores}
}

// Name lists the backend names, e.g. "badger+s3".
func (w *MultiWriter) Name() string {
	names := make([]string, 0, len(w.stores))
	for _, s := range w.stores {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

func (w *MultiWriter) each(op func(interfaces.TenantDocumentStore) error) error {
	var errs []error
	for _, s := range w.stores {
		if err := op(s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (w *MultiWriter) EnsureNamespace(ctx context.Context, tenantID string) error {
	return w.each(func(s interfaces.TenantDocumentStore) error {
		return s.EnsureNamespace(ctx, tenantID)
	})
}

func (w *MultiWriter) Write(ctx context.Context, tenantID, documentName, content string) error {
	return w.each(func(s interfaces.TenantDocumentStore) error {
		return s.Write(ctx, tenantID, documentName, content)
	})
}

func (w *MultiWriter) Delete(ctx context.Context, tenantID, documentName string) error {
	return w.each(func(s interfaces.TenantDocumentStore) error {
		return s.Delete(ctx, tenantID, documentName)
	})
}

func (w *MultiWriter) Read(ctx context.Context, tenantID, documentName string) (string, error) {
	if len(w.stores) == 0 {
		return "", fmt.Errorf("%w: no storage backend", interfaces.ErrDocumentNotFound)
	}
	return w.stores[0].Read(ctx, tenantID, documentName)
}

func (w *MultiWriter) List(ctx context.Context, tenantID string) ([]models.DocumentInfo, error) {
	if len(w.stores) == 0 {
		return nil, nil
	}
	return w.stores[0].List(ctx, tenantID)
}

// Prune prunes every store independently and returns the largest deletion count.
func (w *MultiWriter) Prune(ctx context.Context, tenantID string, keep int, retain ...string) (int, error) {
	most := 0
	err := w.each(func(s interfaces.TenantDocumentStore) error {
		n, err := s.Prune(ctx, tenantID, keep, retain...)
		if n > most {
			most = n
		}
		return err
	})
	return most, err
}
