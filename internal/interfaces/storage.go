package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/foliogen/internal/models"
)

// ErrDocumentNotFound is returned by Read when a document does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// TenantStorageWriter persists documents inside a tenant namespace.
// Write is an upsert; documentName is an opaque leaf with no path separators.
type TenantStorageWriter interface {
	Write(ctx context.Context, tenantID, documentName, content string) error
}

// TenantDocumentStore adds the read and housekeeping operations of a storage backend.
type TenantDocumentStore interface {
	TenantStorageWriter
	Name() string
	EnsureNamespace(ctx context.Context, tenantID string) error
	Read(ctx context.Context, tenantID, documentName string) (string, error)
	List(ctx context.Context, tenantID string) ([]models.DocumentInfo, error)
	Delete(ctx context.Context, tenantID, documentName string) error

	// Prune deletes the oldest documents beyond keep. keep <= 0 disables pruning.
	// Names in retain are never deleted and count towards keep.
	Prune(ctx context.Context, tenantID string, keep int, retain ...string) (int, error)
}
