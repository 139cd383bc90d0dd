package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/interfaces"
	"github.com/ternarybob/foliogen/internal/storage/badger"
	"github.com/ternarybob/foliogen/internal/storage/filesystem"
	"github.com/ternarybob/foliogen/internal/storage/s3"
	"github.com/ternarybob/foliogen/internal/storage/sqlite"
	"github.com/ternarybob/foliogen/internal/storage/yamlfile"
)

// Manager owns the enabled document backends and their connections
type Manager struct {
	writer  *MultiWriter
	closers []io.Closer
	logger  arbor.ILogger
}

// NewManager opens every backend enabled in config, in the order badger, filesystem, s3.
func NewManager(ctx context.Context, config *common.StorageConfig, logger arbor.ILogger, renderHTML badger.HTMLRenderer) (*Manager, error) {
	m := &Manager{logger: logger}
	var stores []interfaces.TenantDocumentStore

	for _, backend := range config.EnabledBackends() {
		switch backend {
		case "badger":
			db, err := openBadger(logger, &config.Badger)
			if err != nil {
				m.Close()
				return nil, err
			}
			m.closers = append(m.closers, db)
			stores = append(stores, badger.NewReportStorage(db, logger, renderHTML))

		case "filesystem":
			fileStorage, err := filesystem.NewFileStorage(&config.Filesystem, logger)
			if err != nil {
				m.Close()
				return nil, err
			}
			stores = append(stores, fileStorage)

		case "s3":
			objectStorage, err := s3.NewObjectStorage(ctx, &config.S3, logger)
			if err != nil {
				m.Close()
				return nil, err
			}
			stores = append(stores, objectStorage)
		}
	}

	if len(stores) == 0 {
		return nil, fmt.Errorf("no storage backend enabled")
	}

	m.writer = NewMultiWriter(stores...)
	logger.Info().Str("backends", m.writer.Name()).Msg("Document storage ready")
	return m, nil
}

// openBadger treats the path ":memory:" like SQLite does: a store that vanishes on Close.
func openBadger(logger arbor.ILogger, config *common.BadgerConfig) (*badger.BadgerDB, error) {
	if config.Path == ":memory:" {
		return badger.NewInMemoryBadgerDB(logger)
	}
	return badger.NewBadgerDB(logger, config)
}

// Writer returns the fan-out store used by the pipeline.
func (m *Manager) Writer() *MultiWriter {
	return m.writer
}

// Close closes all backend connections.
func (m *Manager) Close() error {
	var errs []error
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	return errors.Join(errs...)
}

// NewTenantRepository opens the configured tenant source.
// The returned closer is a no-op for the YAML source.
func NewTenantRepository(config *common.TenantsConfig, logger arbor.ILogger) (interfaces.TenantRepository, func() error, error) {
	switch config.Source {
	case "yaml":
		repo, err := yamlfile.NewRepository(config.YAMLPath, logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() error { return nil }, nil

	case "sqlite", "":
		db, err := sqlite.NewSQLiteDB(logger, config.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewTenantRepository(db, logger), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported tenant source: %s", config.Source)
	}
}

// OpenTenantStore opens the SQLite tenant database for writing (seeding).
func OpenTenantStore(config *common.TenantsConfig, logger arbor.ILogger) (interfaces.TenantStore, func() error, error) {
	db, err := sqlite.NewSQLiteDB(logger, config.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	return sqlite.NewTenantRepository(db, logger), db.Close, nil
}
