package storage

import (
	"fmt"
	"strings"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/database"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/retry"
	"github.com/sirupsen/logrus"
)

// StorageType represents the type of storage implementation
type StorageType string

const (
	StorageTypeMemory StorageType = "memory"
	StorageTypeSQLite StorageType = "sqlite"
)

// Factory creates DocumentStore instances based on configuration
type Factory struct {
	retryConfig *retry.Config
	logger      *logrus.Logger
}

// NewFactory creates a new storage factory
func NewFactory(retryConfig *retry.Config, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}

	return &Factory{
		retryConfig: retryConfig,
		logger:      logger,
	}
}

// Create creates a DocumentStore instance based on the provided configuration
func (f *Factory) Create(config *StorageConfig) (DocumentStore, error) {
	if config == nil {
		return nil, fmt.Errorf("storage config is required")
	}

	var store DocumentStore
	var err error

	switch StorageType(strings.ToLower(config.Type)) {
	case StorageTypeMemory, "":
		store = NewMemoryDocumentStore()
	case StorageTypeSQLite:
		store, err = f.createSQLiteStore(config)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", config.Type, err)
	}

	// Wrap with retry logic if configured
	if f.retryConfig != nil {
		store = NewRetryableDocumentStore(store, f.retryConfig)
	}

	return store, nil
}

// createSQLiteStore opens and migrates the database behind a SQLite store
func (f *Factory) createSQLiteStore(config *StorageConfig) (DocumentStore, error) {
	connConfig := database.DefaultConnectionConfig()
	if config.Path != "" {
		connConfig.DatabasePath = config.Path
	}
	connConfig.Logger = f.logger

	cm := database.NewConnectionManager(connConfig)
	if err := cm.Open(); err != nil {
		return nil, err
	}

	return NewSQLiteDocumentStore(cm.GetDB(), cm.Close), nil
}
