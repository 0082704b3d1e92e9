package storage

import (
	"context"
	"time"
)

// Namespaces used by the local runtime
const (
	NamespaceShadow = "shadow"
	NamespaceSecret = "secret"
)

// AnyVersion skips the optimistic version check in Put
const AnyVersion int64 = -1

// Document is a versioned JSON document stored under a namespace and key
type Document struct {
	Namespace string    `json:"namespace"`
	Key       string    `json:"key"`
	Body      []byte    `json:"body"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListOptions provides options for listing documents
type ListOptions struct {
	Prefix     string `json:"prefix,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
	Marker     string `json:"marker,omitempty"` // Key to start after, for pagination
}

// ListResult represents the result of a list operation
type ListResult struct {
	Documents   []Document `json:"documents"`
	NextMarker  string     `json:"next_marker,omitempty"`
	IsTruncated bool       `json:"is_truncated"`
}

// DocumentStore persists documents for the local runtime
type DocumentStore interface {
	// Get returns the document or an error matching IsNotFound
	Get(ctx context.Context, namespace, key string) (*Document, error)

	// Put writes body and returns the stored document with its new version.
	// Unless expectedVersion is AnyVersion, the current version must match
	// it (0 meaning the document must not exist yet). A deleted document is
	// written back with the version after the one it was deleted at.
	Put(ctx context.Context, namespace, key string, body []byte, expectedVersion int64) (*Document, error)

	// Delete removes the document and returns the version it had. The
	// version is kept so the key never reuses one.
	Delete(ctx context.Context, namespace, key string) (int64, error)

	// List returns documents of a namespace ordered by key
	List(ctx context.Context, namespace string, opts *ListOptions) (*ListResult, error)

	// Close cleans up any resources used by the store
	Close() error
}

// StorageConfig represents configuration for document stores
type StorageConfig struct {
	Type string `json:"type" yaml:"type"` // "memory" or "sqlite"
	Path string `json:"path" yaml:"path"` // Database path for sqlite
}
