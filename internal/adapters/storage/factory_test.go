package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/retry"
	"github.com/sirupsen/logrus"
)

func TestFactory(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	factory := NewFactory(retry.DefaultConfig(), logger)
	ctx := context.Background()

	t.Run("CreateMemoryStorage", func(t *testing.T) {
		store, err := factory.Create(&StorageConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("Failed to create memory storage: %v", err)
		}
		defer store.Close()

		if _, ok := store.(*RetryableDocumentStore); !ok {
			t.Errorf("Expected retry wrapper, got %T", store)
		}

		if _, err := store.Put(ctx, NamespaceShadow, "foo", []byte("{}"), 0); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	})

	t.Run("CreateSQLiteStorage", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "greengrass.db")
		store, err := factory.Create(&StorageConfig{Type: "SQLite", Path: path})
		if err != nil {
			t.Fatalf("Failed to create sqlite storage: %v", err)
		}

		if _, err := store.Put(ctx, NamespaceSecret, "foo", []byte("{}"), 0); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		// Data survives reopening
		store, err = factory.Create(&StorageConfig{Type: "sqlite", Path: path})
		if err != nil {
			t.Fatalf("Failed to reopen sqlite storage: %v", err)
		}
		defer store.Close()

		doc, err := store.Get(ctx, NamespaceSecret, "foo")
		if err != nil {
			t.Fatalf("Get after reopen failed: %v", err)
		}
		if doc.Version != 1 {
			t.Errorf("Expected version 1, got %d", doc.Version)
		}
	})

	t.Run("UnsupportedStorageType", func(t *testing.T) {
		if _, err := factory.Create(&StorageConfig{Type: "s3"}); err == nil {
			t.Error("Should fail for unsupported storage type")
		}
	})

	t.Run("NilConfig", func(t *testing.T) {
		if _, err := factory.Create(nil); err == nil {
			t.Error("Should fail for nil config")
		}
	})

	t.Run("WithoutRetry", func(t *testing.T) {
		store, err := NewFactory(nil, logger).Create(&StorageConfig{})
		if err != nil {
			t.Fatalf("Failed to create storage: %v", err)
		}
		if _, ok := store.(*MemoryDocumentStore); !ok {
			t.Errorf("Expected bare memory store, got %T", store)
		}
	})
}

// flakyStore fails with a retryable error a fixed number of times
type flakyStore struct {
	DocumentStore
	failures int
	calls    int
}

func (f *flakyStore) Get(ctx context.Context, namespace, key string) (*Document, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, NewStorageError("Get", key, ErrStorageUnavailable, true)
	}
	return f.DocumentStore.Get(ctx, namespace, key)
}

func TestRetryableDocumentStore(t *testing.T) {
	ctx := context.Background()
	config := &retry.Config{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}

	t.Run("RetriesTransientErrors", func(t *testing.T) {
		inner := &flakyStore{DocumentStore: NewMemoryDocumentStore(), failures: 2}
		inner.DocumentStore.Put(ctx, NamespaceShadow, "foo", []byte("x"), 0)

		store := NewRetryableDocumentStore(inner, config)
		if _, err := store.Get(ctx, NamespaceShadow, "foo"); err != nil {
			t.Fatalf("Get should succeed after retries: %v", err)
		}
		if inner.calls != 3 {
			t.Errorf("Expected 3 calls, got %d", inner.calls)
		}
	})

	t.Run("GivesUp", func(t *testing.T) {
		inner := &flakyStore{DocumentStore: NewMemoryDocumentStore(), failures: 10}
		store := NewRetryableDocumentStore(inner, config)

		_, err := store.Get(ctx, NamespaceShadow, "foo")
		if !errors.Is(err, ErrStorageUnavailable) {
			t.Errorf("Expected storage unavailable, got %v", err)
		}
		if inner.calls != 3 {
			t.Errorf("Expected 3 calls, got %d", inner.calls)
		}
	})

	t.Run("DoesNotRetryNotFound", func(t *testing.T) {
		inner := &flakyStore{DocumentStore: NewMemoryDocumentStore()}
		store := NewRetryableDocumentStore(inner, config)

		_, err := store.Get(ctx, NamespaceShadow, "missing")
		if !IsNotFound(err) {
			t.Errorf("Expected not found, got %v", err)
		}
		if inner.calls != 1 {
			t.Errorf("Expected 1 call, got %d", inner.calls)
		}
	})
}
