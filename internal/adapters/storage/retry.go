package storage

import (
	"context"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/retry"
)

// RetryableDocumentStore wraps a DocumentStore with retry logic
type RetryableDocumentStore struct {
	store  DocumentStore
	config *retry.Config
}

// NewRetryableDocumentStore creates a new RetryableDocumentStore
func NewRetryableDocumentStore(store DocumentStore, config *retry.Config) *RetryableDocumentStore {
	if config == nil {
		config = retry.DefaultConfig()
	}

	return &RetryableDocumentStore{
		store:  store,
		config: config,
	}
}

// Get implements DocumentStore.Get with retry logic
func (r *RetryableDocumentStore) Get(ctx context.Context, namespace, key string) (*Document, error) {
	var result *Document
	err := retry.Do(ctx, r.config, IsRetryable, func(ctx context.Context) error {
		doc, err := r.store.Get(ctx, namespace, key)
		if err != nil {
			return err
		}
		result = doc
		return nil
	})
	return result, err
}

// Put implements DocumentStore.Put with retry logic
func (r *RetryableDocumentStore) Put(ctx context.Context, namespace, key string, body []byte, expectedVersion int64) (*Document, error) {
	var result *Document
	err := retry.Do(ctx, r.config, IsRetryable, func(ctx context.Context) error {
		doc, err := r.store.Put(ctx, namespace, key, body, expectedVersion)
		if err != nil {
			return err
		}
		result = doc
		return nil
	})
	return result, err
}

// Delete implements DocumentStore.Delete with retry logic
func (r *RetryableDocumentStore) Delete(ctx context.Context, namespace, key string) (int64, error) {
	var result int64
	err := retry.Do(ctx, r.config, IsRetryable, func(ctx context.Context) error {
		version, err := r.store.Delete(ctx, namespace, key)
		if err != nil {
			return err
		}
		result = version
		return nil
	})
	return result, err
}

// List implements DocumentStore.List with retry logic
func (r *RetryableDocumentStore) List(ctx context.Context, namespace string, opts *ListOptions) (*ListResult, error) {
	var result *ListResult
	err := retry.Do(ctx, r.config, IsRetryable, func(ctx context.Context) error {
		listResult, err := r.store.List(ctx, namespace, opts)
		if err != nil {
			return err
		}
		result = listResult
		return nil
	})
	return result, err
}

// Close implements DocumentStore.Close
func (r *RetryableDocumentStore) Close() error {
	return r.store.Close()
}
