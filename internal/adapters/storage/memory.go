package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryDocumentStore is an in-memory implementation of DocumentStore
type MemoryDocumentStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]*Document
	// versions of deleted documents, by namespace and key
	tombstones map[string]map[string]int64
}

// NewMemoryDocumentStore creates a new MemoryDocumentStore instance
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		docs:       make(map[string]map[string]*Document),
		tombstones: make(map[string]map[string]int64),
	}
}

func copyDocument(doc *Document) *Document {
	c := *doc
	c.Body = append([]byte(nil), doc.Body...)
	return &c
}

// Get implements DocumentStore.Get
func (m *MemoryDocumentStore) Get(ctx context.Context, namespace, key string) (*Document, error) {
	if err := validateKey(namespace, key); err != nil {
		return nil, NewStorageError("Get", key, err, false)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[namespace][key]
	if !ok {
		return nil, NewStorageError("Get", key, ErrDocumentNotFound, false)
	}
	return copyDocument(doc), nil
}

// Put implements DocumentStore.Put
func (m *MemoryDocumentStore) Put(ctx context.Context, namespace, key string, body []byte, expectedVersion int64) (*Document, error) {
	if err := validateKey(namespace, key); err != nil {
		return nil, NewStorageError("Put", key, err, false)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.docs[namespace]
	if !ok {
		ns = make(map[string]*Document)
		m.docs[namespace] = ns
	}

	// live is 0 without a live document, base continues a tombstone
	var live, base int64
	if existing, ok := ns[key]; ok {
		live, base = existing.Version, existing.Version
	} else {
		base = m.tombstones[namespace][key]
	}
	if expectedVersion != AnyVersion && expectedVersion != live {
		return nil, NewStorageError("Put", key, ErrVersionConflict, false)
	}

	doc := &Document{
		Namespace: namespace,
		Key:       key,
		Body:      append([]byte(nil), body...),
		Version:   base + 1,
		UpdatedAt: time.Now().UTC(),
	}
	ns[key] = doc
	delete(m.tombstones[namespace], key)

	return copyDocument(doc), nil
}

// Delete implements DocumentStore.Delete
func (m *MemoryDocumentStore) Delete(ctx context.Context, namespace, key string) (int64, error) {
	if err := validateKey(namespace, key); err != nil {
		return 0, NewStorageError("Delete", key, err, false)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[namespace][key]
	if !ok {
		return 0, NewStorageError("Delete", key, ErrDocumentNotFound, false)
	}
	delete(m.docs[namespace], key)

	tombs, ok := m.tombstones[namespace]
	if !ok {
		tombs = make(map[string]int64)
		m.tombstones[namespace] = tombs
	}
	tombs[key] = doc.Version

	return doc.Version, nil
}

// List implements DocumentStore.List
func (m *MemoryDocumentStore) List(ctx context.Context, namespace string, opts *ListOptions) (*ListResult, error) {
	if opts == nil {
		opts = &ListOptions{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.docs[namespace]))
	for key := range m.docs[namespace] {
		if strings.HasPrefix(key, opts.Prefix) && key > opts.Marker {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	result := &ListResult{Documents: []Document{}}
	for _, key := range keys {
		if opts.MaxResults > 0 && len(result.Documents) >= opts.MaxResults {
			result.IsTruncated = true
			break
		}
		result.Documents = append(result.Documents, *copyDocument(m.docs[namespace][key]))
		result.NextMarker = key
	}
	if !result.IsTruncated {
		result.NextMarker = ""
	}

	return result, nil
}

// Close implements DocumentStore.Close
func (m *MemoryDocumentStore) Close() error {
	return nil
}

var _ DocumentStore = (*MemoryDocumentStore)(nil)
