package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/database"
	"github.com/sirupsen/logrus"
)

func newSQLiteStore(t *testing.T) DocumentStore {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests

	config := database.DefaultConnectionConfig()
	config.DatabasePath = filepath.Join(t.TempDir(), "store.db")
	config.Logger = logger

	cm := database.NewConnectionManager(config)
	if err := cm.Open(); err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	return NewSQLiteDocumentStore(cm.GetDB(), cm.Close)
}

// testDocumentStore runs the behaviour every DocumentStore must share
func testDocumentStore(t *testing.T, newStore func(t *testing.T) DocumentStore) {
	ctx := context.Background()

	t.Run("PutAndGet", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		doc, err := store.Put(ctx, NamespaceShadow, "foo", []byte(`{"a":1}`), 0)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if doc.Version != 1 {
			t.Errorf("Expected version 1, got %d", doc.Version)
		}

		got, err := store.Get(ctx, NamespaceShadow, "foo")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got.Body) != `{"a":1}` {
			t.Errorf("Body mismatch: got %q", got.Body)
		}
		if got.Version != 1 || got.Namespace != NamespaceShadow || got.Key != "foo" {
			t.Errorf("Unexpected document: %+v", got)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		_, err := store.Get(ctx, NamespaceShadow, "missing")
		if !IsNotFound(err) {
			t.Errorf("Expected not found error, got %v", err)
		}
	})

	t.Run("NamespacesAreSeparate", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		if _, err := store.Put(ctx, NamespaceShadow, "foo", []byte("shadow"), AnyVersion); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		_, err := store.Get(ctx, NamespaceSecret, "foo")
		if !IsNotFound(err) {
			t.Errorf("Expected not found in other namespace, got %v", err)
		}
	})

	t.Run("VersionCheck", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		if _, err := store.Put(ctx, NamespaceShadow, "foo", []byte("v1"), 0); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		_, err := store.Put(ctx, NamespaceShadow, "foo", []byte("again"), 0)
		if !IsVersionConflict(err) {
			t.Errorf("Expected version conflict creating twice, got %v", err)
		}

		_, err = store.Put(ctx, NamespaceShadow, "foo", []byte("stale"), 5)
		if !IsVersionConflict(err) {
			t.Errorf("Expected version conflict for stale version, got %v", err)
		}

		doc, err := store.Put(ctx, NamespaceShadow, "foo", []byte("v2"), 1)
		if err != nil {
			t.Fatalf("Put with matching version failed: %v", err)
		}
		if doc.Version != 2 {
			t.Errorf("Expected version 2, got %d", doc.Version)
		}

		doc, err = store.Put(ctx, NamespaceShadow, "foo", []byte("v3"), AnyVersion)
		if err != nil {
			t.Fatalf("Put with AnyVersion failed: %v", err)
		}
		if doc.Version != 3 {
			t.Errorf("Expected version 3, got %d", doc.Version)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		store.Put(ctx, NamespaceShadow, "foo", []byte("v1"), AnyVersion)
		store.Put(ctx, NamespaceShadow, "foo", []byte("v2"), AnyVersion)

		version, err := store.Delete(ctx, NamespaceShadow, "foo")
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if version != 2 {
			t.Errorf("Expected deleted version 2, got %d", version)
		}

		if _, err := store.Get(ctx, NamespaceShadow, "foo"); !IsNotFound(err) {
			t.Errorf("Expected not found after delete, got %v", err)
		}

		if _, err := store.Delete(ctx, NamespaceShadow, "foo"); !IsNotFound(err) {
			t.Errorf("Expected not found deleting twice, got %v", err)
		}

		result, err := store.List(ctx, NamespaceShadow, nil)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(result.Documents) != 0 {
			t.Errorf("Deleted document should not be listed, got %+v", result.Documents)
		}

		// The deleted version no longer matches, only a create does
		if _, err := store.Put(ctx, NamespaceShadow, "foo", []byte("stale"), 2); !IsVersionConflict(err) {
			t.Errorf("Expected version conflict against a deleted document, got %v", err)
		}

		// A recreated document continues after the deleted version
		doc, err := store.Put(ctx, NamespaceShadow, "foo", []byte("new"), 0)
		if err != nil {
			t.Fatalf("Put after delete failed: %v", err)
		}
		if doc.Version != 3 {
			t.Errorf("Expected version 3 after recreate, got %d", doc.Version)
		}

		got, err := store.Get(ctx, NamespaceShadow, "foo")
		if err != nil || got.Version != 3 || string(got.Body) != "new" {
			t.Errorf("Unexpected recreated document %+v: %v", got, err)
		}
	})

	t.Run("InvalidKey", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		if _, err := store.Put(ctx, NamespaceShadow, "", []byte("x"), AnyVersion); err == nil {
			t.Error("Put should fail for empty key")
		}
		if _, err := store.Get(ctx, "", "foo"); err == nil {
			t.Error("Get should fail for empty namespace")
		}
	})

	t.Run("ListPagination", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		for i := 0; i < 5; i++ {
			key := fmt.Sprintf("foo/%d", i)
			if _, err := store.Put(ctx, NamespaceSecret, key, []byte(key), AnyVersion); err != nil {
				t.Fatalf("Put %s failed: %v", key, err)
			}
		}
		store.Put(ctx, NamespaceSecret, "bar", []byte("bar"), AnyVersion)
		store.Put(ctx, NamespaceShadow, "foo/x", []byte("other"), AnyVersion)

		var keys []string
		opts := &ListOptions{Prefix: "foo/", MaxResults: 2}
		for pages := 0; ; pages++ {
			if pages > 5 {
				t.Fatal("Pagination did not terminate")
			}

			result, err := store.List(ctx, NamespaceSecret, opts)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			for _, doc := range result.Documents {
				keys = append(keys, doc.Key)
			}
			if !result.IsTruncated {
				if result.NextMarker != "" {
					t.Errorf("NextMarker should be empty on last page, got %q", result.NextMarker)
				}
				break
			}
			opts.Marker = result.NextMarker
		}

		expected := []string{"foo/0", "foo/1", "foo/2", "foo/3", "foo/4"}
		if fmt.Sprint(keys) != fmt.Sprint(expected) {
			t.Errorf("Listed keys mismatch: got %v, want %v", keys, expected)
		}
	})

	t.Run("ListEmpty", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		result, err := store.List(ctx, NamespaceShadow, nil)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(result.Documents) != 0 || result.IsTruncated {
			t.Errorf("Expected empty result, got %+v", result)
		}
	})
}

func TestMemoryDocumentStore(t *testing.T) {
	testDocumentStore(t, func(t *testing.T) DocumentStore {
		return NewMemoryDocumentStore()
	})
}

func TestSQLiteDocumentStore(t *testing.T) {
	testDocumentStore(t, newSQLiteStore)
}

func TestSQLiteDocumentStore_LiteralPrefix(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)
	defer store.Close()

	store.Put(ctx, NamespaceSecret, "a_b", []byte("1"), AnyVersion)
	store.Put(ctx, NamespaceSecret, "axb", []byte("2"), AnyVersion)

	result, err := store.List(ctx, NamespaceSecret, &ListOptions{Prefix: "a_"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result.Documents) != 1 || result.Documents[0].Key != "a_b" {
		t.Errorf("Prefix should match literally, got %+v", result.Documents)
	}
}

func TestMemoryDocumentStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore()

	body := []byte("original")
	store.Put(ctx, NamespaceShadow, "foo", body, AnyVersion)
	body[0] = 'X'

	doc, _ := store.Get(ctx, NamespaceShadow, "foo")
	doc.Body[1] = 'Y'

	again, _ := store.Get(ctx, NamespaceShadow, "foo")
	if string(again.Body) != "original" {
		t.Errorf("Stored body was mutated: %q", again.Body)
	}
}
