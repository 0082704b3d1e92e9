package storage

import (
	"errors"
	"fmt"
)

// Document store errors
var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrVersionConflict    = errors.New("document version conflict")
	ErrInvalidKey         = errors.New("invalid namespace or key")
	ErrStorageUnavailable = errors.New("document store busy")
	ErrTimeout            = errors.New("document store timeout")
)

// maxKeyLength bounds keys; thing names and secret ids are far shorter
const maxKeyLength = 512

// StorageError is a failed document store call
type StorageError struct {
	Op        string
	Key       string
	Err       error
	Retryable bool
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("document %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("document %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err for the op call on key
func NewStorageError(op, key string, err error, retryable bool) *StorageError {
	return &StorageError{Op: op, Key: key, Err: err, Retryable: retryable}
}

// IsNotFound reports whether the document does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// IsVersionConflict reports whether an expected version did not match
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsRetryable reports whether the call may succeed if repeated. Errors that
// are not StorageErrors are retryable only when busy or timed out.
func IsRetryable(err error) bool {
	var serr *StorageError
	if errors.As(err, &serr) {
		return serr.Retryable
	}
	return errors.Is(err, ErrStorageUnavailable) || errors.Is(err, ErrTimeout)
}

func validateKey(namespace, key string) error {
	switch {
	case namespace == "":
		return fmt.Errorf("%w: empty namespace", ErrInvalidKey)
	case key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	case len(key) > maxKeyLength:
		return fmt.Errorf("%w: key longer than %d bytes", ErrInvalidKey, maxKeyLength)
	}
	return nil
}
