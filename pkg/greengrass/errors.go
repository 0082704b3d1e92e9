package greengrass

import (
	"errors"
	"fmt"
)

// Code is the numeric error code reported by the SDK
type Code int

const (
	CodeSuccess Code = iota
	CodeOutOfMemory
	CodeInvalidParameter
	CodeInvalidState
	CodeInternalFailure
	CodeTerminate
	CodeReservedMax
)

// SDK error kinds
var (
	ErrOutOfMemory      = errors.New("out of memory")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidState     = errors.New("invalid state")
	ErrInternalFailure  = errors.New("internal failure")
	ErrTerminate        = errors.New("runtime terminated")
	ErrNotImplemented   = errors.New("not implemented")
)

// SDKError is an SDK operation failure with the operation name attached
type SDKError struct {
	Op  string // Operation that failed (e.g., "Publish", "ReadChunk")
	Err error  // Underlying error
}

func (e *SDKError) Error() string {
	return fmt.Sprintf("greengrass %s failed: %v", e.Op, e.Err)
}

func (e *SDKError) Unwrap() error {
	return e.Err
}

// ChunkOverflowError reports a chunk source that claimed more bytes than it was offered
type ChunkOverflowError struct {
	Offered  int
	Returned int
}

func (e *ChunkOverflowError) Error() string {
	return fmt.Sprintf("chunk read returned %d bytes for a %d byte chunk", e.Returned, e.Offered)
}

// CodeOf maps an error onto the SDK error code, for log lines
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeSuccess
	case errors.Is(err, ErrOutOfMemory):
		return CodeOutOfMemory
	case errors.Is(err, ErrInvalidParameter):
		return CodeInvalidParameter
	case errors.Is(err, ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, ErrTerminate):
		return CodeTerminate
	case errors.Is(err, ErrNotImplemented):
		return CodeReservedMax
	default:
		return CodeInternalFailure
	}
}

// IsNotImplemented returns true if the error came from the stub runtime
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}
