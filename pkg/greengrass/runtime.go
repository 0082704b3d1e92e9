package greengrass

import (
	"context"
)

// Request is an in-flight operation handle.
//
// A request is created by Runtime.NewRequest, used by one operation at a
// time from one goroutine, read through ReadChunk and released with Close.
type Request interface {
	// ReadChunk reads the next chunk of the response to the last operation
	ChunkReader

	ID() string
	Close() error
}

// Publisher publishes messages to a topic
type Publisher interface {
	Publish(ctx context.Context, req Request, topic string, payload []byte, opts *PublishOptions) (*RequestResult, error)
}

// Invoker invokes other functions
type Invoker interface {
	Invoke(ctx context.Context, req Request, opts *InvokeOptions) (*RequestResult, error)
}

// ShadowClient reads and writes local thing shadow documents
type ShadowClient interface {
	GetThingShadow(ctx context.Context, req Request, thingName string) (*RequestResult, error)
	UpdateThingShadow(ctx context.Context, req Request, thingName string, document []byte) (*RequestResult, error)
	DeleteThingShadow(ctx context.Context, req Request, thingName string) (*RequestResult, error)
}

// SecretClient fetches secrets deployed to the core
type SecretClient interface {
	GetSecretValue(ctx context.Context, req Request, secret *SecretRequest) (*RequestResult, error)
}

// Runtime is the host runtime binding the handlers run against
type Runtime interface {
	Publisher
	Invoker
	ShadowClient
	SecretClient

	NewRequest() (Request, error)

	// Start serves invocations with handler. Unless RuntimeOptAsync is set
	// it blocks until ctx is done or the runtime stops.
	Start(ctx context.Context, handler Handler, opt RuntimeOption) error
}

// RequestFactory creates request handles
type RequestFactory interface {
	NewRequest() (Request, error)
}

// WithRequest creates a request, passes it to fn and closes it on every path.
// A close failure is returned only when fn succeeded.
func WithRequest(rf RequestFactory, fn func(req Request) error) (err error) {
	req, err := rf.NewRequest()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := req.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(req)
}

// Response is the outcome of draining a response into a caller buffer
type Response struct {
	Body      []byte
	Truncated bool
}

// ReadResponse drains req into buf. Body aliases buf and holds the bytes
// read, including on error. Truncated is set when the buffer was filled.
func ReadResponse(req ChunkReader, buf []byte) (*Response, error) {
	n, err := Drain(req, buf)
	return &Response{Body: buf[:n], Truncated: Filled(n, buf)}, err
}
