// Package local implements greengrass.Runtime in process, for local runs and
// tests. Functions, subscriptions, shadows and secrets live in this process;
// documents are kept in a storage.DocumentStore.
package local

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/adapters/storage"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/sirupsen/logrus"
)

// Options configures a Runtime
type Options struct {
	FunctionARN string
	ChunkSize   int
	QueueSize   int
	Store       storage.DocumentStore
	Logger      *logrus.Logger
	Clock       func() time.Time
}

// DefaultOptions returns options with an in-memory store
func DefaultOptions() Options {
	return Options{
		FunctionARN: "arn:aws:lambda:us-west-2:123456789012:function:Local:1",
		ChunkSize:   4096,
		QueueSize:   64,
	}
}

// Runtime is an in-process greengrass.Runtime
type Runtime struct {
	functionARN string
	chunkSize   int
	region      string
	account     string
	store       storage.DocumentStore
	logger      *logrus.Logger
	now         func() time.Time

	mu            sync.RWMutex
	functions     map[string]greengrass.Handler
	subscriptions []subscription

	outbox chan Message
	wg     sync.WaitGroup
}

// New creates a Runtime
func New(opts Options) (*Runtime, error) {
	if opts.FunctionARN == "" {
		return nil, fmt.Errorf("function ARN is required")
	}
	region, account, err := arnLocation(opts.FunctionARN)
	if err != nil {
		return nil, err
	}
	if opts.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", opts.ChunkSize)
	}
	if opts.QueueSize <= 0 {
		return nil, fmt.Errorf("queue size must be positive, got %d", opts.QueueSize)
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryDocumentStore()
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Runtime{
		functionARN: opts.FunctionARN,
		chunkSize:   opts.ChunkSize,
		region:      region,
		account:     account,
		store:       opts.Store,
		logger:      opts.Logger,
		now:         opts.Clock,
		functions:   make(map[string]greengrass.Handler),
		outbox:      make(chan Message, opts.QueueSize),
	}, nil
}

// FunctionARN returns the ARN Start registers the handler under
func (rt *Runtime) FunctionARN() string {
	return rt.functionARN
}

// Store returns the document store behind shadows and secrets
func (rt *Runtime) Store() storage.DocumentStore {
	return rt.store
}

// NewRequest implements greengrass.Runtime
func (rt *Runtime) NewRequest() (greengrass.Request, error) {
	return newRequest(rt.chunkSize), nil
}

// Start implements greengrass.Runtime. The handler is registered under the
// runtime's own function ARN.
func (rt *Runtime) Start(ctx context.Context, handler greengrass.Handler, opt greengrass.RuntimeOption) error {
	if handler == nil {
		return &greengrass.SDKError{Op: "Start", Err: greengrass.ErrInvalidParameter}
	}
	if err := rt.Register(rt.functionARN, handler); err != nil {
		return err
	}

	rt.logger.WithFields(logrus.Fields{
		"function_arn": rt.functionARN,
		"async":        opt&greengrass.RuntimeOptAsync != 0,
	}).Info("Runtime started")

	if opt&greengrass.RuntimeOptAsync != 0 {
		return nil
	}

	<-ctx.Done()
	rt.Wait()
	rt.logger.Info("Runtime stopped")
	return nil
}

// Wait blocks until every asynchronous invocation has finished
func (rt *Runtime) Wait() {
	rt.wg.Wait()
}

// own returns the local request behind req, checking it is usable
func (rt *Runtime) own(op string, req greengrass.Request) (*request, error) {
	r, ok := req.(*request)
	if !ok || r == nil {
		return nil, &greengrass.SDKError{Op: op, Err: fmt.Errorf("%w: foreign request handle", greengrass.ErrInvalidParameter)}
	}
	if r.closed {
		return nil, &greengrass.SDKError{Op: op, Err: greengrass.ErrInvalidState}
	}
	return r, nil
}

// arnLocation extracts region and account from a Lambda function ARN
func arnLocation(arn string) (region, account string, err error) {
	parts := strings.Split(arn, ":")
	if len(parts) < 7 || parts[0] != "arn" || parts[2] != "lambda" || parts[5] != "function" {
		return "", "", fmt.Errorf("invalid function ARN: %s", arn)
	}
	return parts[3], parts[4], nil
}

var _ greengrass.Runtime = (*Runtime)(nil)
