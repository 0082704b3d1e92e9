package greengrass

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

// StubLoadedMessage is printed by every stub operation
const StubLoadedMessage = "ERROR: Loaded stub instead of implementation library!"

// StubRuntime lets handlers build and run outside a Greengrass core.
// Every operation reports that the stub was loaded and fails with
// ErrNotImplemented.
type StubRuntime struct {
	logger *logrus.Logger
}

// NewStubRuntime creates a stub runtime logging to logger, or to stderr if nil
func NewStubRuntime(logger *logrus.Logger) *StubRuntime {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
	}
	return &StubRuntime{logger: logger}
}

func (s *StubRuntime) notImplemented(op string) error {
	s.logger.WithField("op", op).Log(LogError.Logrus(), StubLoadedMessage)
	return &SDKError{Op: op, Err: ErrNotImplemented}
}

// NewRequest implements Runtime.NewRequest
func (s *StubRuntime) NewRequest() (Request, error) {
	return nil, s.notImplemented("NewRequest")
}

// Start implements Runtime.Start
func (s *StubRuntime) Start(ctx context.Context, handler Handler, opt RuntimeOption) error {
	return s.notImplemented("Start")
}

// Publish implements Publisher.Publish
func (s *StubRuntime) Publish(ctx context.Context, req Request, topic string, payload []byte, opts *PublishOptions) (*RequestResult, error) {
	return nil, s.notImplemented("Publish")
}

// Invoke implements Invoker.Invoke
func (s *StubRuntime) Invoke(ctx context.Context, req Request, opts *InvokeOptions) (*RequestResult, error) {
	return nil, s.notImplemented("Invoke")
}

// GetThingShadow implements ShadowClient.GetThingShadow
func (s *StubRuntime) GetThingShadow(ctx context.Context, req Request, thingName string) (*RequestResult, error) {
	return nil, s.notImplemented("GetThingShadow")
}

// UpdateThingShadow implements ShadowClient.UpdateThingShadow
func (s *StubRuntime) UpdateThingShadow(ctx context.Context, req Request, thingName string, document []byte) (*RequestResult, error) {
	return nil, s.notImplemented("UpdateThingShadow")
}

// DeleteThingShadow implements ShadowClient.DeleteThingShadow
func (s *StubRuntime) DeleteThingShadow(ctx context.Context, req Request, thingName string) (*RequestResult, error) {
	return nil, s.notImplemented("DeleteThingShadow")
}

// GetSecretValue implements SecretClient.GetSecretValue
func (s *StubRuntime) GetSecretValue(ctx context.Context, req Request, secret *SecretRequest) (*RequestResult, error) {
	return nil, s.notImplemented("GetSecretValue")
}

var _ Runtime = (*StubRuntime)(nil)
