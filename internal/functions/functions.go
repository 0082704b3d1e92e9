// Package functions holds the example Lambda functions. Each one talks to
// the runtime through greengrass.Runtime and reads every response with a
// caller-owned, fixed-size buffer.
package functions

import (
	"github.com/aws/aws-greengrass-core-sdk-c/internal/config"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/sirupsen/logrus"
)

// Buffer sizes used by the examples
const (
	MessageSize      = 100
	ResponseSize     = 128
	ErrorBufferSize  = 128
	ShadowBufferSize = 512
	SecretBufferSize = 512
	ReadBufferSize   = 8192
)

// Examples holds what the example functions need
type Examples struct {
	Runtime greengrass.Runtime
	Config  config.ExamplesConfig
	Logger  *logrus.Logger
	Tables  TableLister
}

// NewExamples creates the example functions
func NewExamples(rt greengrass.Runtime, cfg config.ExamplesConfig, logger *logrus.Logger) *Examples {
	if logger == nil {
		logger = logrus.New()
	}

	return &Examples{
		Runtime: rt,
		Config:  cfg,
		Logger:  logger,
	}
}

// Reply is the status and body of a runtime request as an example saw it
type Reply struct {
	Status greengrass.RequestStatus
	Body   string
}

// read drains src into buf. Failures are logged with the amount read and
// requested; a full buffer is logged as a possible truncation.
func (e *Examples) read(src greengrass.ChunkReader, buf []byte, what string) (int, error) {
	n, err := greengrass.Drain(src, buf)
	if err != nil {
		e.Logger.Errorf("Failed to read %s. amount_read(%d), amount_requested(%d), err(%d)",
			what, n, len(buf), greengrass.CodeOf(err))
		return n, err
	}

	if greengrass.Filled(n, buf) {
		e.Logger.WithFields(logrus.Fields{
			"buffer_size": len(buf),
		}).Warnf("Read of %s filled the buffer, the response may be truncated", what)
	}
	return n, nil
}

// readReply reads the response of req into a buffer of size bytes
func (e *Examples) readReply(req greengrass.Request, result *greengrass.RequestResult, size int, what string) (*Reply, error) {
	buf := make([]byte, size)
	n, err := e.read(req, buf, what)
	if err != nil {
		return nil, err
	}
	return &Reply{Status: result.Status, Body: string(buf[:n])}, nil
}

// Handlers maps function names to the handlers the examples start with
func (e *Examples) Handlers() map[string]greengrass.Handler {
	return map[string]greengrass.Handler{
		"simple-handler": e.SimpleHandler,
		"invokee":        e.Invokee,
		"invoker":        e.InvokerHandler,
		"publish":        e.PublishHandler,
		"hello-world":    e.HelloWorldHandler,
		"shadow":         e.ShadowHandler,
		"secrets":        e.SecretsHandler,
		"customer":       e.CustomerHandler,
		"tes":            e.TESHandler,
	}
}
