package local

import (
	"context"
	"fmt"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/sirupsen/logrus"
)

// Invocation carries one event to a handler and collects what it writes back
type Invocation struct {
	lc        greengrass.LambdaContext
	payload   []byte
	offset    int
	chunkSize int

	written  bool
	response []byte
	errMsg   string
	failed   bool
}

// NewInvocation creates an invocation of the function described by lc
func NewInvocation(lc greengrass.LambdaContext, payload []byte, chunkSize int) *Invocation {
	return &Invocation{
		lc:        lc,
		payload:   append([]byte(nil), payload...),
		chunkSize: chunkSize,
	}
}

// ReadChunk implements greengrass.Invocation
func (i *Invocation) ReadChunk(p []byte) (int, error) {
	return readChunk(i.payload, &i.offset, i.chunkSize, p), nil
}

// Context implements greengrass.Invocation
func (i *Invocation) Context() *greengrass.LambdaContext {
	lc := i.lc
	return &lc
}

// WriteResponse implements greengrass.Invocation
func (i *Invocation) WriteResponse(response []byte) error {
	if i.written {
		return &greengrass.SDKError{Op: "WriteResponse", Err: greengrass.ErrInvalidState}
	}
	i.written = true
	i.response = append([]byte(nil), response...)
	return nil
}

// WriteError implements greengrass.Invocation
func (i *Invocation) WriteError(message string) error {
	if i.written {
		return &greengrass.SDKError{Op: "WriteError", Err: greengrass.ErrInvalidState}
	}
	i.written = true
	i.failed = true
	i.errMsg = message
	return nil
}

// Outcome is the result of running a handler
type Outcome struct {
	Status greengrass.RequestStatus
	Body   []byte
}

// Run calls handler with inv and turns what happened into an Outcome.
// A panicking handler yields RequestUnhandled.
func Run(ctx context.Context, handler greengrass.Handler, inv *Invocation, logger *logrus.Logger) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"function_arn": inv.lc.FunctionARN,
				"panic":        r,
			}).Error("Handler exited abnormally")
			out = Outcome{
				Status: greengrass.RequestUnhandled,
				Body:   []byte(fmt.Sprintf("Function %s exited abnormally: %v", inv.lc.FunctionARN, r)),
			}
		}
	}()

	handler(ctx, inv)

	if inv.failed {
		return Outcome{Status: greengrass.RequestHandled, Body: []byte(inv.errMsg)}
	}
	return Outcome{Status: greengrass.RequestSuccess, Body: inv.response}
}

var _ greengrass.Invocation = (*Invocation)(nil)
