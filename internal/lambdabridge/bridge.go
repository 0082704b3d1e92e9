// Package lambdabridge runs greengrass handlers as plain AWS Lambda
// functions. Events arrive through aws-lambda-go; the other runtime
// operations go to a fallback runtime.
package lambdabridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/local"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/sirupsen/logrus"
)

// FunctionError is returned to the Lambda service when a handler wrote an
// error message or exited abnormally
type FunctionError struct {
	Status  greengrass.RequestStatus
	Message string
}

func (e *FunctionError) Error() string {
	return e.Message
}

// Runtime serves handler invocations from the Lambda runtime API
type Runtime struct {
	greengrass.Runtime

	// ClientContext is given to handlers when the Lambda invocation has no
	// custom client context
	ClientContext string

	chunkSize int
	logger    *logrus.Logger
	start     func(handler interface{})
}

// New creates a bridge. Publish, invoke, shadow and secret calls go to
// fallback, which defaults to the stub runtime.
func New(fallback greengrass.Runtime, chunkSize int, logger *logrus.Logger) *Runtime {
	if logger == nil {
		logger = logrus.New()
	}
	if fallback == nil {
		fallback = greengrass.NewStubRuntime(logger)
	}
	if chunkSize <= 0 {
		chunkSize = 4096
	}

	return &Runtime{
		Runtime:   fallback,
		chunkSize: chunkSize,
		logger:    logger,
		start:     awslambda.Start,
	}
}

// Start hands handler to the Lambda runtime loop. The loop never returns,
// so with RuntimeOptAsync it runs in the background.
func (r *Runtime) Start(ctx context.Context, handler greengrass.Handler, opt greengrass.RuntimeOption) error {
	if handler == nil {
		return &greengrass.SDKError{Op: "Start", Err: greengrass.ErrInvalidParameter}
	}
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") == "" {
		r.logger.Warn("AWS_LAMBDA_RUNTIME_API is not set, the Lambda runtime loop will fail to connect")
	}

	h := r.Handler(handler)
	r.logger.WithField("async", opt&greengrass.RuntimeOptAsync != 0).Info("Starting Lambda runtime loop")

	if opt&greengrass.RuntimeOptAsync != 0 {
		go r.start(h)
		return nil
	}

	r.start(h)
	return nil
}

// Handler adapts a greengrass handler to the aws-lambda-go handler interface
func (r *Runtime) Handler(handler greengrass.Handler) awslambda.Handler {
	return &bridgeHandler{runtime: r, handler: handler}
}

type bridgeHandler struct {
	runtime *Runtime
	handler greengrass.Handler
}

// Invoke implements lambda.Handler
func (b *bridgeHandler) Invoke(ctx context.Context, payload []byte) ([]byte, error) {
	lc := b.runtime.invocationContext(ctx)
	logger := b.runtime.logger.WithField("function_arn", lc.FunctionARN)
	if awsCtx, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.WithField("aws_request_id", awsCtx.AwsRequestID)
	}

	inv := local.NewInvocation(lc, payload, b.runtime.chunkSize)
	out := local.Run(ctx, b.handler, inv, b.runtime.logger)

	logger.WithFields(logrus.Fields{
		"status":        out.Status.String(),
		"payload_size":  len(payload),
		"response_size": len(out.Body),
	}).Debug("Invocation finished")

	if out.Status != greengrass.RequestSuccess {
		return nil, &FunctionError{Status: out.Status, Message: string(out.Body)}
	}
	if out.Body == nil {
		return []byte{}, nil
	}
	return out.Body, nil
}

// invocationContext builds the handler's context from the Lambda context.
// Custom client context values are passed on as base64 encoded JSON.
func (r *Runtime) invocationContext(ctx context.Context) greengrass.LambdaContext {
	lc := greengrass.LambdaContext{
		FunctionARN:   os.Getenv("MY_FUNCTION_ARN"),
		ClientContext: r.ClientContext,
	}

	awsCtx, ok := lambdacontext.FromContext(ctx)
	if !ok {
		return lc
	}
	if awsCtx.InvokedFunctionArn != "" {
		lc.FunctionARN = awsCtx.InvokedFunctionArn
	}
	if len(awsCtx.ClientContext.Custom) > 0 {
		custom, err := json.Marshal(map[string]interface{}{"custom": awsCtx.ClientContext.Custom})
		if err == nil {
			lc.ClientContext = base64.StdEncoding.EncodeToString(custom)
		}
	}
	return lc
}

var _ greengrass.Runtime = (*Runtime)(nil)
