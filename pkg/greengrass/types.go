package greengrass

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// RequestStatus is the outcome the runtime reports for a request
type RequestStatus int

const (
	// RequestSuccess means the request succeeded and the response holds the result
	RequestSuccess RequestStatus = iota
	// RequestHandled means the target handled the request but returned an error message
	RequestHandled
	// RequestUnhandled means the target failed without producing a response
	RequestUnhandled
	// RequestUnknown means the runtime could not determine the outcome
	RequestUnknown
	// RequestAgain means the request was throttled and may be retried
	RequestAgain
)

func (s RequestStatus) String() string {
	switch s {
	case RequestSuccess:
		return "success"
	case RequestHandled:
		return "handled"
	case RequestUnhandled:
		return "unhandled"
	case RequestUnknown:
		return "unknown"
	case RequestAgain:
		return "again"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// RequestResult is filled in by every request-based operation
type RequestResult struct {
	Status RequestStatus `json:"request_status"`
}

// LogLevel mirrors the SDK log levels
type LogLevel int

const (
	LogDebug LogLevel = iota + 1
	LogInfo
	LogWarn
	LogError
	LogFatal
)

// Logrus maps the SDK level onto the logrus level used by the logger
func (l LogLevel) Logrus() logrus.Level {
	switch l {
	case LogDebug:
		return logrus.DebugLevel
	case LogInfo:
		return logrus.InfoLevel
	case LogWarn:
		return logrus.WarnLevel
	case LogFatal:
		return logrus.FatalLevel
	default:
		return logrus.ErrorLevel
	}
}

// InvokeType selects how a function is invoked
type InvokeType int

const (
	// InvokeEvent invokes asynchronously and discards the response
	InvokeEvent InvokeType = iota
	// InvokeRequestResponse waits for the response
	InvokeRequestResponse
)

// RuntimeOption controls Runtime.Start
type RuntimeOption uint32

const (
	// RuntimeOptAsync makes Start return once the runtime is serving
	RuntimeOptAsync RuntimeOption = 0x1
)

// QueueFullPolicy decides what a publish does when the outbound queue is full
type QueueFullPolicy int

const (
	// QueueFullBestEffort enqueues what fits and reports success
	QueueFullBestEffort QueueFullPolicy = iota
	// QueueFullAllOrError fails the publish unless every message is enqueued
	QueueFullAllOrError
)

// LambdaContext describes the function being invoked
type LambdaContext struct {
	FunctionARN   string `json:"function_arn"`
	ClientContext string `json:"client_context"`
}

// InvokeOptions describes a function invocation
type InvokeOptions struct {
	FunctionARN     string     `json:"function_arn" validate:"required,startswith=arn:"`
	CustomerContext string     `json:"customer_context,omitempty" validate:"omitempty,base64"`
	Qualifier       string     `json:"qualifier,omitempty" validate:"omitempty,max=128"`
	Type            InvokeType `json:"type" validate:"oneof=0 1"`
	Payload         []byte     `json:"payload,omitempty"`
}

// PublishOptions holds optional publish settings
type PublishOptions struct {
	QueueFullPolicy QueueFullPolicy `json:"queue_full_policy" validate:"oneof=0 1"`
}

// NewPublishOptions returns options with the default best-effort policy
func NewPublishOptions() *PublishOptions {
	return &PublishOptions{QueueFullPolicy: QueueFullBestEffort}
}

// SetQueueFullPolicy sets the queue full policy
func (o *PublishOptions) SetQueueFullPolicy(policy QueueFullPolicy) error {
	if policy != QueueFullBestEffort && policy != QueueFullAllOrError {
		return &SDKError{Op: "SetQueueFullPolicy", Err: ErrInvalidParameter}
	}
	o.QueueFullPolicy = policy
	return nil
}

// SecretRequest identifies a secret value to fetch
type SecretRequest struct {
	SecretID     string `json:"secret_id" validate:"required,max=2048"`
	VersionID    string `json:"version_id,omitempty" validate:"omitempty,max=64"`
	VersionStage string `json:"version_stage,omitempty" validate:"omitempty,max=256"`
}

// Invocation is the handler-side view of one invocation
type Invocation interface {
	// ReadChunk reads the next chunk of the event payload
	ChunkReader

	Context() *LambdaContext
	WriteResponse(response []byte) error
	WriteError(message string) error
}

// Handler processes one invocation
type Handler func(ctx context.Context, inv Invocation)
