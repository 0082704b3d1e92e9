package functions

import (
	"context"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
)

// InvokeALambda invokes the configured invokee with "hello" and reads its
// response or error message
func (e *Examples) InvokeALambda(ctx context.Context) (*Reply, error) {
	opts := &greengrass.InvokeOptions{
		FunctionARN:     e.Config.InvokeeARN,
		CustomerContext: e.Config.InvokeContext,
		Qualifier:       e.Config.InvokeQualifier,
		Type:            greengrass.InvokeRequestResponse,
		Payload:         []byte("hello"),
	}

	var reply *Reply
	err := greengrass.WithRequest(e.Runtime, func(req greengrass.Request) error {
		result, err := e.Runtime.Invoke(ctx, req, opts)
		if err != nil {
			e.Logger.Errorf("Invoke failed with client error: %d", greengrass.CodeOf(err))
			return err
		}

		switch result.Status {
		case greengrass.RequestSuccess:
			reply, err = e.readReply(req, result, ResponseSize, "data")
			if err != nil {
				return err
			}
			e.Logger.Infof("Response: %s read: %d", reply.Body, len(reply.Body))
		case greengrass.RequestHandled, greengrass.RequestUnhandled:
			reply, err = e.readReply(req, result, ErrorBufferSize, "error message")
			if err != nil {
				return err
			}
			e.Logger.Infof("Lambda invocation failed. error: %s status: %d", reply.Body, result.Status)
		default:
			e.Logger.Errorf("Some other errors happened: %d", result.Status)
			reply = &Reply{Status: result.Status}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return reply, nil
}

// InvokerHandler invokes the invokee on every event
func (e *Examples) InvokerHandler(ctx context.Context, inv greengrass.Invocation) {
	e.InvokeALambda(ctx)
}
