package functions

import (
	"context"
	"fmt"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
)

// SimpleHandler logs the invocation context and the event it received
func (e *Examples) SimpleHandler(ctx context.Context, inv greengrass.Invocation) {
	lc := inv.Context()
	e.Logger.Infof("function arn: [%s]", lc.FunctionARN)
	e.Logger.Infof("client context: [%s]", lc.ClientContext)

	message := make([]byte, MessageSize)
	n, err := e.read(inv, message, "data")
	if err != nil {
		return
	}

	e.Logger.Infof("Received message: [%s] size: [%d]", message[:n], n)
}

// Invokee answers "<event> world", or an error when the answer does not
// fit in a message
func (e *Examples) Invokee(ctx context.Context, inv greengrass.Invocation) {
	e.Logger.Infof("Client context: %s", inv.Context().ClientContext)

	input := make([]byte, MessageSize)
	n, err := e.read(inv, input, "data")
	if err != nil {
		return
	}

	output := fmt.Sprintf("%s world", input[:n])
	if len(output) >= MessageSize {
		e.Logger.Errorf("Failed to format output. return code: %d", len(output))
		if err := inv.WriteError(fmt.Sprintf("Failed to process event: %d", len(output))); err != nil {
			e.Logger.Errorf("Failed to send error back: %d", greengrass.CodeOf(err))
		}
		return
	}

	e.Logger.Infof("Return output: %s size: %d", output, len(output))
	if err := inv.WriteResponse([]byte(output)); err != nil {
		e.Logger.Errorf("Failed to send response: %d", greengrass.CodeOf(err))
	}
}
