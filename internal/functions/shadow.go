package functions

import (
	"context"
	"fmt"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
)

// shadowCall runs one shadow operation and reads the response into a
// buffer of size bytes
func (e *Examples) shadowCall(size int, what string, call func(req greengrass.Request) (*greengrass.RequestResult, error)) (*Reply, error) {
	var reply *Reply
	err := greengrass.WithRequest(e.Runtime, func(req greengrass.Request) error {
		result, err := call(req)
		if err != nil {
			e.Logger.Errorf("Failed to %s thing shadow: %d", what, greengrass.CodeOf(err))
			return err
		}
		if result.Status != greengrass.RequestSuccess {
			e.Logger.Errorf("Failed to %s thing shadow, request_status %d", what, result.Status)
		}

		reply, err = e.readReply(req, result, size, what+" shadow response")
		if err != nil {
			return err
		}
		e.Logger.Infof("%s shadow response: %s", what, reply.Body)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// UpdateShadow sends an update document for thingName
func (e *Examples) UpdateShadow(ctx context.Context, thingName string, document []byte, size int) (*Reply, error) {
	return e.shadowCall(size, "update", func(req greengrass.Request) (*greengrass.RequestResult, error) {
		return e.Runtime.UpdateThingShadow(ctx, req, thingName, document)
	})
}

// GetShadow reads the shadow document of thingName
func (e *Examples) GetShadow(ctx context.Context, thingName string, size int) (*Reply, error) {
	return e.shadowCall(size, "get", func(req greengrass.Request) (*greengrass.RequestResult, error) {
		return e.Runtime.GetThingShadow(ctx, req, thingName)
	})
}

// DeleteShadow removes the shadow document of thingName
func (e *Examples) DeleteShadow(ctx context.Context, thingName string, size int) (*Reply, error) {
	return e.shadowCall(size, "delete", func(req greengrass.Request) (*greengrass.RequestResult, error) {
		return e.Runtime.DeleteThingShadow(ctx, req, thingName)
	})
}

func desiredMode(mode string) []byte {
	return []byte(fmt.Sprintf(`{"state":{"desired":{"mode":%q}}}`, mode))
}

// RunShadowExample turns the thing's desired mode off and reads the shadow back
func (e *Examples) RunShadowExample(ctx context.Context) (update, get *Reply, err error) {
	update, err = e.UpdateShadow(ctx, e.Config.ThingName, desiredMode("OFF"), ShadowBufferSize)
	if err != nil {
		return nil, nil, err
	}

	get, err = e.GetShadow(ctx, e.Config.ThingName, ShadowBufferSize)
	if err != nil {
		return update, nil, err
	}
	return update, get, nil
}

// ShadowHandler runs the shadow example on every event
func (e *Examples) ShadowHandler(ctx context.Context, inv greengrass.Invocation) {
	e.RunShadowExample(ctx)
}
