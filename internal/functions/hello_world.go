package functions

import (
	"context"
	"errors"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"golang.org/x/time/rate"
)

// HelloWorldHandler ignores its events; the work happens in RunHelloWorld
func (e *Examples) HelloWorldHandler(ctx context.Context, inv greengrass.Invocation) {}

// RunHelloWorld starts the runtime in the background and publishes the
// hello message once per interval until ctx is done
func (e *Examples) RunHelloWorld(ctx context.Context) error {
	if err := e.Runtime.Start(ctx, e.HelloWorldHandler, greengrass.RuntimeOptAsync); err != nil {
		e.Logger.Errorf("Runtime start failed: %d", greengrass.CodeOf(err))
		return err
	}

	limiter := rate.NewLimiter(rate.Every(e.Config.PublishInterval), 1)
	for {
		// Wait only fails when ctx is done or its deadline falls before
		// the next token, both of which end the loop
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}

		err := greengrass.WithRequest(e.Runtime, func(req greengrass.Request) error {
			result, err := e.Runtime.Publish(ctx, req, e.Config.HelloTopic, []byte(e.Config.HelloMessage), nil)
			if err != nil {
				return err
			}
			if result.Status != greengrass.RequestSuccess {
				e.Logger.Errorf("Publish failed with request_status %d", result.Status)
			}
			return nil
		})
		if err != nil {
			e.Logger.Errorf("Publish failed with error %d", greengrass.CodeOf(err))
			if errors.Is(err, greengrass.ErrTerminate) || errors.Is(err, greengrass.ErrNotImplemented) {
				return err
			}
		}
	}
}
