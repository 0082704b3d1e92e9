package functions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/retry"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
)

var errQueueFull = errors.New("publish queue is full")

// publishRetry is used while the runtime reports a full publish queue
var publishRetry = &retry.Config{
	MaxAttempts:   5,
	InitialDelay:  50 * time.Millisecond,
	MaxDelay:      time.Second,
	BackoffFactor: 2.0,
	JitterEnabled: true,
}

// PublishToCloud publishes payload to topic, failing rather than dropping
// when the queue is full. Throttled publishes are retried.
func (e *Examples) PublishToCloud(ctx context.Context, topic string, payload []byte) (*Reply, error) {
	opts := greengrass.NewPublishOptions()
	if err := opts.SetQueueFullPolicy(greengrass.QueueFullAllOrError); err != nil {
		e.Logger.Errorf("Failed to set publish option: %d", greengrass.CodeOf(err))
		return nil, err
	}

	var reply *Reply
	err := retry.Do(ctx, publishRetry, func(err error) bool {
		return errors.Is(err, errQueueFull)
	}, func(ctx context.Context) error {
		return greengrass.WithRequest(e.Runtime, func(req greengrass.Request) error {
			result, err := e.Runtime.Publish(ctx, req, topic, payload, opts)
			if err != nil {
				e.Logger.Errorf("Failed to publish: %d", greengrass.CodeOf(err))
				return err
			}
			e.Logger.Infof("Publish had result request_status %d", result.Status)

			reply, err = e.readReply(req, result, ErrorBufferSize, "publish response")
			if err != nil {
				return err
			}
			if result.Status == greengrass.RequestAgain {
				return fmt.Errorf("%w: %s", errQueueFull, reply.Body)
			}
			return nil
		})
	})
	if err != nil && !errors.Is(err, errQueueFull) {
		return nil, err
	}

	return reply, nil
}

// PublishHandler publishes "hello from: <function arn>" on every event
func (e *Examples) PublishHandler(ctx context.Context, inv greengrass.Invocation) {
	message := fmt.Sprintf("hello from: %s", inv.Context().FunctionARN)
	e.PublishToCloud(ctx, e.Config.CloudTopic, []byte(message))
}
