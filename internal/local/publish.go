package local

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Message is a published message waiting in the outbox
type Message struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Payload   []byte    `json:"payload"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// subscription routes messages matching filter to a local function
type subscription struct {
	filter string
	target string
}

// Subscribe routes messages whose topic matches the MQTT filter to the
// function registered under target
func (rt *Runtime) Subscribe(filter, target string) error {
	if err := ValidateFilter(filter); err != nil {
		return &greengrass.SDKError{Op: "Subscribe", Err: fmt.Errorf("%w: %v", greengrass.ErrInvalidParameter, err)}
	}
	if _, _, err := arnLocation(target); err != nil {
		return &greengrass.SDKError{Op: "Subscribe", Err: fmt.Errorf("%w: %v", greengrass.ErrInvalidParameter, err)}
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.subscriptions = append(rt.subscriptions, subscription{filter: filter, target: target})
	return nil
}

// Publish implements greengrass.Runtime
func (rt *Runtime) Publish(ctx context.Context, req greengrass.Request, topic string, payload []byte, opts *greengrass.PublishOptions) (*greengrass.RequestResult, error) {
	r, err := rt.own("Publish", req)
	if err != nil {
		return nil, err
	}
	if err := greengrass.ValidateTopic(topic); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = greengrass.NewPublishOptions()
	}
	if err := greengrass.Validate("Publish", opts); err != nil {
		return nil, err
	}

	msg := Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   append([]byte(nil), payload...),
		Source:    rt.functionARN,
		Timestamp: rt.now().UTC(),
	}

	logger := rt.logger.WithFields(logrus.Fields{
		"topic":      topic,
		"size":       len(payload),
		"request_id": r.id,
	})

	select {
	case rt.outbox <- msg:
	default:
		if opts.QueueFullPolicy == greengrass.QueueFullAllOrError {
			logger.Warn("Publish queue full, rejecting message")
			r.respond([]byte("Publish queue is full"))
			return &greengrass.RequestResult{Status: greengrass.RequestAgain}, nil
		}
		logger.Warn("Publish queue full, dropping message")
	}

	rt.route(ctx, topic, payload)

	r.respond(nil)
	return &greengrass.RequestResult{Status: greengrass.RequestSuccess}, nil
}

// route invokes every function subscribed to topic with payload as an event
func (rt *Runtime) route(ctx context.Context, topic string, payload []byte) {
	rt.mu.RLock()
	var targets []string
	for _, sub := range rt.subscriptions {
		if MatchTopic(sub.filter, topic) {
			targets = append(targets, sub.target)
		}
	}
	rt.mu.RUnlock()

	for _, target := range targets {
		arn, handler, ok := rt.lookup(target, "")
		if !ok {
			rt.logger.WithFields(logrus.Fields{
				"topic":  topic,
				"target": target,
			}).Warn("Subscription target not registered")
			continue
		}
		rt.dispatch(ctx, handler, NewInvocation(greengrass.LambdaContext{FunctionARN: arn}, payload, rt.chunkSize))
	}
}

// TakeMessages removes and returns every message waiting in the outbox
func (rt *Runtime) TakeMessages() []Message {
	var messages []Message
	for {
		select {
		case msg := <-rt.outbox:
			messages = append(messages, msg)
		default:
			return messages
		}
	}
}

// ValidateFilter checks an MQTT topic filter
func ValidateFilter(filter string) error {
	if filter == "" {
		return fmt.Errorf("empty topic filter")
	}

	levels := strings.Split(filter, "/")
	for i, level := range levels {
		switch {
		case level == "#":
			if i != len(levels)-1 {
				return fmt.Errorf("'#' must be the last level of %q", filter)
			}
		case level == "+":
		case strings.ContainsAny(level, "+#"):
			return fmt.Errorf("wildcards must occupy a whole level in %q", filter)
		}
	}
	return nil
}

// MatchTopic reports whether topic matches the MQTT filter. Wildcards in
// the first level never match topics starting with '$'.
func MatchTopic(filter, topic string) bool {
	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topic, "/")

	if strings.HasPrefix(topic, "$") && (filterLevels[0] == "+" || filterLevels[0] == "#") {
		return false
	}

	for i, level := range filterLevels {
		if level == "#" {
			return true
		}
		if i >= len(topicLevels) {
			return false
		}
		if level != "+" && level != topicLevels[i] {
			return false
		}
	}
	return len(filterLevels) == len(topicLevels)
}
