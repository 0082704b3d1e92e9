package local

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/sirupsen/logrus"
)

// Register makes handler invocable under arn
func (rt *Runtime) Register(arn string, handler greengrass.Handler) error {
	if _, _, err := arnLocation(arn); err != nil {
		return &greengrass.SDKError{Op: "Register", Err: fmt.Errorf("%w: %v", greengrass.ErrInvalidParameter, err)}
	}
	if handler == nil {
		return &greengrass.SDKError{Op: "Register", Err: greengrass.ErrInvalidParameter}
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.functions[arn] = handler
	rt.logger.WithField("function_arn", arn).Debug("Function registered")
	return nil
}

// Functions returns the registered function ARNs
func (rt *Runtime) Functions() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	arns := make([]string, 0, len(rt.functions))
	for arn := range rt.functions {
		arns = append(arns, arn)
	}
	return arns
}

// lookup resolves arn as given, then with qualifier appended, then without
// its version
func (rt *Runtime) lookup(arn, qualifier string) (string, greengrass.Handler, bool) {
	candidates := []string{arn}
	base := unqualified(arn)
	if qualifier != "" {
		candidates = append(candidates, base+":"+qualifier)
	}
	if base != arn {
		candidates = append(candidates, base)
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	for _, candidate := range candidates {
		if handler, ok := rt.functions[candidate]; ok {
			return candidate, handler, true
		}
	}
	return "", nil, false
}

// unqualified strips the version or alias from a function ARN
func unqualified(arn string) string {
	parts := strings.Split(arn, ":")
	if len(parts) > 7 {
		return strings.Join(parts[:7], ":")
	}
	return arn
}

// Invoke implements greengrass.Runtime
func (rt *Runtime) Invoke(ctx context.Context, req greengrass.Request, opts *greengrass.InvokeOptions) (*greengrass.RequestResult, error) {
	r, err := rt.own("Invoke", req)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		return nil, &greengrass.SDKError{Op: "Invoke", Err: greengrass.ErrInvalidParameter}
	}
	if err := greengrass.Validate("Invoke", opts); err != nil {
		return nil, err
	}

	logger := rt.logger.WithFields(logrus.Fields{
		"function_arn": opts.FunctionARN,
		"qualifier":    opts.Qualifier,
		"request_id":   r.id,
	})

	arn, handler, ok := rt.lookup(opts.FunctionARN, opts.Qualifier)
	if !ok {
		logger.Warn("Invoke target not found")
		r.respond([]byte(fmt.Sprintf("Function not found: %s", opts.FunctionARN)))
		return &greengrass.RequestResult{Status: greengrass.RequestUnhandled}, nil
	}

	inv := NewInvocation(greengrass.LambdaContext{
		FunctionARN:   arn,
		ClientContext: opts.CustomerContext,
	}, opts.Payload, rt.chunkSize)

	if opts.Type == greengrass.InvokeEvent {
		rt.dispatch(ctx, handler, inv)
		r.respond(nil)
		return &greengrass.RequestResult{Status: greengrass.RequestSuccess}, nil
	}

	out := Run(ctx, handler, inv, rt.logger)
	logger.WithField("status", out.Status.String()).Debug("Invoke completed")

	r.respond(out.Body)
	return &greengrass.RequestResult{Status: out.Status}, nil
}

// dispatch runs an event invocation in the background. It outlives the
// caller's cancellation, and Wait waits for it.
func (rt *Runtime) dispatch(ctx context.Context, handler greengrass.Handler, inv *Invocation) {
	ctx = context.WithoutCancel(ctx)

	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		out := Run(ctx, handler, inv, rt.logger)
		if out.Status != greengrass.RequestSuccess {
			rt.logger.WithFields(logrus.Fields{
				"function_arn": inv.lc.FunctionARN,
				"status":       out.Status.String(),
				"error":        string(out.Body),
			}).Warn("Event invocation failed")
		}
	}()
}
