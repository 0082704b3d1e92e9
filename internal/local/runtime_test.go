package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/sirupsen/logrus"
)

const (
	testFunctionARN = "arn:aws:lambda:us-west-2:123456789012:function:Local:1"
	invokeeARN      = "arn:aws:lambda:us-west-2:123456789012:function:Invokee:1"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRuntime(t *testing.T, mutate ...func(*Options)) *Runtime {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests

	opts := DefaultOptions()
	opts.FunctionARN = testFunctionARN
	opts.ChunkSize = 7
	opts.Logger = logger
	opts.Clock = func() time.Time { return testNow }
	for _, m := range mutate {
		m(&opts)
	}

	rt, err := New(opts)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}
	return rt
}

// readBody drains the pending response of req
func readBody(t *testing.T, req greengrass.ChunkReader) string {
	t.Helper()
	buf := make([]byte, 8192)
	n, err := greengrass.Drain(req, buf)
	if err != nil {
		t.Fatalf("Drain failed after %d bytes: %v", n, err)
	}
	return string(buf[:n])
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"missing ARN", func(o *Options) { o.FunctionARN = "" }},
		{"bad ARN", func(o *Options) { o.FunctionARN = "arn:aws:s3:::bucket" }},
		{"zero chunk", func(o *Options) { o.ChunkSize = 0 }},
		{"zero queue", func(o *Options) { o.QueueSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			if _, err := New(opts); err == nil {
				t.Error("New should fail")
			}
		})
	}

	rt, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("New with defaults failed: %v", err)
	}
	if rt.region != "us-west-2" || rt.account != "123456789012" {
		t.Errorf("Unexpected location %s/%s", rt.region, rt.account)
	}
}

func TestRequest(t *testing.T) {
	rt := newTestRuntime(t)

	req, err := rt.NewRequest()
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	if req.ID() == "" {
		t.Error("Request should have an id")
	}

	r := req.(*request)
	r.respond([]byte("0123456789abcdef"))

	// Reads are capped at the chunk size
	p := make([]byte, 100)
	n, err := req.ReadChunk(p)
	if err != nil || n != 7 {
		t.Errorf("Expected 7 byte chunk, got %d %v", n, err)
	}

	if body := readBody(t, req); body != "789abcdef" {
		t.Errorf("Unexpected remaining body %q", body)
	}

	// Exhausted until the next operation
	if n, _ := req.ReadChunk(p); n != 0 {
		t.Errorf("Expected end of stream, got %d bytes", n)
	}

	if err := req.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := req.ReadChunk(p); !errors.Is(err, greengrass.ErrInvalidState) {
		t.Errorf("Expected invalid state after close, got %v", err)
	}
	if err := req.Close(); !errors.Is(err, greengrass.ErrInvalidState) {
		t.Errorf("Expected invalid state closing twice, got %v", err)
	}

	_, err = rt.Publish(context.Background(), req, "to/cloud", nil, nil)
	if !errors.Is(err, greengrass.ErrInvalidState) {
		t.Errorf("Expected invalid state using closed request, got %v", err)
	}
}

type foreignRequest struct{ greengrass.Request }

func TestForeignRequest(t *testing.T) {
	rt := newTestRuntime(t)
	_, err := rt.Publish(context.Background(), foreignRequest{}, "to/cloud", nil, nil)
	if !errors.Is(err, greengrass.ErrInvalidParameter) {
		t.Errorf("Expected invalid parameter, got %v", err)
	}
}

func TestStart(t *testing.T) {
	t.Run("NilHandler", func(t *testing.T) {
		rt := newTestRuntime(t)
		err := rt.Start(context.Background(), nil, greengrass.RuntimeOptAsync)
		if !errors.Is(err, greengrass.ErrInvalidParameter) {
			t.Errorf("Expected invalid parameter, got %v", err)
		}
	})

	t.Run("Async", func(t *testing.T) {
		rt := newTestRuntime(t)
		if err := rt.Start(context.Background(), func(ctx context.Context, inv greengrass.Invocation) {}, greengrass.RuntimeOptAsync); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		functions := rt.Functions()
		if len(functions) != 1 || functions[0] != testFunctionARN {
			t.Errorf("Handler not registered under own ARN: %v", functions)
		}
	})

	t.Run("BlocksUntilCancelled", func(t *testing.T) {
		rt := newTestRuntime(t)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			done <- rt.Start(ctx, func(ctx context.Context, inv greengrass.Invocation) {}, 0)
		}()

		select {
		case <-done:
			t.Fatal("Start returned before cancellation")
		case <-time.After(20 * time.Millisecond):
		}

		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Start returned %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Start did not return after cancellation")
		}
	})
}

// echoWorld answers like the invokee example
func echoWorld(ctx context.Context, inv greengrass.Invocation) {
	buf := make([]byte, 100)
	n, err := greengrass.Drain(inv, buf)
	if err != nil {
		inv.WriteError(err.Error())
		return
	}
	inv.WriteResponse([]byte(fmt.Sprintf("%s world", buf[:n])))
}

func TestInvoke(t *testing.T) {
	ctx := context.Background()

	invoke := func(t *testing.T, rt *Runtime, opts *greengrass.InvokeOptions) (greengrass.RequestStatus, string) {
		t.Helper()
		var status greengrass.RequestStatus
		var body string
		err := greengrass.WithRequest(rt, func(req greengrass.Request) error {
			result, err := rt.Invoke(ctx, req, opts)
			if err != nil {
				return err
			}
			status = result.Status
			body = readBody(t, req)
			return nil
		})
		if err != nil {
			t.Fatalf("Invoke failed: %v", err)
		}
		return status, body
	}

	t.Run("RequestResponse", func(t *testing.T) {
		rt := newTestRuntime(t)
		rt.Register(invokeeARN, echoWorld)

		status, body := invoke(t, rt, &greengrass.InvokeOptions{
			FunctionARN: invokeeARN,
			Type:        greengrass.InvokeRequestResponse,
			Payload:     []byte("hello"),
		})
		if status != greengrass.RequestSuccess || body != "hello world" {
			t.Errorf("Unexpected result %s %q", status, body)
		}
	})

	t.Run("ClientContextPassedThrough", func(t *testing.T) {
		rt := newTestRuntime(t)
		var got greengrass.LambdaContext
		rt.Register(invokeeARN, func(ctx context.Context, inv greengrass.Invocation) {
			got = *inv.Context()
		})

		invoke(t, rt, &greengrass.InvokeOptions{
			FunctionARN:     invokeeARN,
			CustomerContext: "eyAiY3VzdG9tIjp7ICJ2YWx1ZSI6ICJrZXkiIH19",
			Type:            greengrass.InvokeRequestResponse,
		})
		if got.ClientContext != "eyAiY3VzdG9tIjp7ICJ2YWx1ZSI6ICJrZXkiIH19" || got.FunctionARN != invokeeARN {
			t.Errorf("Unexpected context %+v", got)
		}
	})

	t.Run("Handled", func(t *testing.T) {
		rt := newTestRuntime(t)
		rt.Register(invokeeARN, func(ctx context.Context, inv greengrass.Invocation) {
			inv.WriteError("Failed to process event: 101")
		})

		status, body := invoke(t, rt, &greengrass.InvokeOptions{FunctionARN: invokeeARN, Type: greengrass.InvokeRequestResponse})
		if status != greengrass.RequestHandled || body != "Failed to process event: 101" {
			t.Errorf("Unexpected result %s %q", status, body)
		}
	})

	t.Run("UnhandledPanic", func(t *testing.T) {
		rt := newTestRuntime(t)
		rt.Register(invokeeARN, func(ctx context.Context, inv greengrass.Invocation) {
			panic("boom")
		})

		status, body := invoke(t, rt, &greengrass.InvokeOptions{FunctionARN: invokeeARN, Type: greengrass.InvokeRequestResponse})
		if status != greengrass.RequestUnhandled || !strings.Contains(body, "boom") {
			t.Errorf("Unexpected result %s %q", status, body)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		rt := newTestRuntime(t)
		status, body := invoke(t, rt, &greengrass.InvokeOptions{FunctionARN: invokeeARN, Type: greengrass.InvokeRequestResponse})
		if status != greengrass.RequestUnhandled || !strings.Contains(body, "Function not found") {
			t.Errorf("Unexpected result %s %q", status, body)
		}
	})

	t.Run("ResolvesQualifier", func(t *testing.T) {
		rt := newTestRuntime(t)
		rt.Register(invokeeARN, echoWorld)

		status, _ := invoke(t, rt, &greengrass.InvokeOptions{
			FunctionARN: "arn:aws:lambda:us-west-2:123456789012:function:Invokee",
			Qualifier:   "1",
			Type:        greengrass.InvokeRequestResponse,
		})
		if status != greengrass.RequestSuccess {
			t.Errorf("Qualified lookup failed: %s", status)
		}
	})

	t.Run("ResolvesUnversioned", func(t *testing.T) {
		rt := newTestRuntime(t)
		rt.Register("arn:aws:lambda:us-west-2:123456789012:function:Invokee", echoWorld)

		status, _ := invoke(t, rt, &greengrass.InvokeOptions{FunctionARN: invokeeARN, Type: greengrass.InvokeRequestResponse})
		if status != greengrass.RequestSuccess {
			t.Errorf("Unversioned lookup failed: %s", status)
		}
	})

	t.Run("Event", func(t *testing.T) {
		rt := newTestRuntime(t)

		var mu sync.Mutex
		var received string
		rt.Register(invokeeARN, func(ctx context.Context, inv greengrass.Invocation) {
			buf := make([]byte, 100)
			n, _ := greengrass.Drain(inv, buf)
			mu.Lock()
			received = string(buf[:n])
			mu.Unlock()
			inv.WriteResponse([]byte("ignored"))
		})

		status, body := invoke(t, rt, &greengrass.InvokeOptions{
			FunctionARN: invokeeARN,
			Type:        greengrass.InvokeEvent,
			Payload:     []byte("event"),
		})
		if status != greengrass.RequestSuccess || body != "" {
			t.Errorf("Unexpected event result %s %q", status, body)
		}

		rt.Wait()
		mu.Lock()
		defer mu.Unlock()
		if received != "event" {
			t.Errorf("Event payload not delivered, got %q", received)
		}
	})

	t.Run("InvalidOptions", func(t *testing.T) {
		rt := newTestRuntime(t)
		req, _ := rt.NewRequest()
		defer req.Close()

		cases := []*greengrass.InvokeOptions{
			nil,
			{FunctionARN: ""},
			{FunctionARN: "Invokee"},
			{FunctionARN: invokeeARN, CustomerContext: "not base64!"},
			{FunctionARN: invokeeARN, Type: 7},
		}
		for i, opts := range cases {
			if _, err := rt.Invoke(ctx, req, opts); !errors.Is(err, greengrass.ErrInvalidParameter) {
				t.Errorf("Case %d: expected invalid parameter, got %v", i, err)
			}
		}
	})

	t.Run("WriteTwice", func(t *testing.T) {
		inv := NewInvocation(greengrass.LambdaContext{}, nil, 4)
		if err := inv.WriteResponse([]byte("a")); err != nil {
			t.Fatalf("WriteResponse failed: %v", err)
		}
		if err := inv.WriteError("b"); !errors.Is(err, greengrass.ErrInvalidState) {
			t.Errorf("Expected invalid state, got %v", err)
		}
	})
}

func TestRegister(t *testing.T) {
	rt := newTestRuntime(t)
	if err := rt.Register("not-an-arn", echoWorld); !errors.Is(err, greengrass.ErrInvalidParameter) {
		t.Errorf("Expected invalid parameter, got %v", err)
	}
	if err := rt.Register(invokeeARN, nil); !errors.Is(err, greengrass.ErrInvalidParameter) {
		t.Errorf("Expected invalid parameter for nil handler, got %v", err)
	}
}
