package functions

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/config"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/local"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/models"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sirupsen/logrus"
)

const testFunctionARN = "arn:aws:lambda:us-west-2:123456789012:function:Local:1"

func testConfig() config.ExamplesConfig {
	return config.ExamplesConfig{
		CloudTopic:      "to/cloud",
		HelloTopic:      "hello/world",
		HelloMessage:    "hello world!",
		PublishInterval: 10 * time.Millisecond,
		ThingName:       "foo",
		SecretID:        "foo",
		InvokeeARN:      "arn:aws:lambda:us-west-2:123456789012:function:Invokee:1",
		InvokeQualifier: "1",
		InvokeContext:   "eyAiY3VzdG9tIjp7ICJ2YWx1ZSI6ICJrZXkiIH19",
		CustomerARN:     "arn:aws:lambda:us-east-1:123456789012:function:CustomerExampleLambda:1",
		CustomerContext: "eyAndmFsdWUnOiAnaGVsbG8gd29ybGQnIH0=",
		ListTablesLimit: 5,
	}
}

func setupExamples(t *testing.T, queueSize int) (*Examples, *local.Runtime) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests

	opts := local.DefaultOptions()
	opts.FunctionARN = testFunctionARN
	opts.ChunkSize = 16
	opts.QueueSize = queueSize
	opts.Logger = logger

	rt, err := local.New(opts)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}

	return NewExamples(rt, testConfig(), logger), rt
}

func TestSimpleHandler(t *testing.T) {
	e, _ := setupExamples(t, 8)

	inv := local.NewInvocation(greengrass.LambdaContext{FunctionARN: testFunctionARN}, []byte("event"), 4)
	out := local.Run(context.Background(), e.SimpleHandler, inv, e.Logger)

	if out.Status != greengrass.RequestSuccess {
		t.Errorf("Expected success, got %s", out.Status)
	}
	if len(out.Body) != 0 {
		t.Errorf("Expected empty response, got %q", out.Body)
	}
}

func TestInvokeALambda(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		e, rt := setupExamples(t, 8)
		if err := rt.Register(e.Config.InvokeeARN, e.Invokee); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		reply, err := e.InvokeALambda(context.Background())
		if err != nil {
			t.Fatalf("InvokeALambda failed: %v", err)
		}
		if reply.Status != greengrass.RequestSuccess {
			t.Errorf("Expected success, got %s", reply.Status)
		}
		if reply.Body != "hello world" {
			t.Errorf("Expected 'hello world', got %q", reply.Body)
		}
	})

	t.Run("function not found", func(t *testing.T) {
		e, _ := setupExamples(t, 8)

		reply, err := e.InvokeALambda(context.Background())
		if err != nil {
			t.Fatalf("InvokeALambda failed: %v", err)
		}
		if reply.Status != greengrass.RequestUnhandled {
			t.Errorf("Expected unhandled, got %s", reply.Status)
		}
		if !strings.HasPrefix(reply.Body, "Function not found: ") {
			t.Errorf("Unexpected error message: %q", reply.Body)
		}
	})

	t.Run("stub runtime", func(t *testing.T) {
		logger := logrus.New()
		logger.SetLevel(logrus.PanicLevel)
		e := NewExamples(greengrass.NewStubRuntime(logger), testConfig(), logger)

		if _, err := e.InvokeALambda(context.Background()); !greengrass.IsNotImplemented(err) {
			t.Errorf("Expected not implemented, got %v", err)
		}
	})
}

func TestInvokee(t *testing.T) {
	e, _ := setupExamples(t, 8)

	t.Run("responds", func(t *testing.T) {
		inv := local.NewInvocation(greengrass.LambdaContext{}, []byte("goodbye"), 3)
		out := local.Run(context.Background(), e.Invokee, inv, e.Logger)
		if out.Status != greengrass.RequestSuccess || string(out.Body) != "goodbye world" {
			t.Errorf("Unexpected outcome %s %q", out.Status, out.Body)
		}
	})

	t.Run("output too long", func(t *testing.T) {
		inv := local.NewInvocation(greengrass.LambdaContext{}, []byte(strings.Repeat("x", 95)), 32)
		out := local.Run(context.Background(), e.Invokee, inv, e.Logger)
		if out.Status != greengrass.RequestHandled {
			t.Errorf("Expected handled, got %s", out.Status)
		}
		if string(out.Body) != "Failed to process event: 101" {
			t.Errorf("Unexpected error message: %q", out.Body)
		}
	})
}

func TestPublishToCloud(t *testing.T) {
	t.Run("publishes", func(t *testing.T) {
		e, rt := setupExamples(t, 8)

		inv := local.NewInvocation(greengrass.LambdaContext{FunctionARN: testFunctionARN}, nil, 16)
		local.Run(context.Background(), e.PublishHandler, inv, e.Logger)

		messages := rt.TakeMessages()
		if len(messages) != 1 {
			t.Fatalf("Expected 1 message, got %d", len(messages))
		}
		if messages[0].Topic != "to/cloud" {
			t.Errorf("Expected topic to/cloud, got %s", messages[0].Topic)
		}
		if string(messages[0].Payload) != "hello from: "+testFunctionARN {
			t.Errorf("Unexpected payload %q", messages[0].Payload)
		}
	})

	t.Run("queue full", func(t *testing.T) {
		e, _ := setupExamples(t, 1)

		if _, err := e.PublishToCloud(context.Background(), "to/cloud", []byte("first")); err != nil {
			t.Fatalf("First publish failed: %v", err)
		}

		reply, err := e.PublishToCloud(context.Background(), "to/cloud", []byte("second"))
		if err != nil {
			t.Fatalf("PublishToCloud failed: %v", err)
		}
		if reply.Status != greengrass.RequestAgain {
			t.Errorf("Expected again, got %s", reply.Status)
		}
		if reply.Body != "Publish queue is full" {
			t.Errorf("Unexpected body %q", reply.Body)
		}
	})

	t.Run("invalid topic", func(t *testing.T) {
		e, _ := setupExamples(t, 1)
		if _, err := e.PublishToCloud(context.Background(), "", []byte("x")); !errors.Is(err, greengrass.ErrInvalidParameter) {
			t.Errorf("Expected invalid parameter, got %v", err)
		}
	})
}

func TestRunHelloWorld(t *testing.T) {
	e, rt := setupExamples(t, 64)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := e.RunHelloWorld(ctx); err != nil {
		t.Fatalf("RunHelloWorld failed: %v", err)
	}

	messages := rt.TakeMessages()
	if len(messages) == 0 {
		t.Fatal("Expected hello messages to be published")
	}
	for _, msg := range messages {
		if msg.Topic != "hello/world" || string(msg.Payload) != "hello world!" {
			t.Errorf("Unexpected message %s %q", msg.Topic, msg.Payload)
		}
	}

	functions := rt.Functions()
	if len(functions) != 1 || functions[0] != testFunctionARN {
		t.Errorf("Expected handler registered under %s, got %v", testFunctionARN, functions)
	}
}

func TestRunShadowExample(t *testing.T) {
	e, _ := setupExamples(t, 8)

	update, get, err := e.RunShadowExample(context.Background())
	if err != nil {
		t.Fatalf("RunShadowExample failed: %v", err)
	}

	if update.Status != greengrass.RequestSuccess {
		t.Errorf("Expected update success, got %s: %s", update.Status, update.Body)
	}
	if get.Status != greengrass.RequestSuccess {
		t.Errorf("Expected get success, got %s: %s", get.Status, get.Body)
	}
	if !strings.Contains(get.Body, `"mode":"OFF"`) {
		t.Errorf("Expected desired mode OFF in %s", get.Body)
	}
}

func TestGetSecret(t *testing.T) {
	e, rt := setupExamples(t, 8)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		reply, err := e.GetSecret(ctx, "foo")
		if err != nil {
			t.Fatalf("GetSecret failed: %v", err)
		}
		if reply.Status != greengrass.RequestHandled {
			t.Errorf("Expected handled, got %s", reply.Status)
		}
	})

	t.Run("found", func(t *testing.T) {
		if _, err := rt.PutSecretValue(ctx, "foo", "s3cr3t", nil); err != nil {
			t.Fatalf("PutSecretValue failed: %v", err)
		}

		reply, err := e.GetSecret(ctx, "foo")
		if err != nil {
			t.Fatalf("GetSecret failed: %v", err)
		}
		if reply.Status != greengrass.RequestSuccess {
			t.Errorf("Expected success, got %s: %s", reply.Status, reply.Body)
		}
		if !strings.Contains(reply.Body, `"SecretString":"s3cr3t"`) {
			t.Errorf("Expected secret string in %s", reply.Body)
		}
	})
}

func packet(t *testing.T, key, value int32) []byte {
	t.Helper()
	data, err := models.CustomerData{Key: key, Value: value}.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	return data
}

func TestInvokeCustomer(t *testing.T) {
	e, rt := setupExamples(t, 8)
	if err := rt.Register(e.Config.CustomerARN, e.CustomerHandler); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	ctx := context.Background()

	t.Run("doubles value", func(t *testing.T) {
		reply, err := e.InvokeCustomer(ctx, packet(t, 1, 21))
		if err != nil {
			t.Fatalf("InvokeCustomer failed: %v", err)
		}
		if reply.Status != greengrass.RequestSuccess || reply.Response == nil {
			t.Fatalf("Expected success, got %s %q", reply.Status, reply.Error)
		}
		if reply.Response.Value != 42 {
			t.Errorf("Expected 42, got %d", reply.Response.Value)
		}
	})

	t.Run("negative value", func(t *testing.T) {
		reply, err := e.InvokeCustomer(ctx, packet(t, 1, -3))
		if err != nil {
			t.Fatalf("InvokeCustomer failed: %v", err)
		}
		if reply.Status != greengrass.RequestHandled || reply.Error != "Read a negative value" {
			t.Errorf("Unexpected reply %s %q", reply.Status, reply.Error)
		}
	})

	t.Run("short packet", func(t *testing.T) {
		reply, err := e.InvokeCustomer(ctx, CustomerPayload)
		if err != nil {
			t.Fatalf("InvokeCustomer failed: %v", err)
		}
		expected := "Failed to read data. amount_read(5), amount_requested(8), err(0)"
		if reply.Status != greengrass.RequestHandled || reply.Error != expected {
			t.Errorf("Unexpected reply %s %q", reply.Status, reply.Error)
		}
	})
}

func TestRunCustomerExamples(t *testing.T) {
	e, rt := setupExamples(t, 8)
	if err := rt.Register(e.Config.CustomerARN, e.CustomerHandler); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	run, err := e.RunCustomerExamples(context.Background())
	if err != nil {
		t.Fatalf("RunCustomerExamples failed: %v", err)
	}

	if run.Invoke.Status != greengrass.RequestHandled {
		t.Errorf("Expected handled invoke, got %s", run.Invoke.Status)
	}
	if run.Get.Status != greengrass.RequestHandled {
		t.Errorf("Expected missing shadow on first get, got %s", run.Get.Status)
	}
	if run.Update.Status != greengrass.RequestSuccess || !strings.Contains(run.Update.Body, `"mode":"ON"`) {
		t.Errorf("Unexpected update reply %s %s", run.Update.Status, run.Update.Body)
	}
	if run.Delete.Status != greengrass.RequestSuccess {
		t.Errorf("Expected delete success, got %s", run.Delete.Status)
	}
}

type fakeTables struct {
	input *dynamodb.ListTablesInput
	names []string
	err   error
}

func (f *fakeTables) ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.ListTablesOutput{TableNames: f.names}, nil
}

func TestListTables(t *testing.T) {
	e, _ := setupExamples(t, 8)

	t.Run("lists", func(t *testing.T) {
		tables := &fakeTables{names: []string{"orders", "devices"}}
		e.Tables = tables

		names, err := e.ListTables(context.Background())
		if err != nil {
			t.Fatalf("ListTables failed: %v", err)
		}
		if len(names) != 2 || names[0] != "orders" {
			t.Errorf("Unexpected tables %v", names)
		}
		if aws.ToInt32(tables.input.Limit) != 5 {
			t.Errorf("Expected limit 5, got %d", aws.ToInt32(tables.input.Limit))
		}
	})

	t.Run("error", func(t *testing.T) {
		e.Tables = &fakeTables{err: errors.New("access denied")}
		if _, err := e.ListTables(context.Background()); err == nil {
			t.Error("Expected error")
		}
	})

	t.Run("no client", func(t *testing.T) {
		e.Tables = nil
		if _, err := e.ListTables(context.Background()); err == nil {
			t.Error("Expected error")
		}
	})
}

func TestHandlers(t *testing.T) {
	e, _ := setupExamples(t, 8)

	handlers := e.Handlers()
	for _, name := range []string{"simple-handler", "invokee", "invoker", "publish", "hello-world", "shadow", "secrets", "customer", "tes"} {
		if handlers[name] == nil {
			t.Errorf("Missing handler %s", name)
		}
	}
}
