package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/adapters/storage"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/config"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/functions"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/lambdabridge"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/local"
	"github.com/aws/aws-greengrass-core-sdk-c/internal/retry"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/sirupsen/logrus"
)

// healthCheckKey is read by HealthCheck; it is never written
const healthCheckKey = "health-check"

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Runtime  greengrass.Runtime
	Examples *functions.Examples

	// Local is set in local mode, together with Store
	Local *local.Runtime
	Store storage.DocumentStore

	dynamoOnce sync.Once
	dynamo     *dynamodb.Client
	dynamoErr  error
}

// NewContainer creates the runtime selected by cfg and the example
// functions bound to it
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithLogger(cfg, config.NewLogger(cfg.Log))
}

// NewContainerWithLogger is NewContainer with a caller-supplied logger
func NewContainerWithLogger(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	switch cfg.Runtime.Mode {
	case config.ModeLocal:
		if err := c.initLocal(); err != nil {
			return nil, err
		}
	case config.ModeLambda:
		bridge := lambdabridge.New(greengrass.NewStubRuntime(logger), cfg.Runtime.ChunkSize, logger)
		bridge.ClientContext = cfg.Runtime.ClientContext
		c.Runtime = bridge
	case config.ModeStub, "":
		c.Runtime = greengrass.NewStubRuntime(logger)
	default:
		return nil, fmt.Errorf("unsupported runtime mode: %s", cfg.Runtime.Mode)
	}

	c.Examples = functions.NewExamples(c.Runtime, cfg.Examples, logger)

	if c.Local != nil {
		if err := c.registerExamples(); err != nil {
			c.Close()
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"mode":         cfg.Runtime.Mode,
		"function_arn": cfg.Runtime.FunctionARN,
		"store":        cfg.Storage.Type,
	}).Info("Container initialized")

	return c, nil
}

// initLocal opens the document store and creates the in-process runtime
func (c *Container) initLocal() error {
	store, err := storage.NewFactory(retry.DefaultConfig(), c.Logger).Create(&storage.StorageConfig{
		Type: c.Config.Storage.Type,
		Path: c.Config.Storage.Path,
	})
	if err != nil {
		return fmt.Errorf("failed to create document store: %w", err)
	}

	rt, err := local.New(local.Options{
		FunctionARN: c.Config.Runtime.FunctionARN,
		ChunkSize:   c.Config.Runtime.ChunkSize,
		QueueSize:   c.Config.Runtime.QueueSize,
		Store:       store,
		Logger:      c.Logger,
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create local runtime: %w", err)
	}

	c.Store = store
	c.Local = rt
	c.Runtime = rt
	return nil
}

// registerExamples makes the functions other examples invoke available
func (c *Container) registerExamples() error {
	targets := map[string]greengrass.Handler{
		c.Config.Examples.InvokeeARN:  c.Examples.Invokee,
		c.Config.Examples.CustomerARN: c.Examples.CustomerHandler,
	}

	for arn, handler := range targets {
		if arn == "" {
			continue
		}
		if err := c.Local.Register(arn, handler); err != nil {
			return fmt.Errorf("failed to register %s: %w", arn, err)
		}
	}
	return nil
}

// DynamoDB returns the DynamoDB client, creating it on first use
func (c *Container) DynamoDB(ctx context.Context) (*dynamodb.Client, error) {
	c.dynamoOnce.Do(func() {
		c.dynamo, c.dynamoErr = functions.NewDynamoDBClient(ctx, c.Config.AWS.Region, c.Config.AWS.Endpoint)
	})
	return c.dynamo, c.dynamoErr
}

// HealthCheck reports whether the document store answers
func (c *Container) HealthCheck(ctx context.Context) error {
	if c.Store == nil {
		return nil
	}

	_, err := c.Store.Get(ctx, storage.NamespaceShadow, healthCheckKey)
	if err != nil && !storage.IsNotFound(err) {
		return fmt.Errorf("document store unavailable: %w", err)
	}
	return nil
}

// Close waits for background invocations and closes the store
func (c *Container) Close() error {
	if c.Local != nil {
		c.Local.Wait()
	}

	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			return fmt.Errorf("failed to close document store: %w", err)
		}
		c.Store = nil
	}

	return nil
}
