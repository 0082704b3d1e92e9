package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Runtime modes
const (
	ModeStub   = "stub"
	ModeLocal  = "local"
	ModeLambda = "lambda"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Port        string
	Log         LogConfig
	Runtime     RuntimeConfig
	Storage     StorageConfig
	Examples    ExamplesConfig
	AWS         AWSConfig
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// RuntimeConfig selects and tunes the runtime the handlers run against
type RuntimeConfig struct {
	Mode          string // "stub", "local" or "lambda"
	FunctionARN   string
	ClientContext string
	ChunkSize     int // Largest chunk the local runtime returns per read
	QueueSize     int // Outbound publish queue capacity of the local runtime
}

// StorageConfig holds document store configuration
type StorageConfig struct {
	Type string // "memory" or "sqlite"
	Path string
}

// ExamplesConfig holds the values the example handlers work with
type ExamplesConfig struct {
	CloudTopic      string
	HelloTopic      string
	HelloMessage    string
	PublishInterval time.Duration
	ThingName       string
	SecretID        string
	InvokeeARN      string
	InvokeQualifier string
	InvokeContext   string
	CustomerARN     string
	CustomerContext string
	ListTablesLimit int
}

// AWSConfig holds settings for AWS service clients
type AWSConfig struct {
	Region   string
	Endpoint string
}

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"mode":         "RUNTIME_MODE",
	"function-arn": "FUNCTION_ARN",
	"store":        "STORE_TYPE",
	"store-path":   "STORE_PATH",
	"port":         "PORT",
	"log-level":    "LOG_LEVEL",
}

// RegisterFlags adds the flags LoadWithFlags understands to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("mode", "", "runtime mode: stub, local or lambda")
	fs.String("function-arn", "", "ARN the handler is registered under")
	fs.String("store", "", "document store: memory or sqlite")
	fs.String("store-path", "", "SQLite database path")
	fs.String("port", "", "HTTP port of the local runtime API")
	fs.String("log-level", "", "log level")
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags loads configuration, letting flags set on fs override the environment
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("RUNTIME_MODE", "")
	v.SetDefault("FUNCTION_ARN", "arn:aws:lambda:us-west-2:123456789012:function:Local:1")
	v.SetDefault("RUNTIME_CHUNK_SIZE", 4096)
	v.SetDefault("RUNTIME_QUEUE_SIZE", 64)
	v.SetDefault("STORE_TYPE", "memory")
	v.SetDefault("STORE_PATH", "./data/greengrass.db")
	v.SetDefault("CLOUD_TOPIC", "to/cloud")
	v.SetDefault("HELLO_TOPIC", "hello/world")
	v.SetDefault("HELLO_MESSAGE", "hello world!")
	v.SetDefault("PUBLISH_INTERVAL", "3s")
	v.SetDefault("THING_NAME", "foo")
	v.SetDefault("SECRET_ID", "foo")
	v.SetDefault("INVOKEE_ARN", "arn:aws:lambda:us-west-2:123456789012:function:Invokee:1")
	v.SetDefault("INVOKE_QUALIFIER", "1")
	// base64 of { "custom":{ "value": "key" }}
	v.SetDefault("INVOKE_CONTEXT", "eyAiY3VzdG9tIjp7ICJ2YWx1ZSI6ICJrZXkiIH19")
	v.SetDefault("CUSTOMER_ARN", "arn:aws:lambda:us-east-1:123456789012:function:CustomerExampleLambda:1")
	// base64 of { 'value': 'hello world' }
	v.SetDefault("CUSTOMER_CONTEXT", "eyAndmFsdWUnOiAnaGVsbG8gd29ybGQnIH0=")
	v.SetDefault("LIST_TABLES_LIMIT", 5)
	v.SetDefault("AWS_REGION", "us-west-2")

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
				}
			}
		}
	}

	config := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Port:        v.GetString("PORT"),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Runtime: RuntimeConfig{
			Mode:          strings.ToLower(v.GetString("RUNTIME_MODE")),
			FunctionARN:   v.GetString("FUNCTION_ARN"),
			ClientContext: v.GetString("CLIENT_CONTEXT"),
			ChunkSize:     v.GetInt("RUNTIME_CHUNK_SIZE"),
			QueueSize:     v.GetInt("RUNTIME_QUEUE_SIZE"),
		},
		Storage: StorageConfig{
			Type: v.GetString("STORE_TYPE"),
			Path: v.GetString("STORE_PATH"),
		},
		Examples: ExamplesConfig{
			CloudTopic:      v.GetString("CLOUD_TOPIC"),
			HelloTopic:      v.GetString("HELLO_TOPIC"),
			HelloMessage:    v.GetString("HELLO_MESSAGE"),
			PublishInterval: v.GetDuration("PUBLISH_INTERVAL"),
			ThingName:       v.GetString("THING_NAME"),
			SecretID:        v.GetString("SECRET_ID"),
			InvokeeARN:      v.GetString("INVOKEE_ARN"),
			InvokeQualifier: v.GetString("INVOKE_QUALIFIER"),
			InvokeContext:   v.GetString("INVOKE_CONTEXT"),
			CustomerARN:     v.GetString("CUSTOMER_ARN"),
			CustomerContext: v.GetString("CUSTOMER_CONTEXT"),
			ListTablesLimit: v.GetInt("LIST_TABLES_LIMIT"),
		},
		AWS: AWSConfig{
			Region:   v.GetString("AWS_REGION"),
			Endpoint: v.GetString("AWS_ENDPOINT_URL"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail deep inside the runtime
func (c *Config) Validate() error {
	switch c.Runtime.Mode {
	case "", ModeStub, ModeLocal, ModeLambda:
	default:
		return fmt.Errorf("unsupported runtime mode: %s", c.Runtime.Mode)
	}

	if c.Runtime.ChunkSize <= 0 {
		return fmt.Errorf("runtime chunk size must be positive, got %d", c.Runtime.ChunkSize)
	}
	if c.Runtime.QueueSize <= 0 {
		return fmt.Errorf("runtime queue size must be positive, got %d", c.Runtime.QueueSize)
	}
	if c.Examples.PublishInterval <= 0 {
		return fmt.Errorf("publish interval must be positive, got %s", c.Examples.PublishInterval)
	}

	return nil
}
