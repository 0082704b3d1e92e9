package config

import (
	"os"
	"sync"
)

// HostConfig describes the host process environment the binary runs in
type HostConfig struct {
	IsLambda    bool
	FunctionARN string
	ThingName   string
	Region      string
}

// Global host configuration
var (
	hostConfig *HostConfig
	hostOnce   sync.Once
)

// GetHostConfig returns the host configuration
func GetHostConfig() *HostConfig {
	hostOnce.Do(func() {
		hostConfig = detectHost()
	})
	return hostConfig
}

func detectHost() *HostConfig {
	return &HostConfig{
		IsLambda:    os.Getenv("AWS_LAMBDA_RUNTIME_API") != "",
		FunctionARN: os.Getenv("MY_FUNCTION_ARN"),
		ThingName:   os.Getenv("AWS_IOT_THING_NAME"),
		Region:      os.Getenv("AWS_REGION"),
	}
}

// AdaptConfigForHost fills in values the host environment provides
func AdaptConfigForHost(config *Config, host *HostConfig) *Config {
	if config.Runtime.Mode == "" {
		config.Runtime.Mode = ModeStub
		if host.IsLambda {
			config.Runtime.Mode = ModeLambda
		}
	}

	if host.FunctionARN != "" {
		config.Runtime.FunctionARN = host.FunctionARN
	}
	if host.ThingName != "" && os.Getenv("THING_NAME") == "" {
		config.Examples.ThingName = host.ThingName
	}
	if host.Region != "" {
		config.AWS.Region = host.Region
	}

	return config
}

// GetOptimizedConfig returns configuration adapted to the current host
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	return AdaptConfigForHost(config, GetHostConfig()), nil
}
