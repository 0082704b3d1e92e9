package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// Main is the entrypoint shared by the example function binaries. It loads
// the host adapted configuration, builds the process container and calls
// run until it returns or the process is signalled.
func Main(name string, run func(ctx context.Context, c *Container) error) {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	cfg = config.AdaptConfigForHost(cfg, config.GetHostConfig())

	manager := GetManager()
	if err := manager.Initialize(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize container")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := manager.GetContainer(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to get container")
	}

	runErr := run(ctx, container)
	if err := manager.Cleanup(); err != nil {
		container.Logger.WithError(err).Error("Cleanup failed")
	}
	if runErr != nil {
		container.Logger.WithFields(logrus.Fields{
			"function": name,
			"mode":     cfg.Runtime.Mode,
		}).WithError(runErr).Error("Function exited")
		os.Exit(1)
	}
}

// Serve starts the named example handler on the container's runtime and
// blocks until ctx is done
func (c *Container) Serve(ctx context.Context, name string) error {
	handler, ok := c.Examples.Handlers()[name]
	if !ok {
		return fmt.Errorf("unknown function: %s", name)
	}
	return c.Runtime.Start(ctx, handler, 0)
}

// Serve is a run function for Main that only starts the named handler
func Serve(name string) func(ctx context.Context, c *Container) error {
	return func(ctx context.Context, c *Container) error {
		return c.Serve(ctx, name)
	}
}
