package main

import (
	"context"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/server"
)

func main() {
	server.Main("hello-world", func(ctx context.Context, c *server.Container) error {
		return c.Examples.RunHelloWorld(ctx)
	})
}
