package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/server"
)

func main() {
	server.Main("customer", func(ctx context.Context, c *server.Container) error {
		if _, err := c.Examples.RunCustomerExamples(ctx); err != nil {
			return fmt.Errorf("customer examples failed: %w", err)
		}
		return c.Serve(ctx, "customer")
	})
}
