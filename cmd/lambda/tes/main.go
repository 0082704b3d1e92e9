package main

import (
	"context"

	"github.com/aws/aws-greengrass-core-sdk-c/pkg/server"
)

func main() {
	server.Main("tes", func(ctx context.Context, c *server.Container) error {
		client, err := c.DynamoDB(ctx)
		if err != nil {
			return err
		}
		c.Examples.Tables = client
		return c.Serve(ctx, "tes")
	})
}
