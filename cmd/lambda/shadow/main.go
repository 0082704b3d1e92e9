package main

import "github.com/aws/aws-greengrass-core-sdk-c/pkg/server"

// The shadow example runs from its handler, once per invocation
func main() {
	server.Main("shadow", server.Serve("shadow"))
}
