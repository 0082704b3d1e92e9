package main

import "github.com/aws/aws-greengrass-core-sdk-c/pkg/server"

func main() {
	server.Main("publish", server.Serve("publish"))
}
