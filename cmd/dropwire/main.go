package main

import "github.com/dropwire/dropwire/internal/cli"

func main() {
	cli.Execute()
}
