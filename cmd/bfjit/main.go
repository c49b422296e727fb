package main

import "github.com/funvibe/bfjit/pkg/cli"

// BackendType determines the default execution mode.
// Can be set at build time using: -ldflags "-X main.BackendType=native"
// Default is "interpreted".
var BackendType = "interpreted"

func main() {
	cli.BackendType = BackendType
	cli.Run()
}
