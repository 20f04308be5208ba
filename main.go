// Copyright (c) 2025 ToeiRei
// Acekeeper - Sequel Ace favorites backup tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Acekeeper.
//
// Usage:
//
//	go run . [flags]
//	./acekeeper [flags]
//
// This launches the Acekeeper CLI. See --help for options.
package main

import (
	"log"
	"os"

	"github.com/acekeeper/acekeeper/ui/cli"
)

// version is set at build time using -ldflags, e.g.:
// go build -ldflags "-X main.version=1.2.3"
var version = "dev"

// main is the entrypoint for the Acekeeper CLI.
func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		log.Printf("Acekeeper CLI error: %v", err)
		os.Exit(1)
	}
}
