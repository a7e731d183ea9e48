// Package main is the entry point for the measuretests CLI. Installed on
// PATH it also runs as `cargo measuretests`.
package main

import (
	"os"

	"github.com/AndreyAkinshin/measuretests/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
