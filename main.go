// Package main is the entry point for the patchtree CLI.
package main

import "github.com/patchtree/patchtree/cmd"

func main() {
	cmd.Execute()
}
