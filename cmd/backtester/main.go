package main

import (
	"os"

	"github.com/WENLIN-CHANG/BackTester/cmd/backtester/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
