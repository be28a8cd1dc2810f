package main

import (
	"os"

	"github.com/rustyeddy/creditsim/cmd/creditsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
