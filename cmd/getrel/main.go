package main

import (
	"fmt"
	"os"

	"github.com/3leaps/getrel/cmd/getrel/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "getrel: %v\n", err)
		os.Exit(1)
	}
}
