package main

import (
	"fmt"
	"os"

	"github.com/ramonfmir/scallop/cmd/scallop/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
