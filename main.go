package main

import (
	"os"

	"github.com/conneroisu/gitguide/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
