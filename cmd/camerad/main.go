package main

import (
	"os"

	"github.com/jmylchreest/camerad/cmd/camerad/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
