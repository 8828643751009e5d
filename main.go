package main

import (
	"os"

	"github.com/DixonScott/battery-optimizer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
