package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1) //nolint:forbidigo // CLI must propagate command failure to the shell
	}
}
