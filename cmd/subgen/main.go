package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// exitInterrupted is the status for a batch cut short by SIGINT.
const exitInterrupted = 130

func main() {
	os.Exit(exitCode(newRootCommand().Execute()))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if err != context.Canceled {
		fmt.Fprintln(os.Stderr, "subgen:", err)
	}
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	return 1
}
