package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/depbench/depquery/internal/runner"
)

// Exit codes for different failure modes
const (
	ExitSuccess    = 0 // Run completed, all partitions processed
	ExitFatalTask  = 1 // One or more partitions halted on a fatal task failure
	ExitError      = 2 // Configuration or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// A fatal task failure means the run itself worked but a task
		// exhausted every restart; distinguish it from config errors.
		var fatalErr *runner.FatalError
		if errors.As(err, &fatalErr) {
			os.Exit(ExitFatalTask)
		}

		os.Exit(ExitError)
	}
}
