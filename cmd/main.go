package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/embyx/internal/formatter"
	"github.com/desertthunder/embyx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, formatter.DefaultPalette.Err("error:"), err)
		os.Exit(1)
	}
}
