package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"

	"github.com/andruche/pgagent-yaml/cmd/pgagent-yaml/commands"
	"github.com/andruche/pgagent-yaml/errors"
	"github.com/andruche/pgagent-yaml/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logger.Cleanup()

	if err := commands.RootCmd.ExecuteContext(ctx); err != nil {
		return report(err)
	}
	return 0
}

// report prints err with its hints and returns the exit code
func report(err error) int {
	if errors.Is(err, errors.ErrDeclined) {
		fmt.Fprintln(os.Stderr, "Aborted: no changes were made")
		return 1
	}

	fmt.Fprintln(os.Stderr, pterm.FgRed.Sprint("ERROR: ")+err.Error())
	if hint := errors.Hint(err); hint != "" {
		fmt.Fprintln(os.Stderr, pterm.FgYellow.Sprint("HINT: ")+hint)
	}
	return 1
}
