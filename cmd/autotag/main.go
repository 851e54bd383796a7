package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autotag/internal/cli"
	"github.com/matzehuels/autotag/pkg/errors"
)

// Exit statuses.
const (
	exitOK         = 0
	exitFailure    = 1
	exitBadInput   = 2 // snapshot, config or library problem
	exitRolledBack = 3 // apply rolled back; nothing was committed
	exitInterrupt  = 130
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := run(ctx)
	cancel()
	os.Exit(report(os.Stderr, err))
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log cache lookups, snapshot warnings and per-run counts")

	pre := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if pre != nil {
			return pre(cmd, args)
		}
		return nil
	}

	return root.ExecuteContext(ctx)
}

// report prints err to w and returns the process exit status.
func report(w io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	code := exitCode(err)
	if code == exitInterrupt {
		return code
	}
	if c := errors.GetCode(err); c != "" {
		fmt.Fprintf(w, "Error [%s]: %s\n", c, errors.UserMessage(err))
	} else {
		fmt.Fprintln(w, "Error:", err)
	}
	return code
}

func exitCode(err error) int {
	if stderrors.Is(err, context.Canceled) {
		return exitInterrupt
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSnapshot, errors.ErrCodeInvalidConfig,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath, errors.ErrCodeUnknownCategory,
		errors.ErrCodeMissingSymbol, errors.ErrCodeScript, errors.ErrCodeFileNotFound:
		return exitBadInput
	case errors.ErrCodeMaterialize:
		return exitRolledBack
	default:
		return exitFailure
	}
}
