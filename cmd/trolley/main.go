// Package main provides the trolley CLI entrypoint.
//
// The CLI drives the cart engine one invocation at a time: cart state
// persists between invocations through the snapshot store and the
// session file in the state directory.
//
// Usage:
//
//	trolley <command> [options]
//
// Exit codes:
//   - 0: success (including mutations kept locally while degraded)
//   - 1: hard failure (backend error with no local fallback)
//   - 2: invalid input
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/trolley/cli/cmd"
	"github.com/pithecene-io/trolley/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "trolley",
		Usage:          "Resilient shopping cart CLI",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.ShowCommand(),
			cmd.AddCommand(),
			cmd.RemoveCommand(),
			cmd.SetCommand(),
			cmd.ClearCommand(),
			cmd.SyncCommand(),
			cmd.LoginCommand(),
			cmd.LogoutCommand(),
			cmd.StatsCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from
// cli.Exit() so scripted callers can tell invalid input from backend
// failures.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N", skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
