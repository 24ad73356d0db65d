// Package main provides the intel CLI entrypoint.
//
// Usage:
//
//	intel [--mock] [--api-url URL] <command> [subcommand] [options]
//
// Exit codes:
//   - 0: success
//   - 1: mission failed or canceled, backend error
//   - 2: usage or configuration error
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/intel/cli/cmd"
	"github.com/pithecene-io/intel/cli/config"
	"github.com/pithecene-io/intel/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	if err := config.LoadDotEnv(config.DefaultDotEnv); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	app := &cli.App{
		Name:           "intel",
		Usage:          "Market Intelligence Agent console",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Flags:          cmd.GlobalFlags(),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.MissionCommand(),
			cmd.HealthCommand(),
			cmd.StatsCommand(),
			cmd.ReportsCommand(),
			cmd.DashboardCommand(),
			cmd.HistoryCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	os.Exit(reportError(os.Stderr, err))
}

// reportError prints err and returns the process exit code.
func reportError(w io.Writer, err error) int {
	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "" or "exit status N"; skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(w, msg)
		}
		return code
	}

	// Unexpected error - print and exit with code 1
	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}
