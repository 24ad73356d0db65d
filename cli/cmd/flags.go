// Package cmd provides CLI commands for the intel binary.
package cmd

import "github.com/urfave/cli/v2"

// Exit codes.
const (
	exitSuccess = 0
	// exitFailure covers failed or canceled missions and backend errors.
	exitFailure = 1
	// exitUsage covers invalid flags and configuration.
	exitUsage = 2
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for commands with a TUI view.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (health, stats, dashboard, mission)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// GlobalFlags returns the application-level flags that select the backend.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to intel.yaml (default: ./intel.yaml if present)",
		},
		&cli.StringFlag{
			Name:  "api-url",
			Usage: "Agent backend base URL (overrides INTEL_API_URL and config)",
		},
		&cli.BoolFlag{
			Name:  "mock",
			Usage: "Use the built-in mock backend",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
}
