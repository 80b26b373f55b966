// Package cmd provides CLI commands for the trolley binary.
package cmd

import "github.com/urfave/cli/v2"

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
	// Only valid for the read-only show and stats commands.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (show, stats only)",
	}
)

// Engine flags shared by every command that touches the cart.
var (
	// ConfigFlag points at a trolley.yaml config file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to trolley.yaml (default: ./trolley.yaml when present)",
		EnvVars: []string{"TROLLEY_CONFIG"},
	}

	// BaseURLFlag overrides the backend base URL from the config file.
	BaseURLFlag = &cli.StringFlag{
		Name:    "base-url",
		Usage:   "Storefront backend base URL",
		EnvVars: []string{"TROLLEY_BASE_URL"},
	}

	// VerboseFlag enables structured debug logging to stderr.
	VerboseFlag = &cli.BoolFlag{
		Name:  "verbose",
		Usage: "Enable debug logging",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error
// messages instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// EngineFlags returns the flags needed to construct the cart engine.
func EngineFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		BaseURLFlag,
		VerboseFlag,
	}
}
