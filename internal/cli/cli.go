package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/checkgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("checkgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
checkgrid - attaches verification integrations to a build pipeline.

Usage:
  checkgrid [options] [SETTINGS_PATH]

Arguments:
  SETTINGS_PATH
    Path to an .hcl settings file with per-integration overrides.

Options:
`)
		flagSet.PrintDefaults()
	}

	settingsFlag := flagSet.String("settings", "", "Path to the settings file.")
	sFlag := flagSet.String("s", "", "Path to the settings file (shorthand).")
	rootFlag := flagSet.String("root", ".", "Host project root directory.")
	projectKeyFlag := flagSet.String("project-key", "", "Project key reported to the analysis server.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	settingsPath := ""
	if *settingsFlag != "" {
		settingsPath = *settingsFlag
	} else if *sFlag != "" {
		settingsPath = *sFlag
	} else if flagSet.NArg() > 0 {
		settingsPath = flagSet.Arg(0)
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		RootDir:      *rootFlag,
		SettingsPath: settingsPath,
		ProjectKey:   *projectKeyFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
