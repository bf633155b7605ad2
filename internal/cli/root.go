// Package cli wires the tachyon pipeline into cobra commands. It is a thin
// shell: all behavior lives in the platform, version, fetch, archive,
// install, and runner packages.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tachyon-css/tachyon-go/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root cobra command for the tachyon CLI.
func NewRootCmd(ver string) *cobra.Command {
	var closeLog func() error

	cmd := &cobra.Command{
		Use:     "tachyon",
		Short:   "Manage and run the tachyon CSS build tool",
		Long:    "tachyon downloads the tachyon binary for your platform, caches it per project, and runs it with profile-configured arguments.",
		Version: ver,
		Example: rootCmdExample,
		// Errors are reported once by main; a tool exit code is not a
		// usage problem.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			p, err := buildRuntime(cmd)
			closeLog = setupLogging(cmd, p)
			if err != nil {
				return err
			}
			cmd.SetContext(withPipeline(cmd.Context(), p))
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if closeLog != nil {
				return closeLog()
			}
			return nil
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to an explicit config file merged over project config")
	cmd.PersistentFlags().String("dir", "", "project directory (default: current directory)")
	cmd.AddCommand(newRunCmd(), newInstallCmd(), newStatusCmd(), newProfilesCmd())

	return cmd
}

const rootCmdExample = `  # Run the default profile, installing the binary first if needed
  tachyon run

  # Run a named profile with extra arguments appended
  tachyon run build -- --watch

  # Install the configured version unconditionally
  tachyon install

  # Install only when the cached binary is missing or outdated
  tachyon install --if-missing

  # Show configured vs installed version and the cache path
  tachyon status

  # List configured profiles
  tachyon profiles`

// setupLogging configures the process logger from config and the --debug
// flag, attaches it to the command context, and returns the log closer.
// A nil pipeline (config resolution failed) gets the default logger so the
// failure itself is still reported through it.
func setupLogging(cmd *cobra.Command, p *pipeline) func() error {
	logCfg := logging.Config{Level: "info", Format: "auto"}
	if p != nil {
		logCfg = p.cfg.Logging.ToLoggingConfig()
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logCfg.Level = "debug"
		logCfg.Format = "console"
		logCfg.File = ""
	}
	if logCfg.Format == "" || logCfg.Format == "auto" {
		if isTerminal(os.Stderr) {
			logCfg.Format = "console"
		} else {
			logCfg.Format = "json"
		}
	}

	root, closer := logging.New(logCfg)
	logger = logging.ComponentLogger(root, "cli")
	cmd.SetContext(logger.WithContext(cmd.Context()))

	logger.Debug().Str("command", cmd.Name()).Msg("command started")
	return closer
}
