package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tachyon-css/tachyon-go/internal/config"
)

// ExitCodeError carries the tool's exit code out of command execution so
// main can pass it through as the process exit status. It is not a failure
// of this program.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("tachyon exited with code %d", e.Code)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [profile] [-- extra args...]",
		Short: "Run tachyon with a configured profile",
		Long: `Run the cached tachyon binary with the named profile's arguments and
environment. Arguments after -- are appended to the profile's arguments.
When the binary is not cached yet it is installed first.

The tool's exit code becomes this process's exit code.`,
		Example: `  # Run the default profile
  tachyon run

  # Run the build profile in watch mode
  tachyon run build -- --watch

  # Run without attempting an install
  tachyon run --no-install`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipelineFrom(cmd)
			if err != nil {
				return err
			}

			// Only an argument before -- names a profile; everything at
			// or after the dash is extra args for the tool.
			profileName := config.DefaultProfile
			if len(args) > 0 && cmd.ArgsLenAtDash() != 0 {
				profileName = args[0]
				args = args[1:]
			}

			ctx := cmd.Context()
			p.warnIfStale(ctx)

			sink := func(line string) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}

			noInstall, _ := cmd.Flags().GetBool("no-install")
			var code int
			if noInstall {
				code, err = p.runner.Run(ctx, profileName, args, sink)
			} else {
				code, err = p.runner.InstallAndRun(ctx, profileName, args, sink)
			}
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitCodeError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().Bool("no-install", false, "do not install the binary when it is missing")
	return cmd
}
