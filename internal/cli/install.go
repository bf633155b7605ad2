package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tachyon-css/tachyon-go/internal/version"
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download and install the configured tachyon version",
		Long: `Download the release archive for the configured version and detected
target, extract the binary, and place it at the cache path. The install is
unconditional: an existing binary is replaced even when it is already
current. Use --if-missing to skip the download when the cached binary
already reports the configured version.`,
		Example: `  # Reinstall the configured version
  tachyon install

  # Install only when missing or outdated
  tachyon install --if-missing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := pipelineFrom(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			path := p.installer.CachePath()

			ifMissing, _ := cmd.Flags().GetBool("if-missing")
			if ifMissing && version.IsUpToDate(ctx, p.cfg, path) {
				fmt.Fprintf(cmd.OutOrStdout(), "tachyon %s already installed at %s\n", p.cfg.Version, path)
				return nil
			}

			if err := p.installer.Install(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed tachyon %s to %s\n", p.cfg.Version, path)
			return nil
		},
	}

	cmd.Flags().Bool("if-missing", false, "skip the install when the cached binary is already current")
	return cmd
}
