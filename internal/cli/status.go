package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tachyon-css/tachyon-go/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configured and installed tachyon versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := pipelineFrom(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			path := p.installer.CachePath()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Target:             %s\n", p.target)
			fmt.Fprintf(out, "Configured version: %s\n", p.cfg.Version)
			fmt.Fprintf(out, "Cache path:         %s\n", path)

			observed, err := version.Observed(ctx, path)
			switch {
			case errors.Is(err, version.ErrNotAvailable):
				fmt.Fprintf(out, "Installed version:  not installed\n")
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "Installed version:  %s\n", observed)
				fmt.Fprintf(out, "Up to date:         %t\n", version.IsUpToDate(ctx, p.cfg, path))
			}
			return nil
		},
	}
}
