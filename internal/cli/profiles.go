package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List configured run profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := pipelineFrom(cmd)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(p.cfg.Profiles))
			for name := range p.cfg.Profiles {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			for _, name := range names {
				profile := p.cfg.Profiles[name]
				fmt.Fprintf(out, "%s\n", name)
				if len(profile.Args) > 0 {
					fmt.Fprintf(out, "  args: %s\n", strings.Join(profile.Args, " "))
				}
				if len(profile.Env) > 0 {
					keys := make([]string, 0, len(profile.Env))
					for k := range profile.Env {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Fprintf(out, "  env:  %s=%s\n", k, profile.Env[k])
					}
				}
			}
			return nil
		},
	}
}
