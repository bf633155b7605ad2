package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tachyon-css/tachyon-go/internal/config"
	"github.com/tachyon-css/tachyon-go/internal/fetch"
	"github.com/tachyon-css/tachyon-go/internal/install"
	"github.com/tachyon-css/tachyon-go/internal/logging"
	"github.com/tachyon-css/tachyon-go/internal/platform"
	"github.com/tachyon-css/tachyon-go/internal/runner"
	"github.com/tachyon-css/tachyon-go/internal/version"
)

// pipeline bundles the resolved configuration with the components built
// from it, once per command invocation.
type pipeline struct {
	cfg       *config.Config
	target    platform.Target
	installer *install.Installer
	runner    *runner.Runner
}

// pipelineCtxKey carries the pipeline built once in the root command's
// PersistentPreRunE to the subcommand's RunE.
type pipelineCtxKey struct{}

func withPipeline(ctx context.Context, p *pipeline) context.Context {
	return context.WithValue(ctx, pipelineCtxKey{}, p)
}

// pipelineFrom returns the pipeline attached to the command context,
// building one only when a command runs outside the root's hooks.
func pipelineFrom(cmd *cobra.Command) (*pipeline, error) {
	if p, ok := cmd.Context().Value(pipelineCtxKey{}).(*pipeline); ok {
		return p, nil
	}
	return buildRuntime(cmd)
}

// buildRuntime resolves configuration (project dir, optional explicit
// config file, environment) and the release target, then wires the
// installer and runner.
func buildRuntime(cmd *cobra.Command) (*pipeline, error) {
	dirFlag, _ := cmd.Flags().GetString("dir")
	cfgFlag, _ := cmd.Flags().GetString("config")

	projectDir := config.ResolveProjectDir(dirFlag)
	cfg := config.Load(cmd.Context(), projectDir)
	if cfgFlag != "" {
		if err := config.ShallowMergeYAML(cfg, cfgFlag); err != nil {
			return nil, fmt.Errorf("loading --config file: %w", err)
		}
		// The overlay may replace the profiles section wholesale.
		cfg.EnsureDefaultProfile()
	}

	target, err := resolveTarget(cfg)
	if err != nil {
		return nil, err
	}

	inst := install.New(cfg, fetch.New(), target)
	return &pipeline{
		cfg:       cfg,
		target:    target,
		installer: inst,
		runner:    runner.New(cfg, inst),
	}, nil
}

// resolveTarget honors the config/env target override before falling back
// to host detection.
func resolveTarget(cfg *config.Config) (platform.Target, error) {
	if cfg.Target != "" {
		return platform.Parse(cfg.Target)
	}
	return platform.Resolve()
}

// warnIfStale logs a warning when the installed binary's version differs
// from the configured one. It never fails: a version mismatch is advisory.
func (p *pipeline) warnIfStale(ctx context.Context) {
	if !p.cfg.VersionCheck {
		return
	}
	path := p.installer.CachePath()
	if _, err := os.Stat(path); err != nil {
		return
	}
	observed, err := version.Observed(ctx, path)
	if err != nil {
		return
	}
	want, err := version.Configured(p.cfg)
	if err != nil || observed.Equal(want) {
		return
	}
	logging.FromContext(ctx).Warn().
		Str("installed", observed.String()).
		Str("configured", want.String()).
		Msg("installed tachyon does not match the configured version; run 'tachyon install' to update")
}
