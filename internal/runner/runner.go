// Package runner invokes the cached tachyon binary with profile-configured
// arguments and environment, streaming combined output line-by-line and
// passing the child's exit code through as data.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tachyon-css/tachyon-go/internal/config"
	"github.com/tachyon-css/tachyon-go/internal/install"
	"github.com/tachyon-css/tachyon-go/internal/logging"
)

// maxLineSize bounds a single streamed output line.
const maxLineSize = 1024 * 1024

// ErrUnknownProfile indicates the requested profile is not configured.
var ErrUnknownProfile = errors.New("unknown profile")

// UnknownProfileError carries the requested name and the configured
// alternatives.
type UnknownProfileError struct {
	Name      string
	Available []string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("profile %q is not defined in .tachyon/config.yaml (available: %s)",
		e.Name, strings.Join(e.Available, ", "))
}

func (e *UnknownProfileError) Unwrap() error { return ErrUnknownProfile }

// Sink receives one line of the child's combined stdout+stderr at a time,
// as it is produced.
type Sink func(line string)

// Runner executes the cached binary. It never interprets the tool's exit
// code; a nonzero code is a normal result, not an error.
type Runner struct {
	cfg       *config.Config
	installer *install.Installer
}

// New returns a Runner for the resolved configuration.
func New(cfg *config.Config, installer *install.Installer) *Runner {
	return &Runner{cfg: cfg, installer: installer}
}

// CachePath exposes the installer's cache path for status reporting.
func (r *Runner) CachePath() string {
	return r.installer.CachePath()
}

// Run resolves the named profile, spawns the cached binary with profile
// args followed by extraArgs and the profile's environment merged over the
// inherited one, streams combined output to sink, and returns the child's
// exit code. A spawn failure is an error; a tool-reported failure is an
// exit code.
func (r *Runner) Run(ctx context.Context, profileName string, extraArgs []string, sink Sink) (int, error) {
	profile, err := r.resolveProfile(profileName)
	if err != nil {
		return 0, err
	}

	path := r.installer.CachePath()
	args := make([]string, 0, len(profile.Args)+len(extraArgs))
	args = append(args, profile.Args...)
	args = append(args, extraArgs...)

	log := logging.FromContext(ctx)
	log.Debug().
		Str("component", "runner").
		Str("profile", profileName).
		Str("path", path).
		Strs("args", args).
		Msg("spawning tachyon")

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = mergeEnv(os.Environ(), profile.Env)

	// One pipe carries both streams so the caller sees output in the
	// order the child produced it.
	pr, pw, err := os.Pipe()
	if err != nil {
		return 0, fmt.Errorf("creating output pipe: %w", err)
	}
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return 0, fmt.Errorf("starting %s: %w", path, err)
	}
	// The child holds its own copy of the write end.
	pw.Close()

	var g errgroup.Group
	g.Go(func() error {
		defer pr.Close()
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			sink(scanner.Text())
		}
		return scanner.Err()
	})

	waitErr := cmd.Wait()
	if scanErr := g.Wait(); scanErr != nil {
		log.Warn().
			Str("component", "runner").
			Err(scanErr).
			Msg("reading tool output failed")
	}

	if waitErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("running %s: %w", path, waitErr)
}

// InstallAndRun installs the binary when the cache path does not exist,
// then delegates to Run. An unknown profile or a failed install aborts
// before any process is spawned.
func (r *Runner) InstallAndRun(ctx context.Context, profileName string, extraArgs []string, sink Sink) (int, error) {
	if _, err := r.resolveProfile(profileName); err != nil {
		return 0, err
	}

	if _, err := os.Stat(r.installer.CachePath()); os.IsNotExist(err) {
		if installErr := r.installer.Install(ctx); installErr != nil {
			return 0, installErr
		}
	}
	return r.Run(ctx, profileName, extraArgs, sink)
}

func (r *Runner) resolveProfile(name string) (config.Profile, error) {
	profile, ok := r.cfg.Profiles[name]
	if !ok {
		available := make([]string, 0, len(r.cfg.Profiles))
		for n := range r.cfg.Profiles {
			available = append(available, n)
		}
		sort.Strings(available)
		return config.Profile{}, &UnknownProfileError{Name: name, Available: available}
	}
	return profile, nil
}

// mergeEnv overlays profile entries on the inherited environment, replacing
// same-named keys. Override keys are appended in sorted order so the result
// is deterministic.
func mergeEnv(inherited []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return inherited
	}

	merged := make([]string, 0, len(inherited)+len(overrides))
	for _, kv := range inherited {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		merged = append(merged, kv)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		merged = append(merged, k+"="+overrides[k])
	}
	return merged
}
