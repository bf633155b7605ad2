// Package version decides which tool version is desired and which version
// an installed binary actually reports.
package version

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/tachyon-css/tachyon-go/internal/config"
	"github.com/tachyon-css/tachyon-go/internal/logging"
)

// versionFlag is the single flag the tool prints its version for.
const versionFlag = "-v"

// probeTimeout bounds the version probe so a wedged binary cannot hang
// startup.
const probeTimeout = 10 * time.Second

// ErrNotAvailable indicates the installed version could not be observed:
// the binary is missing, fails to run, or prints nothing recognizable.
var ErrNotAvailable = errors.New("installed tool version not available")

// CommandRunner executes the version probe and returns its combined output.
// The interface exists so tests can avoid spawning real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Runner is the package-level CommandRunner. Replace in tests with a mock.
var Runner CommandRunner = &execRunner{} //nolint:gochecknoglobals // Required for test injection

// Configured returns the desired tool version from configuration.
func Configured(cfg *config.Config) (*semver.Version, error) {
	v, err := semver.NewVersion(cfg.Version)
	if err != nil {
		return nil, fmt.Errorf("invalid configured version %q: %w", cfg.Version, err)
	}
	return v, nil
}

// Observed invokes the binary at path with the version flag and extracts
// the version it reports. Output is scanned for the first token of the
// form v<semver>; the leading v is stripped before parsing.
func Observed(ctx context.Context, path string) (*semver.Version, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s does not exist", ErrNotAvailable, path)
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := Runner.Run(ctx, path, versionFlag)
	if err != nil {
		return nil, fmt.Errorf("%w: running %s %s: %v", ErrNotAvailable, path, versionFlag, err)
	}

	v := parseVersionOutput(string(out))
	if v == nil {
		return nil, fmt.Errorf("%w: no version token in output %q", ErrNotAvailable, strings.TrimSpace(string(out)))
	}
	return v, nil
}

// IsUpToDate reports whether the binary at path self-reports exactly the
// configured version. Any failure to observe a version counts as out of
// date.
func IsUpToDate(ctx context.Context, cfg *config.Config, path string) bool {
	want, err := Configured(cfg)
	if err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "version").
			Err(err).
			Msg("configured version does not parse")
		return false
	}

	got, err := Observed(ctx, path)
	if err != nil {
		return false
	}
	return got.Equal(want)
}

// parseVersionOutput returns the first whitespace-separated token starting
// with "v" that parses as a semantic version, or nil.
func parseVersionOutput(out string) *semver.Version {
	for _, field := range strings.Fields(out) {
		if len(field) < 2 || field[0] != 'v' {
			continue
		}
		if v, err := semver.NewVersion(field[1:]); err == nil {
			return v
		}
	}
	return nil
}
