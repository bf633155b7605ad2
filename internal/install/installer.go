// Package install downloads a tachyon release archive and places the
// extracted binary at the cache path. An install is unconditional: callers
// decide whether to skip it when the cached binary is already current.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tachyon-css/tachyon-go/internal/archive"
	"github.com/tachyon-css/tachyon-go/internal/config"
	"github.com/tachyon-css/tachyon-go/internal/fetch"
	"github.com/tachyon-css/tachyon-go/internal/logging"
	"github.com/tachyon-css/tachyon-go/internal/platform"
)

// binPrefix names cached binaries: <prefix>-<target>[.exe].
const binPrefix = "tachyon"

// Installer fetches, extracts, and writes the tool binary for one target.
type Installer struct {
	cfg    *config.Config
	client *fetch.Client
	target platform.Target
}

// New returns an Installer for the given resolved configuration and target.
func New(cfg *config.Config, client *fetch.Client, target platform.Target) *Installer {
	return &Installer{cfg: cfg, client: client, target: target}
}

// ExpandURL substitutes the $version, $target, and $ext placeholders in a
// download URL template.
func ExpandURL(template, version string, target platform.Target) string {
	return strings.NewReplacer(
		"$version", version,
		"$target", target.String(),
		"$ext", target.Ext(),
	).Replace(template)
}

// CachePath returns where the binary for this target lives: the configured
// path override when set, otherwise <dir>/bin/tachyon-<target>[.exe].
func (i *Installer) CachePath() string {
	if i.cfg.Path != "" {
		return i.cfg.Path
	}
	name := binPrefix + "-" + i.target.String() + i.target.ExeSuffix()
	return filepath.Join(i.cfg.Dir, "bin", name)
}

// Install downloads the configured version's archive for the target and
// writes the extracted binary to the cache path. The binary is staged in a
// temp file, made executable, and renamed over the removed previous file,
// so a failed install never leaves a partial binary executable at the
// cache path.
func (i *Installer) Install(ctx context.Context) error {
	url := ExpandURL(i.cfg.URL, i.cfg.Version, i.target)
	dest := i.CachePath()

	log := logging.FromContext(ctx)
	log.Info().
		Str("component", "install").
		Str("url", url).
		Str("version", i.cfg.Version).
		Str("target", i.target.String()).
		Str("dest", dest).
		Msg("installing tachyon")

	data, err := i.client.Fetch(ctx, url)
	if err != nil {
		var nf *fetch.NotFoundError
		if errors.As(err, &nf) {
			return fmt.Errorf("tachyon %s has no published artifact for target %s: %w",
				i.cfg.Version, i.target, err)
		}
		return fmt.Errorf("installing tachyon %s: %w", i.cfg.Version, err)
	}

	bin, err := archive.Extract(data, i.target)
	if err != nil {
		return fmt.Errorf("installing tachyon %s from %s: %w", i.cfg.Version, url, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	unlock, err := acquireLock(dest + ".lock")
	if err != nil {
		return err
	}
	defer unlock()

	if err := writeBinary(dest, bin); err != nil {
		return fmt.Errorf("installing tachyon %s to %s: %w", i.cfg.Version, dest, err)
	}

	log.Info().
		Str("component", "install").
		Str("dest", dest).
		Msg("install complete")
	return nil
}

// writeBinary stages content in a temp file in the destination directory,
// sets the executable bits, removes any previous file, and renames the
// staged file into place. The previous file is removed rather than
// overwritten because some platforms key code-signing caches on file
// identity.
func writeBinary(dest string, content []byte) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing binary: %w", err)
	}
	if err := tmp.Chmod(0o755); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting executable permission: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing previous binary: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("moving binary into place: %w", err)
	}
	committed = true
	return nil
}
