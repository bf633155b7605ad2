// Package config resolves the tachyon configuration: built-in defaults,
// a project-local YAML overlay, and environment variable overrides, in
// that order of precedence (later wins).
package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/tachyon-css/tachyon-go/internal/logging"
)

// Built-in defaults. DefaultVersion tracks the latest published tachyon
// release known to this module.
const (
	DefaultVersion     = "2.10.0"
	DefaultURLTemplate = "https://github.com/tachyon-css/tachyon/releases/download/v$version/tachyon_$version_$target.$ext"
	DefaultProfile     = "default"

	// ProjectDirName is the project-local state directory.
	ProjectDirName = ".tachyon"
)

// Environment variables overriding individual config fields.
const (
	EnvPath    = "TACHYON_PATH"
	EnvTarget  = "TACHYON_TARGET"
	EnvVersion = "TACHYON_VERSION"
)

// Profile is a named bundle of default arguments and environment entries
// for invoking the tool.
type Profile struct {
	Args []string          `yaml:"args"`
	Env  map[string]string `yaml:"env"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// ToLoggingConfig converts to the logging package's config type.
func (l LoggingConfig) ToLoggingConfig() logging.Config {
	return logging.Config{Level: l.Level, Format: l.Format, File: l.File}
}

// Config is the resolved configuration threaded through the pipeline. It is
// built once at startup and treated as immutable afterwards.
type Config struct {
	// Version is the desired tool version.
	Version string `yaml:"version"`
	// VersionCheck enables the non-fatal startup version mismatch warning.
	VersionCheck bool `yaml:"version_check"`
	// Path overrides the computed cache path with an explicit binary path.
	Path string `yaml:"path"`
	// Target overrides platform detection with an explicit target name.
	Target string `yaml:"target"`
	// URL is the release download template with $version, $target, and
	// $ext placeholders.
	URL string `yaml:"url"`

	Logging  LoggingConfig      `yaml:"logging"`
	Profiles map[string]Profile `yaml:"profiles"`

	// Dir is the absolute project-local state directory. Derived at load
	// time, never read from YAML.
	Dir string `yaml:"-"`
}

// New returns the built-in default configuration.
func New() *Config {
	return &Config{
		Version:      DefaultVersion,
		VersionCheck: true,
		URL:          DefaultURLTemplate,
		Logging:      LoggingConfig{Level: "info", Format: "auto"},
		Profiles: map[string]Profile{
			DefaultProfile: {},
		},
	}
}

// Load builds the effective configuration for projectDir: defaults, then
// the project overlay at <projectDir>/config.yaml when present, then
// environment overrides. A malformed overlay is logged and skipped rather
// than aborting startup.
func Load(ctx context.Context, projectDir string) *Config {
	cfg := New()
	cfg.Dir = projectDir

	if projectDir != "" {
		overlayPath := filepath.Join(projectDir, "config.yaml")
		if _, err := os.Stat(overlayPath); err == nil {
			if mergeErr := ShallowMergeYAML(cfg, overlayPath); mergeErr != nil {
				logging.FromContext(ctx).Warn().
					Str("component", "config").
					Str("overlay_path", overlayPath).
					Err(mergeErr).
					Msg("failed to merge project config, using defaults")
				cfg = New()
				cfg.Dir = projectDir
			}
		}
	}

	applyEnvOverrides(cfg)
	cfg.EnsureDefaultProfile()
	return cfg
}

// EnsureDefaultProfile materializes the default profile so a configuration
// whose profiles section omits it can still run the tool. Callers merging
// additional overlays after Load must re-apply it.
func (c *Config) EnsureDefaultProfile() {
	if c.Profiles == nil {
		c.Profiles = map[string]Profile{}
	}
	if _, ok := c.Profiles[DefaultProfile]; !ok {
		c.Profiles[DefaultProfile] = Profile{}
	}
}

// ResolveProjectDir determines the project-local state directory. The
// --dir flag wins over the current working directory. The returned path
// is absolute and ends in the state directory name; it is not created.
func ResolveProjectDir(flagValue string) string {
	dir := flagValue
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ProjectDirName
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	if filepath.Base(abs) == ProjectDirName {
		return abs
	}
	return filepath.Join(abs, ProjectDirName)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPath); v != "" {
		cfg.Path = v
	}
	if v := os.Getenv(EnvTarget); v != "" {
		cfg.Target = v
	}
	if v := os.Getenv(EnvVersion); v != "" {
		cfg.Version = v
	}
}
