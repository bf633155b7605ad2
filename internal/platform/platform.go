// Package platform maps the host operating system, CPU architecture, and
// word size onto the closed set of release targets that tachyon binaries
// are published for.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Target identifies a platform/architecture combination with a published
// tachyon release artifact.
type Target string

// Supported release targets. The set is closed: resolution either returns
// one of these values or fails with ErrUnsupported.
const (
	LinuxAmd64   Target = "linux_amd64"
	LinuxArm64   Target = "linux_arm64"
	LinuxArmv7   Target = "linux_armv7"
	MacAmd64     Target = "mac_amd64"
	MacArm64     Target = "mac_arm64"
	FreeBSDAmd64 Target = "freebsd_amd64"
	FreeBSDArm64 Target = "freebsd_arm64"
	WindowsAmd64 Target = "windows_amd64"
)

// ErrUnsupported indicates the host platform has no published release target.
var ErrUnsupported = errors.New("unsupported platform")

// UnsupportedError carries the raw OS/arch/word-size triple for diagnostics.
type UnsupportedError struct {
	OS       string
	Arch     string
	WordBits int
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported platform %s/%s (%d-bit): no published tachyon release for this target",
		e.OS, e.Arch, e.WordBits)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }

// Resolve returns the release target for the current process. The result is
// a pure function of the host facts, so callers may resolve once and reuse
// the value for the process lifetime.
func Resolve() (Target, error) {
	return ResolveFrom(runtime.GOOS, runtime.GOARCH, strconv.IntSize)
}

// ResolveFrom maps an OS name, architecture string, and word size to a
// release target. It accepts both Go toolchain spellings (amd64, arm64, arm)
// and uname spellings (x86_64, aarch64, armv7l), since target overrides in
// configuration may come from either world.
//
// Matching is ordered: darwin and freebsd must be checked before the generic
// Unix fallback, which would otherwise claim their amd64/arm64 triples with
// the wrong target string.
func ResolveFrom(goos, arch string, wordBits int) (Target, error) {
	switch {
	case goos == "windows" && isAmd64(arch) && wordBits == 64:
		return WindowsAmd64, nil
	case goos == "darwin" && isDarwinArm(arch) && wordBits == 64:
		return MacArm64, nil
	case goos == "darwin" && isAmd64(arch) && wordBits == 64:
		return MacAmd64, nil
	case goos == "freebsd" && isArm64(arch) && wordBits == 64:
		return FreeBSDArm64, nil
	case goos == "freebsd" && isAmd64(arch) && wordBits == 64:
		return FreeBSDAmd64, nil
	case isUnixLike(goos) && isArm64(arch) && wordBits == 64:
		return LinuxArm64, nil
	case isUnixLike(goos) && isArm32(arch) && wordBits == 32:
		return LinuxArmv7, nil
	case isUnixLike(goos) && isAmd64(arch) && wordBits == 64:
		return LinuxAmd64, nil
	}
	return "", &UnsupportedError{OS: goos, Arch: arch, WordBits: wordBits}
}

// Parse validates a target override string against the closed target set.
func Parse(s string) (Target, error) {
	switch t := Target(s); t {
	case LinuxAmd64, LinuxArm64, LinuxArmv7, MacAmd64, MacArm64,
		FreeBSDAmd64, FreeBSDArm64, WindowsAmd64:
		return t, nil
	}
	return "", fmt.Errorf("unknown target %q: %w", s, ErrUnsupported)
}

// Ext returns the archive extension for the target's release artifact:
// zip on Windows, gzip-compressed tar everywhere else.
func (t Target) Ext() string {
	if t == WindowsAmd64 {
		return "zip"
	}
	return "tar.gz"
}

// ExeSuffix returns ".exe" for the Windows target and "" otherwise. The
// suffix applies to the cached binary's filename, not the target name.
func (t Target) ExeSuffix() string {
	if t == WindowsAmd64 {
		return ".exe"
	}
	return ""
}

func (t Target) String() string { return string(t) }

func isAmd64(arch string) bool {
	return arch == "amd64" || arch == "x86_64"
}

func isArm64(arch string) bool {
	return arch == "arm64" || arch == "aarch64"
}

// isDarwinArm matches Apple silicon. macOS reports a bare "arm" from some
// C runtimes, so it is accepted here but not for the generic arm64 targets.
func isDarwinArm(arch string) bool {
	return arch == "arm64" || arch == "aarch64" || arch == "arm"
}

func isArm32(arch string) bool {
	return arch == "arm" || strings.HasPrefix(arch, "armv7")
}

// isUnixLike reports whether goos is a Unix-like system covered by the
// generic linux targets. darwin and freebsd are matched earlier, so they
// never reach this branch during ordered resolution.
func isUnixLike(goos string) bool {
	switch goos {
	case "windows":
		return false
	default:
		return true
	}
}
