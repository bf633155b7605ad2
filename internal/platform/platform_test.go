package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFrom_SupportedTriples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		goos     string
		arch     string
		wordBits int
		want     Target
	}{
		{"linux amd64", "linux", "amd64", 64, LinuxAmd64},
		{"linux x86_64 uname spelling", "linux", "x86_64", 64, LinuxAmd64},
		{"linux arm64", "linux", "arm64", 64, LinuxArm64},
		{"linux aarch64 uname spelling", "linux", "aarch64", 64, LinuxArm64},
		{"linux armv7l 32-bit", "linux", "armv7l", 32, LinuxArmv7},
		{"linux bare arm 32-bit", "linux", "arm", 32, LinuxArmv7},
		{"darwin amd64", "darwin", "amd64", 64, MacAmd64},
		{"darwin arm64", "darwin", "arm64", 64, MacArm64},
		{"darwin aarch64", "darwin", "aarch64", 64, MacArm64},
		{"darwin bare arm 64-bit", "darwin", "arm", 64, MacArm64},
		{"freebsd amd64", "freebsd", "amd64", 64, FreeBSDAmd64},
		{"freebsd arm64", "freebsd", "arm64", 64, FreeBSDArm64},
		{"windows amd64", "windows", "amd64", 64, WindowsAmd64},
		{"windows x86_64", "windows", "x86_64", 64, WindowsAmd64},
		{"openbsd treated as generic unix amd64", "openbsd", "amd64", 64, LinuxAmd64},
		{"netbsd treated as generic unix arm64", "netbsd", "aarch64", 64, LinuxArm64},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveFrom(tt.goos, tt.arch, tt.wordBits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveFrom_UnsupportedTriples(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		goos     string
		arch     string
		wordBits int
	}{
		{"windows arm64", "windows", "arm64", 64},
		{"windows 32-bit x86", "windows", "386", 32},
		{"darwin 32-bit", "darwin", "amd64", 32},
		{"freebsd armv7", "freebsd", "armv7l", 32},
		{"linux riscv64", "linux", "riscv64", 64},
		{"linux s390x", "linux", "s390x", 64},
		{"linux arm64 with 32-bit word size", "linux", "arm64", 32},
		{"linux armv7 with 64-bit word size", "linux", "armv7l", 64},
		{"linux bare arm 64-bit", "linux", "arm", 64},
		{"plan9 amd64", "plan9", "386", 32},
		{"empty triple", "", "", 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveFrom(tt.goos, tt.arch, tt.wordBits)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.ErrorIs(t, err, ErrUnsupported)

			var ue *UnsupportedError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.goos, ue.OS)
			assert.Equal(t, tt.arch, ue.Arch)
			assert.Equal(t, tt.wordBits, ue.WordBits)
		})
	}
}

func TestResolve_CurrentHost(t *testing.T) {
	t.Parallel()

	// CI hosts are always in the supported matrix, so Resolve must succeed
	// and return one of the closed set.
	got, err := Resolve()
	require.NoError(t, err)

	_, parseErr := Parse(got.String())
	assert.NoError(t, parseErr)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    Target
		wantErr bool
	}{
		{"linux amd64", "linux_amd64", LinuxAmd64, false},
		{"windows amd64", "windows_amd64", WindowsAmd64, false},
		{"mac arm64", "mac_arm64", MacArm64, false},
		{"freebsd arm64", "freebsd_arm64", FreeBSDArm64, false},
		{"uppercase rejected", "LINUX_AMD64", "", true},
		{"hyphenated rejected", "linux-amd64", "", true},
		{"unknown target", "solaris_sparc", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnsupported)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTarget_Ext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "zip", WindowsAmd64.Ext())
	assert.Equal(t, "tar.gz", LinuxAmd64.Ext())
	assert.Equal(t, "tar.gz", MacArm64.Ext())
	assert.Equal(t, "tar.gz", FreeBSDAmd64.Ext())
}

func TestTarget_ExeSuffix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".exe", WindowsAmd64.ExeSuffix())
	assert.Empty(t, LinuxArm64.ExeSuffix())
	assert.Empty(t, MacAmd64.ExeSuffix())
}
