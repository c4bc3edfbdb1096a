package vuln

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanVersion(t *testing.T) {
	cases := map[string]string{
		"^1.2.3":   "1.2.3",
		"~=2.0":    "2.0",
		"==4.5.6":  "4.5.6",
		">=1.0,<2": "1.0",
		"v1.9.0":   "1.9.0",
		"":         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, cleanVersion(in), "input %q", in)
	}
}

func TestParseManifest_PackageJSON(t *testing.T) {
	content := []byte(`{"dependencies":{"lodash":"^4.17.21"},"devDependencies":{"jest":"~29.0.0"}}`)
	pkgs, err := ParseManifest("package.json", content)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	for _, p := range pkgs {
		assert.Equal(t, EcosystemNPM, p.Ecosystem)
	}
}

func TestParseManifest_RequirementsTxt(t *testing.T) {
	content := []byte("django==4.2.0\n# a comment\nrequests>=2.28\n\nflask~=2.3\n")
	pkgs, err := ParseManifest("requirements.txt", content)
	require.NoError(t, err)
	require.Len(t, pkgs, 3)
	assert.Equal(t, "django", pkgs[0].Name)
	assert.Equal(t, "4.2.0", pkgs[0].CleanedVersion)
	assert.Equal(t, EcosystemPyPI, pkgs[0].Ecosystem)
}

func TestParseManifest_GoMod(t *testing.T) {
	content := []byte("module example.com/x\n\ngo 1.22\n\nrequire (\n\tgithub.com/foo/bar v1.2.3\n\tgithub.com/baz/qux v0.5.0 // indirect\n)\n")
	pkgs, err := ParseManifest("go.mod", content)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "github.com/foo/bar", pkgs[0].Name)
	assert.Equal(t, "1.2.3", pkgs[0].CleanedVersion)
	assert.Equal(t, EcosystemGo, pkgs[0].Ecosystem)
}

func TestParseManifest_UnknownBasenameReturnsNil(t *testing.T) {
	pkgs, err := ParseManifest("Cargo.lock", []byte("irrelevant"))
	require.NoError(t, err)
	assert.Nil(t, pkgs)
}

func TestIsLockfileBasename(t *testing.T) {
	assert.True(t, IsLockfileBasename("path/to/go.mod"))
	assert.True(t, IsLockfileBasename("requirements.txt"))
	assert.False(t, IsLockfileBasename("main.go"))
}
