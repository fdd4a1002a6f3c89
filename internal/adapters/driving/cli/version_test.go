package cli

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	original := version
	version = v
	t.Cleanup(func() {
		version = original
		versionShort = false
	})
}

func TestVersionCmd_Full(t *testing.T) {
	withVersion(t, "1.4.0")

	out, err := executeCommand(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "docqa version 1.4.0")
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestVersionCmd_Short(t *testing.T) {
	withVersion(t, "dev")

	out, err := executeCommand(t, "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, "dev", strings.TrimSpace(out))
}

func TestVCSRevision_Bounded(t *testing.T) {
	assert.LessOrEqual(t, len(vcsRevision()), 12)
}
