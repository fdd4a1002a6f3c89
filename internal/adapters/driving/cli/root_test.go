package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_PersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	v := flags.Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "v", v.Shorthand)
	assert.Equal(t, "false", v.DefValue)

	require.NotNil(t, flags.Lookup("config-dir"))

	env := flags.Lookup("env-file")
	require.NotNil(t, env)
	assert.Equal(t, ".env", env.DefValue)
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ask", "serve", "mcp", "settings", "tui", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestSetVersion(t *testing.T) {
	original := version
	t.Cleanup(func() { version = original })

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)

	SetVersion("")
	assert.Equal(t, "1.2.3", version, "empty version is ignored")
}

func TestSetup_LoadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DOCQA_SETUP_TEST=loaded\n"), 0o600))

	original := envFile
	envFile = path
	t.Cleanup(func() {
		envFile = original
		_ = os.Unsetenv("DOCQA_SETUP_TEST")
	})

	require.NoError(t, setup(rootCmd, nil))
	assert.Equal(t, "loaded", os.Getenv("DOCQA_SETUP_TEST"))
}

func TestSetup_MissingEnvFileIgnored(t *testing.T) {
	original := envFile
	envFile = filepath.Join(t.TempDir(), "absent.env")
	t.Cleanup(func() { envFile = original })

	assert.NoError(t, setup(rootCmd, nil))
}

func TestSetup_EmptyEnvFile(t *testing.T) {
	original := envFile
	envFile = ""
	t.Cleanup(func() { envFile = original })

	assert.NoError(t, setup(rootCmd, nil))
}

func TestLoadSettingsService_UsesConfigDir(t *testing.T) {
	originalSvc, originalDir := settingsService, configDir
	settingsService = nil
	configDir = t.TempDir()
	t.Cleanup(func() {
		settingsService = originalSvc
		configDir = originalDir
	})

	svc, err := loadSettingsService()
	require.NoError(t, err)
	require.NotNil(t, svc)

	again, err := loadSettingsService()
	require.NoError(t, err)
	assert.Same(t, svc, again)
}
