package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice_conversion/config"
)

const minimalYAML = `
app:
  name: "vc"
  version: "0.1.0"
server:
  port: "9090"
logger:
  log_level: "debug"
engine:
  args: ["-m", "rvc_python", "cli"]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "vc", cfg.App.Name)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, int64(200), cfg.Server.MaxUploadMB)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "cpu", cfg.Engine.Device)
	assert.Equal(t, "python", cfg.Engine.Binary)
	assert.Equal(t, []string{"-m", "rvc_python", "cli"}, cfg.Engine.Args)
	assert.Equal(t, time.Duration(0), cfg.Engine.Timeout)
	assert.Equal(t, "vc_session", cfg.Session.CookieName)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "none", cfg.Archive.Backend)
	assert.False(t, cfg.RMQ.Enabled)
	assert.Equal(t, "none", cfg.OTEL.Exporter)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENGINE_DEVICE", "cuda:0")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("ARCHIVE_BACKEND", "s3")

	cfg, err := config.Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "cuda:0", cfg.Engine.Device)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "s3", cfg.Archive.Backend)
}

func TestLoad_MissingRequired(t *testing.T) {
	_, err := config.Load(writeConfig(t, "logger:\n  log_level: info\n"))
	require.Error(t, err)
}

func TestNewConfig_UsesConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, minimalYAML))

	cfg, err := config.NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "vc", cfg.App.Name)
}

func TestNewConfig_ShippedFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "config.yml")

	cfg, err := config.NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "voice-conversion", cfg.App.Name)
	assert.Equal(t, "cpu", cfg.Engine.Device)
	require.Len(t, cfg.Engine.LoadCheckArgs, 2)
	assert.Equal(t, "-c", cfg.Engine.LoadCheckArgs[0])
}
