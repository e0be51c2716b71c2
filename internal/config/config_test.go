package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "yahoo", cfg.Provider.Name)
	assert.Equal(t, "local", cfg.Export.Backend)
	assert.Equal(t, "data/exports", cfg.Export.Local.Dir)
	assert.Equal(t, []string{"console"}, cfg.Logging.Output)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9090
provider:
  name: mock
export:
  backend: s3
  s3:
    bucket: quotes
    region: us-east-1
schedule:
  daily_cron: "0 0 17 * * 1-5"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mock", cfg.Provider.Name)
	assert.Equal(t, "quotes", cfg.Export.S3.Bucket)
	assert.Equal(t, "0 0 17 * * 1-5", cfg.Schedule.DailyCron)
	assert.NotEmpty(t, cfg.Schedule.HourlyCron)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[export]
backend = "drive"

[export.drive]
folder_id = "abc123"

[telegram]
bot_token = "token"
chat_id = "42"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "drive", cfg.Export.Backend)
	assert.Equal(t, "abc123", cfg.Export.Drive.FolderID)
	assert.True(t, cfg.Telegram.Enabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  port: 9090\n")
	t.Setenv("MW_SERVER_PORT", "7070")
	t.Setenv("MW_EXPORT_LOCAL_DIR", "/tmp/out")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/out", cfg.Export.Local.Dir)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "server: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	cfg.Export.Backend = "s3"
	assert.ErrorContains(t, cfg.Validate(), "export.s3.bucket")

	cfg.Export.Backend = "ftp"
	assert.ErrorContains(t, cfg.Validate(), "export.backend")

	cfg.Export.Backend = "local"
	cfg.Provider.Name = "bloomberg"
	assert.ErrorContains(t, cfg.Validate(), "provider.name")

	cfg.Provider.Name = "yahoo"
	cfg.Telegram.BotToken = "only-token"
	assert.ErrorContains(t, cfg.Validate(), "telegram")
}
