package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `# Railway Info
discord:
  client_id: "123"
  client_secret: secret
  redirect_uri: http://localhost:30789/callback
  bot_token: bot
webserver:
  port: 8080
  debug: false
administration:
  web_admins:
    - "111"
    - "222"
  readonly: false
  maintenance_mode: false
  maintenance_message: ""
database:
  host: db.internal
  user: railway
  password: pw # keep me
  database: railway
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "railway", cfg.Database.DBName)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.Cache.LinesTTL)
	assert.Equal(t, []string{"111", "222"}, cfg.Admin.WebAdmins)
	assert.Equal(t, "https://discord.com/api/v10", cfg.Discord.APIURL)
	assert.True(t, cfg.IsAdmin("222"))
	assert.False(t, cfg.IsAdmin("333"))
	assert.False(t, cfg.IsAdmin(""))
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	t.Setenv("DATABASE_HOST", "override.internal")
	t.Setenv("ADMINISTRATION_WEB_ADMINS", "9,10")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.Equal(t, []string{"9", "10"}, cfg.Admin.WebAdmins)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, 30789, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Empty(t, cfg.Admin.WebAdmins)
}

func TestManager_SaveSettings(t *testing.T) {
	// Arrange
	path := writeConfig(t, sampleConfig)
	m, err := NewManager(path)
	require.NoError(t, err)
	before := m.Current()

	// Act
	cfg, err := m.SaveSettings(Settings{
		Port:               9000,
		Debug:              true,
		Readonly:           true,
		WebAdmins:          []string{"333"},
		MaintenanceMode:    true,
		MaintenanceMessage: "Back soon",
	})

	// Assert
	require.NoError(t, err)
	assert.Same(t, cfg, m.Current())
	assert.Equal(t, 8080, before.Server.Port, "old snapshot must not change")

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.True(t, cfg.Admin.Readonly)
	assert.Equal(t, []string{"333"}, cfg.Admin.WebAdmins)
	assert.Equal(t, "Back soon", cfg.Admin.MaintenanceMessage)
	assert.Equal(t, "db.internal", cfg.Database.Host)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# keep me")
	assert.Contains(t, string(raw), "client_secret: secret")
}

func TestManager_SaveSettings_CreatesMissingSections(t *testing.T) {
	path := writeConfig(t, "database:\n  host: localhost\n")
	m, err := NewManager(path)
	require.NoError(t, err)

	cfg, err := m.SaveSettings(Settings{Port: 1234, WebAdmins: []string{}})
	require.NoError(t, err)

	assert.Equal(t, 1234, cfg.Server.Port)
	assert.Equal(t, m.CurrentSettings().Port, 1234)
}
