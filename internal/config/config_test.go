package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 500*time.Millisecond, cfg.Batch.WriteDelay)
	assert.Equal(t, "roster.yaml", cfg.Sponsor.RosterPath)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/config.yaml", []byte(`
store:
  driver: postgres
  database_url: postgres://localhost/sponsors
batch:
  write_delay: 2s
auth:
  tokens:
    - token: secret-admin
      user: alice
      role: admin
`), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.Batch.WriteDelay)
	require.Len(t, cfg.Auth.Tokens, 1)

	id, ok := cfg.LookupToken("secret-admin")
	assert.True(t, ok)
	assert.Equal(t, "alice", id.User)
	assert.Equal(t, RoleAdmin, id.Role)

	_, ok = cfg.LookupToken("wrong")
	assert.False(t, ok)
	_, ok = cfg.LookupToken("")
	assert.False(t, ok)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
