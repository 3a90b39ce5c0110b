package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"kiosk-sections-backend/config"
)

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, config.DefaultPath, resolveConfigPath(""))

	t.Setenv("CONFIG_PATH", "/etc/kioskd.yaml")
	assert.Equal(t, "/etc/kioskd.yaml", resolveConfigPath(""))
	assert.Equal(t, "custom.yaml", resolveConfigPath("custom.yaml"))
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := rootCommand()
	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "kiosk.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"database:\n  driver: sqlite\n  dsn: "+dbPath+"\n  log_level: silent\nlog:\n  level: error\n"), 0o600))

	for _, key := range []string{"SERVER_PORT", "DATABASE_DRIVER", "DATABASE_DSN", "LOG_LEVEL", "LOG_ENVIRONMENT"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cmd := rootCommand()
	cmd.SetArgs([]string{"migrate", "--config", cfgPath})
	require.NoError(t, cmd.Execute())

	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.True(t, gdb.Migrator().HasTable("sections"))
	assert.True(t, gdb.Migrator().HasTable("machines"))
}
