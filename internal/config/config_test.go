package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		env         map[string]string
		expectError bool
		validate    func(*testing.T, *Config)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
data_dir: /var/lib/globaldb
reference_db: /usr/share/globaldb/global.db
user_db: /var/lib/globaldb/user.db
metrics_file: /var/lib/node_exporter/globaldb.prom
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "/var/lib/globaldb", cfg.DataDir)
				assert.Equal(t, "/usr/share/globaldb/global.db", cfg.ReferenceDB)
				assert.Equal(t, "/var/lib/globaldb/user.db", cfg.UserDB)
				assert.Equal(t, "/var/lib/node_exporter/globaldb.prom", cfg.MetricsFile)
				assert.Equal(t, filepath.Join("/var/lib/globaldb", "global_data", "global.db"), cfg.GlobalDBPath())
			},
		},
		{
			name:       "config with defaults",
			configFile: `user_db: user.db`,
			validate: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Debug)
				assert.Equal(t, "data", cfg.DataDir)
				assert.Equal(t, filepath.Join("data", "global.db"), cfg.ReferenceDB)
				assert.Equal(t, "user.db", cfg.UserDB)
			},
		},
		{
			name:       "environment overrides file",
			configFile: `data_dir: from-file`,
			env:        map[string]string{"GLOBALDB_DATA_DIR": "from-env", "GLOBALDB_DEBUG": "true"},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "from-env", cfg.DataDir)
				assert.True(t, cfg.Debug)
			},
		},
		{
			name:       "missing config file",
			configFile: "",
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "data", cfg.DataDir)
			},
		},
		{
			name: "invalid yaml",
			configFile: `
				debug: [
			`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			tmpDir := t.TempDir()
			configFile := filepath.Join(tmpDir, "nonexistent.yaml")
			if tt.configFile != "" {
				configFile = filepath.Join(tmpDir, "config.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.configFile), 0600))
			}

			cfg, err := Load(configFile, tmpDir)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("GLOBALDB_USER_DB=from-dotenv.db\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("GLOBALDB_USER_DB") })

	cfg, err := Load(filepath.Join(tmpDir, "nonexistent.yaml"), tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.UserDB)
}
