package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the settings of the globaldb command.
type Config struct {
	Debug       bool   `mapstructure:"debug"`
	SentryDSN   string `mapstructure:"sentry_dsn"`
	DataDir     string `mapstructure:"data_dir"`
	ReferenceDB string `mapstructure:"reference_db"`
	UserDB      string `mapstructure:"user_db"`
	MetricsFile string `mapstructure:"metrics_file"`
}

// GlobalDBPath is where the live global DB lives inside DataDir.
func (c *Config) GlobalDBPath() string {
	return filepath.Join(c.DataDir, "global_data", "global.db")
}

var keys = []string{
	"debug",
	"sentry_dsn",
	"data_dir",
	"reference_db",
	"user_db",
	"metrics_file",
}

// Load reads configFile (or config.yaml from the usual places when empty), the .env files in envPath
// and GLOBALDB_* environment variables, later sources overriding earlier ones.
func Load(configFile string, envPath string) (*Config, error) {
	v := configureViper(configFile, envPath)

	v.SetDefault("data_dir", "data")
	v.SetDefault("reference_db", filepath.Join("data", "global.db"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func configureViper(configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("GLOBALDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
	return v
}

func loadEnv(envPath string) {
	if envPath == "" {
		envPath = "config/"
	}
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}
