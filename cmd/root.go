package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syntropynet/globaldb/internal/config"
	"github.com/syntropynet/globaldb/internal/globaldb"
	"github.com/syntropynet/globaldb/internal/logger"
)

var (
	flagVerbose     *bool
	flagConfig      *string
	flagDataDir     *string
	flagReferenceDB *string
	flagUserDB      *string
	flagMetricsFile *string

	cfg      *config.Config
	database *globaldb.Handler
)

var rootCmd = &cobra.Command{
	Use:          "globaldb",
	Short:        "Inspect and maintain the global asset database",
	Long:         `globaldb manages the shared asset catalog and price history database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(*flagConfig, "")
		if err != nil {
			return err
		}
		applyFlags(cmd, c)
		cfg = c

		err = logger.Initialize(logger.Config{
			Debug:     cfg.Debug,
			SentryDSN: cfg.SentryDSN,
			Tags:      map[string]string{"app": "globaldb"},
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		handler, err := globaldb.InitializeOnce(
			cmd.Context(),
			cfg.GlobalDBPath(),
			globaldb.WithReferencePath(cfg.ReferenceDB),
			globaldb.WithLogger(logger.Default()),
			globaldb.WithRegisterer(prometheus.DefaultRegisterer),
		)
		if err != nil {
			return fmt.Errorf("failed to open global DB %s: %w", cfg.GlobalDBPath(), err)
		}
		database = handler
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		defer logger.Flush(2 * time.Second)

		if database == nil {
			return
		}
		if err := database.Close(); err != nil {
			logger.Default().Error("Failed to close global DB", zap.Error(err))
		}
		if cfg.MetricsFile != "" {
			if err := prometheus.WriteToTextfile(cfg.MetricsFile, prometheus.DefaultGatherer); err != nil {
				logger.Default().Error("Failed to write metrics", zap.String("file", cfg.MetricsFile), zap.Error(err))
			}
		}
	},
}

// applyFlags lets explicitly set flags override the loaded configuration.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("verbose") || *flagVerbose {
		c.Debug = *flagVerbose
	}
	if flags.Changed("data-dir") {
		c.DataDir = *flagDataDir
	}
	if flags.Changed("reference-db") {
		c.ReferenceDB = *flagReferenceDB
	}
	if flags.Changed("user-db") {
		c.UserDB = *flagUserDB
	}
	if flags.Changed("metrics-file") {
		c.MetricsFile = *flagMetricsFile
	}
}

func Execute() {
	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	const (
		DATA_DIR     = "GLOBALDB_DATA_DIR"
		REFERENCE_DB = "GLOBALDB_REFERENCE_DB"
		USER_DB      = "GLOBALDB_USER_DB"
		METRICS_FILE = "GLOBALDB_METRICS_FILE"
	)

	flagConfig = rootCmd.PersistentFlags().StringP("config", "", "", "Config file (default is ./config.yaml or ./config/config.yaml)")
	flagDataDir = rootCmd.PersistentFlags().StringP("data-dir", "d", os.Getenv(DATA_DIR), "Data directory holding global_data/global.db")
	flagReferenceDB = rootCmd.PersistentFlags().StringP("reference-db", "r", os.Getenv(REFERENCE_DB), "Packaged reference global DB")
	flagUserDB = rootCmd.PersistentFlags().StringP("user-db", "u", os.Getenv(USER_DB), "User DB consulted by resets")
	flagMetricsFile = rootCmd.PersistentFlags().StringP("metrics-file", "", os.Getenv(METRICS_FILE), "Write prometheus metrics to this textfile on exit")

	_, verbosePresent := os.LookupEnv("VERBOSE")

	flagVerbose = rootCmd.PersistentFlags().BoolP("verbose", "v", verbosePresent, "Verbose output")
}
