// Package main is the entry point for the framework-search service and its
// operational commands.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"framework-search/internal/common/config"
	"framework-search/internal/common/logger"
)

var rootCmd = &cobra.Command{
	Use:   "framework-search",
	Short: "Framework discovery search backend",
	Long: `framework-search serves the framework search API, processes search
analytics and runs the search-frameworks Zeebe worker. The migrate and index
commands manage the PostgreSQL schema and the Elasticsearch index.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: configs/config.yaml plus configs/config.<APP_ENVIRONMENT>.yaml)")
}

// loadConfig reads the file named by --config, or the default layered
// configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) (*zap.Logger, logger.Logger) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	return zapLog, logger.NewZapAdapter(zapLog)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
