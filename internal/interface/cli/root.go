package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/neilberkman/dmclient/internal/core/config"
	"github.com/neilberkman/dmclient/internal/core/logging"
	"github.com/spf13/cobra"
)

var (
	dbPath      string
	configPath  string
	logLevel    string
	versionInfo string

	cfg    *config.Config
	logger *slog.Logger
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dmclient",
	Short: "Campaign archive tool for game masters",
	Long: `dmclient - inspect, unpack, and catalog campaign archives

A campaign archive is a bzip2-compressed tar carrying a properties.json
metadata document at its root. dmclient validates that document, unpacks
archives into working directories, and keeps a searchable catalog of the
archives it has seen.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Catalog database path (default from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
}

// setup loads config and builds the logger. Flags win over config values.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.LoadFrom(configPath)
	if err != nil {
		return err
	}

	if dbPath == "" {
		dbPath = cfg.CatalogPath
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger = logging.New(os.Stderr, level)
	return nil
}
