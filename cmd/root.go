package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arcanaland/highlander/internal/config"
	"github.com/arcanaland/highlander/internal/logging"
)

var (
	configPath string
	verbose    bool
	buildMode  bool

	logger *zap.Logger
	cfg    *config.Config
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "highlander",
	Short: "Card catalog and deck legality checker for 100-card singleton decks",
	Long: `Highlander keeps a filtered local copy of the Scryfall card catalog and checks
100-card singleton decks built around a commander against the format's card pool,
the banned and allowed lists, color identity and the singleton rule.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return err
		}

		if configPath == "" {
			configPath = config.GetConfigFilePath()
		}
		cfg, err = config.LoadConfigFrom(configPath)
		if err != nil {
			return err
		}
		logger.Debug("configuration loaded",
			zap.String("path", configPath),
			zap.String("format", cfg.Format),
			zap.String("cache_file", cfg.CacheFile))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/highlander/config.toml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().BoolVar(&buildMode, "build-mode", false, "require an existing card cache instead of downloading one")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}
