package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/privategpt-go/internal/config"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

var (
	cfgFile  string
	logLevel string
	watchDir string
)

var rootCmd = &cobra.Command{
	Use:          "privategpt",
	Short:        "privategpt answers questions about a document using local models",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web UI",
	RunE:  runServe,
}

var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "Chat with a document in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChat,
}

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Print the effective configuration",
	Example: "privategpt config > config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return config.Dump(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides log.level")
	serveCmd.Flags().StringVar(&watchDir, "watch", "", "directory to watch for documents, overrides watch.dir")

	rootCmd.AddCommand(serveCmd, chatCmd, configCmd)
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	config.SetLogLevel(cfg)
	return cfg, nil
}

// Execute executes the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.GetLogger().WithError(err).Error("privategpt failed")
		os.Exit(1)
	}
}
