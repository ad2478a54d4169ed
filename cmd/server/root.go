package main

import (
	"aura-backend/internal/config"
	"aura-backend/internal/logging"

	"github.com/spf13/cobra"
)

// cfg holds the loaded configuration after PersistentPreRunE
var cfg = config.Default()

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd starts the HTTP server when no subcommand is given
var rootCmd = &cobra.Command{
	Use:           "aura",
	Short:         "AURA analytics backend: ingest usage data, compute metrics, serve reports.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			loaded.LogFormat = logFormat
		}
		cfg = loaded
		logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServer(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./aura.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	rootCmd.AddCommand(serveCmd, analyzeCmd, configCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
