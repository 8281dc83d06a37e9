package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dkozyrev/cavewatch/internal/config"
	"github.com/dkozyrev/cavewatch/internal/logger"
	"github.com/dkozyrev/cavewatch/internal/service/bot"
	"github.com/dkozyrev/cavewatch/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the default info level.
	logLevel string

	// rootCmd represents the base command for running the bot.
	rootCmd = &cobra.Command{
		Use:   "cavewatch",
		Short: "Run the check-in form tracker bot.",
		Long: `Starts the Telegram bot that tracks personnel check-in forms.

Forms arrive through the Telegram web-app, broadcasts go to the configured
form and alarm chats, and a periodic sweep escalates forms whose promised
return or control deadlines have passed. Active forms and the submission
journal are persisted to JSON files for recovery across restarts.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			return bot.Run(ctx, &bot.Options{ConfigPath: configPath})
		},
	}
)

// Execute runs the cavewatch CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
}
