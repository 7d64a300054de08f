// Command minder is the Minder task tracker: a serve mode exposing the
// bridge over HTTP, and local subcommands operating on the same document.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/minderhq/minder/config"
	"github.com/minderhq/minder/internal/version"
)

var (
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
)

func main() {
	root := &cobra.Command{
		Use:           "minder",
		Short:         "Personal task and reminder tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A .env file is optional; ignore its absence.
			_ = godotenv.Load()

			if configPath == "" {
				configPath = os.Getenv("MINDER_CONFIG")
			}
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger = newLogger(cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (or $MINDER_CONFIG)")

	root.AddCommand(
		serveCmd(),
		addCmd(),
		listCmd(),
		doneCmd(),
		statsCmd(),
		backupCmd(),
		updateCmd(),
		versionCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("minder %s (%s, built %s)\n", version.Version, version.Commit, version.BuildDate)
		},
	}
}
