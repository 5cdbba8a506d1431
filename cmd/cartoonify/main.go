package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jo-hoe/cartoonify/internal/core"
	cli "github.com/spf13/cobra"
)

var (
	rootCmd = &cli.Command{
		Use:           "cartoonify",
		Short:         "Turn face photos into transparent cartoon avatars",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cli.Command, args []string) {
			debug, _ := cmd.Flags().GetBool("debug")
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Log every pipeline stage.")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the config file. Defaults to $CONFIG_PATH or ./config.yaml.")
}

func loadConfig(cmd *cli.Command) (*core.ServiceConfig, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = "config.yaml"
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Run on defaults when no file is around
		config := &core.ServiceConfig{}
		config.ApplyDefaults()
		return config, config.Validate()
	}
	return core.LoadConfig(filepath.Clean(configPath))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("cartoonify failed", "error", err)
		os.Exit(1)
	}
}
