package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/routinesharing/internal/config"
	"github.com/Lllllllleong/routinesharing/internal/routines"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:           "routinectl",
	Short:         "routinectl browses and shares weekly routines",
	Long:          "routinectl lists, likes, exports and uploads weekly habit routines shared by anonymous users.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log debug output to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Debug("Command failed.", "error", err)
		fmt.Fprintln(os.Stderr, routines.Notice(err))
		os.Exit(1)
	}
}
