package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lllllllleong/routinesharing/internal/config"
)

var (
	initProject string
	initBucket  string
	initForce   bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the routinectl config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check config: %w", err)
		}

		cfg := config.DefaultConfig()
		cfg.ProjectID = initProject
		cfg.ExportBucket = initBucket
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&initProject, "project", "", "Google Cloud project that holds the routines")
	configInitCmd.Flags().StringVar(&initBucket, "export-bucket", "", "Bucket for published exports")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	_ = configInitCmd.MarkFlagRequired("project")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
