package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tendapp/tend/cmd/tend/cmd"
	"github.com/tendapp/tend/internal/config"
	"github.com/tendapp/tend/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	rootCmd := &cobra.Command{
		Use:   "tend",
		Short: "Track intentions and daily reflections",
	}

	rootCmd.AddCommand(cmd.ListCmd(cfg))
	rootCmd.AddCommand(cmd.AddCmd(cfg))
	rootCmd.AddCommand(cmd.LogCmd(cfg))
	rootCmd.AddCommand(cmd.StatusCmd(cfg))
	rootCmd.AddCommand(cmd.ArchiveCmd(cfg))
	rootCmd.AddCommand(cmd.RemoveCmd(cfg))
	rootCmd.AddCommand(cmd.DuplicateCmd(cfg))
	rootCmd.AddCommand(cmd.MoveCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
