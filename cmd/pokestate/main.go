package main

import (
	"os"

	"github.com/spf13/cobra"

	"pokestate/internal/config"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "pokestate",
		Short: "Player, team and save-file backend for tracked game sessions",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the project config file")
	root.AddCommand(serveCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(savesCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(importCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
