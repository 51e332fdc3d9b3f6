package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pokestate/internal/importer"
)

func importCmd() *cobra.Command {
	var name string
	var gameVersion string
	var exclude []string
	cmd := &cobra.Command{
		Use:   "import <roster.yaml|dir>...",
		Short: "Build a new save from YAML roster files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(args, name, gameVersion, exclude)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Name of the save to create")
	cmd.Flags().StringVar(&gameVersion, "game-version", "", "Game version label (defaults to config)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Paths to skip while walking directories")
	return cmd
}

func runImport(paths []string, name, gameVersion string, exclude []string) error {
	ctx := context.Background()

	rt, err := openRuntime(ctx, nil, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	if gameVersion == "" {
		gameVersion = rt.cfg.GameVersion
	}

	result, err := importer.Run(ctx, rt.saves, paths, importer.Options{
		Name:        name,
		GameVersion: gameVersion,
		Exclude:     exclude,
		Logger:      rt.log,
	})
	if result != nil {
		fmt.Fprintf(os.Stdout, "  Files read:      %d\n", result.FilesRead)
		fmt.Fprintf(os.Stdout, "  Files skipped:   %d\n", result.FilesSkipped)
		fmt.Fprintf(os.Stdout, "  Players created: %d\n", result.PlayersCreated)
		if len(result.Errors) > 0 {
			fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(result.Errors))
			for _, item := range result.Errors {
				fmt.Fprintf(os.Stdout, "  - %v\n", item)
			}
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nCreated save %s (%s)\n", result.Save.ID, result.Save.Name)
	if len(result.Errors) > 0 {
		return fmt.Errorf("import completed with errors")
	}
	return nil
}
