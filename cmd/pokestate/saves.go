package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func savesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saves",
		Short: "Inspect and manage save files",
	}
	cmd.AddCommand(savesListCmd())
	cmd.AddCommand(savesShowCmd())
	cmd.AddCommand(savesDeleteCmd())
	cmd.AddCommand(savesBackupCmd())
	return cmd
}

func savesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saves, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := openRuntime(ctx, nil, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			summaries, err := rt.saves.List(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Fprintln(os.Stdout, "No saves found.")
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(os.Stdout, "%s  %s [%s] %d players, updated %s\n",
					s.ID, s.Name, s.GameVersion, s.PlayerCount, s.LastUpdated.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func savesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <save-id>",
		Short: "Print the players in a save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := openRuntime(ctx, nil, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			f, err := rt.saves.Get(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s (%s)\n", f.Name, f.ID)
			fmt.Fprintf(os.Stdout, "  Game version: %s\n", f.GameVersion)
			fmt.Fprintf(os.Stdout, "  Created:      %s\n", f.CreatedAt.Format(time.RFC3339))
			fmt.Fprintf(os.Stdout, "  Updated:      %s\n", f.LastUpdated.Format(time.RFC3339))
			if len(f.Players) == 0 {
				fmt.Fprintln(os.Stdout, "  No players.")
				return nil
			}
			fmt.Fprintf(os.Stdout, "\nPlayers (%d):\n", len(f.Players))
			for _, p := range f.Players {
				fmt.Fprintf(os.Stdout, "  - %s %s: %d pokemon, %d battles, %d badges\n",
					p.ID, p.Name, len(p.Team), len(p.BattleHistory), len(p.Badges))
				for _, member := range p.Team {
					fmt.Fprintf(os.Stdout, "      #%d %s Lv%d %v\n", member.ID, member.Name, member.Level, member.Types)
				}
			}
			return nil
		},
	}
}

func savesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <save-id>",
		Short: "Delete a save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := openRuntime(ctx, nil, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			if err := rt.saves.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func savesBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <save-id>",
		Short: "Copy a save to a timestamped backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rt, err := openRuntime(ctx, nil, os.Stderr)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			backupID, err := rt.saves.Backup(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Backed up %s to %s\n", args[0], backupID)
			return nil
		},
	}
}
