package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"pokestate/internal/mcp"
	"pokestate/internal/player"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func mcpCmd() *cobra.Command {
	var loadID string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP tool server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(loadID)
		},
	}
	cmd.Flags().StringVar(&loadID, "load", "", "Save to restore before serving")
	return cmd
}

func runMCP(loadID string) error {
	ctx := context.Background()

	// stdout carries the protocol.
	rt, err := openRuntime(ctx, nil, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	players := player.NewStore(player.WithLogger(rt.log))
	if err := restore(ctx, rt, players, loadID); err != nil {
		return err
	}

	server := mcp.NewServer(players, rt.saves, rt.cfg.GameVersion, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
