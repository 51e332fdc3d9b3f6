package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pokestate/internal/events"
	"pokestate/internal/httpapi"
	"pokestate/internal/metrics"
	"pokestate/internal/player"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	var addr string
	var loadID string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and change feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, loadID)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().StringVar(&loadID, "load", "", "Save to restore before serving")
	return cmd
}

func runServe(addr, loadID string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	rt, err := openRuntime(ctx, m, os.Stdout)
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	if addr == "" {
		addr = rt.cfg.Server.Addr
	}

	hub := events.NewHub(rt.log, m)
	go hub.Run(ctx)

	players := player.NewStore(player.WithLogger(rt.log), player.WithObserver(hub.Observe))
	if err := restore(ctx, rt, players, loadID); err != nil {
		return err
	}

	api := httpapi.New(players, rt.saves,
		httpapi.WithHub(hub),
		httpapi.WithMetrics(m),
		httpapi.WithLogger(rt.log),
		httpapi.WithVersion(version),
		httpapi.WithGameVersion(rt.cfg.GameVersion),
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.log.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	rt.log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// restore replaces the live players with a save's contents when id is set.
func restore(ctx context.Context, rt *runtime, players *player.Store, id string) error {
	if id == "" {
		return nil
	}
	loaded, err := rt.saves.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("loading save %s: %w", id, err)
	}
	players.Replace(loaded)
	rt.log.Infof("restored %d players from %s", len(loaded), id)
	return nil
}
