package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ncp/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the player headless and exposes it over the HTTP control surface.
//
// The start playlist is fetched up front so POST /toggle has tracks to pick from.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, controller, err := r.startPlayer(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	start := r.startPlaylist(cmd)
	if start != "" {
		if entry, err := r.cache.Get(ctx, start); err != nil {
			r.logger.Warn("failed to preload playlist", "id", start, "error", err)
		} else {
			controller.SetVisible(entry.Tracks)
			r.logger.Info("playlist ready", "id", start, "name", entry.Detail.Name, "tracks", len(entry.Tracks))
		}
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	router := server.NewControlRouter(controller, r.cache, start, r.logger)
	return server.New(addr, router, r.logger).Run(ctx)
}
