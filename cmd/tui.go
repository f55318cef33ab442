package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ncp/internal/media"
	"github.com/desertthunder/ncp/internal/player"
	"github.com/desertthunder/ncp/internal/shared"
	"github.com/desertthunder/ncp/internal/ui"
	"github.com/urfave/cli/v3"
)

// Play launches the interactive terminal player.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine, controller, err := r.startPlayer(ctx)
	if err != nil {
		return err
	}
	defer engine.Close()

	model := ui.NewModel(ctx, r.cache, controller, r.config.Playlists, r.startPlaylist(cmd), r.logger)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// startPlayer launches mpv and a controller consuming its events until ctx ends.
func (r *Runner) startPlayer(ctx context.Context) (*media.MPV, *player.Controller, error) {
	engine := media.NewMPV(media.MPVOptions{
		Path:   r.config.Player.MPVPath,
		Logger: r.logger,
	})
	if err := engine.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start media engine: %w", err)
	}

	controller := player.NewController(engine, r.catalog,
		player.WithLoadTimeout(r.config.Player.LoadTimeout()),
		player.WithLogger(shared.WithLogger(r.logger, "component", "player")),
	)
	go controller.Run(ctx)

	return engine, controller, nil
}

// startPlaylist is --playlist when given, else the configured default.
func (r *Runner) startPlaylist(cmd *cli.Command) string {
	if id := cmd.String("playlist"); id != "" {
		return id
	}
	return r.config.DefaultPlaylist()
}
