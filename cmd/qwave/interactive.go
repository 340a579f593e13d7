package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/qwave/internal/audio"
	"github.com/san-kum/qwave/internal/gui"
	"github.com/san-kum/qwave/internal/physics"
	"github.com/san-kum/qwave/internal/server"
	"github.com/san-kum/qwave/internal/sim"
	"github.com/san-kum/qwave/internal/source"
	"github.com/san-kum/qwave/internal/tui"
)

func runLive(cmd *cobra.Command, args []string) error {
	loop, sw, _, err := newSession(cfg, altSource)
	if err != nil {
		return err
	}
	defer loop.Orchestrator().Backend().Cleanup()
	if sound {
		player := audio.NewPlayer()
		if err := player.Start(); err != nil {
			log.WithError(err).Warn("sound disabled")
		} else {
			defer player.Stop()
			o := loop.Orchestrator()
			o.AddObserver(audio.NewSonifier(player.Synth, func() float64 {
				return o.Field().Probability(physics.SpongeWidth)
			}))
		}
	}
	quietLogs()

	s := tui.Session{Loop: loop, Switch: sw, Preset: presetName, GIFPath: gifPath}
	if menu {
		return tui.RunInteractive(s)
	}
	return tui.Run(s)
}

func runGUI(cmd *cobra.Command, args []string) error {
	quietLogs()
	return gui.Run(gui.Options{
		Preset:  presetName,
		GIFPath: gifPath,
		Build: func() (*sim.Loop, *source.Switch, error) {
			loop, sw, _, err := newSession(cfg, altSource)
			return loop, sw, err
		},
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	alt := altSource
	if !cmd.Flags().Changed("alt-source") {
		alt = "none"
	}
	loop, sw, feed, err := newSession(cfg, alt)
	if err != nil {
		return err
	}
	defer loop.Orchestrator().Backend().Cleanup()
	if feed == nil {
		log.WithField("alt_source", alt).Warn("uploads disabled: secondary source is not a feed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	srv := server.NewServer(cfg.Server.Addr, upgrader, server.NewHub(loop, sw, feed))
	return srv.Serve(ctx)
}
