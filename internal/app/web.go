// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/relabs-tech/post_flight/internal/config"
	"github.com/relabs-tech/post_flight/internal/render"
)

// RunWeb serves the browser viewer and replays the flight at path to every
// connected viewer, looping until ctx is cancelled.
func RunWeb(ctx context.Context, cfg *config.Config, path string, mock bool) error {
	if path == "" {
		path = cfg.DataFile
	}
	samples, err := LoadFlight(cfg, path, mock)
	if err != nil {
		return err
	}
	rp, err := Prepare(ctx, cfg, samples)
	if err != nil {
		return err
	}
	return serveReplay(ctx, cfg, rp, true)
}

func serveReplay(ctx context.Context, cfg *config.Config, rp *Replay, loop bool) error {
	hub := newHub(cfg, rp.Run, rp.Model, rp.Interval)
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Printf("web: server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
		close(serveErr)
	}()

	playErr := playLoop(ctx, rp, hub, loop)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("web: shutdown error: %v", err)
	}
	if err := <-serveErr; err != nil {
		return err
	}
	if errors.Is(playErr, context.Canceled) {
		log.Println("web: shutting down")
		return nil
	}
	return playErr
}

func playLoop(ctx context.Context, rp *Replay, r render.Renderer, loop bool) error {
	player := render.Player{Interval: rp.Interval}
	for pass := 1; ; pass++ {
		if err := player.Play(ctx, rp.Frames, r); err != nil {
			return err
		}
		log.Printf("web: pass %d finished (%d frames)", pass, len(rp.Frames))
		if !loop || len(rp.Frames) == 0 {
			// keep the last frame on screen
			<-ctx.Done()
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
