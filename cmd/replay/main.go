// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/post_flight/internal/app"
	"github.com/relabs-tech/post_flight/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "configuration file")
	mode := flag.String("mode", app.ModePNG, "renderers, comma-separated: png, mqtt, headless; or web alone")
	data := flag.String("data", "", "flight CSV (defaults to DATA_FILE)")
	mock := flag.Bool("mock", false, "replay a synthetic flight instead of a recording")
	reports := flag.Bool("reports", true, "write the attitude plot and chart")
	flag.Parse()

	log.Println("starting post-flight replay")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.ReplayOptions{Mode: *mode, Data: *data, Mock: *mock, Reports: *reports}
	if _, err := app.RunReplay(ctx, config.Get(), opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
