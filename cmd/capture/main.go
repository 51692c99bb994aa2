// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/relabs-tech/post_flight/internal/app"
	"github.com/relabs-tech/post_flight/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "configuration file")
	out := flag.String("out", "", "output CSV (defaults to DATA_DIR/flight_<timestamp>.csv)")
	flag.Parse()

	log.Println("starting post-flight IMU capture")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	path := *out
	if path == "" {
		path = filepath.Join(cfg.DataDir, fmt.Sprintf("flight_%s.csv", time.Now().Format("20060102_150405")))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunCapture(ctx, cfg, path); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
