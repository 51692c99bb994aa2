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
	"time"

	"github.com/relabs-tech/post_flight/internal/app"
	"github.com/relabs-tech/post_flight/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "configuration file")
	mock := flag.Bool("mock", false, "estimate the synthetic flight locally instead of subscribing")
	interval := flag.Duration("interval", 100*time.Millisecond, "print interval for -mock")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if *mock {
		log.Println("starting post-flight console (mock)")
		err = app.RunMockConsole(ctx, config.Get(), os.Stdout, *interval)
	} else {
		log.Println("starting post-flight console (MQTT subscriber)")
		err = app.RunConsole(ctx, config.Get(), os.Stdout)
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
