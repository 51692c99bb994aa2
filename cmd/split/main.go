// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/post_flight/internal/app"
	"github.com/relabs-tech/post_flight/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "configuration file")
	dir := flag.String("dir", "", "directory holding large_ files (defaults to DATA_DIR)")
	flag.Parse()

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunSplit(config.Get(), *dir); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
