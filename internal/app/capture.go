// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/relabs-tech/post_flight/internal/capture"
	"github.com/relabs-tech/post_flight/internal/config"
	"github.com/relabs-tech/post_flight/internal/imu"
)

// RunCapture records $PIMU sentences from the configured serial port into a
// CSV file at out until ctx is cancelled or the port closes.
func RunCapture(ctx context.Context, cfg *config.Config, out string) error {
	port, err := capture.OpenPort(cfg.CaptureSerialPort, cfg.CaptureBaudRate)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.CaptureSerialPort, err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		port.Close()
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		port.Close()
		return err
	}
	defer f.Close()

	// closing the port unblocks the reader once ctx is done
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-runCtx.Done()
		port.Close()
	}()

	log.Printf("capture: recording to %s", out)
	st, err := capture.Run(runCtx, port, imu.NewWriter(f))
	log.Printf("capture: %d samples written, %d sentences skipped", st.Samples, st.Skipped)
	if err != nil && ctx.Err() == nil {
		return err
	}
	return f.Sync()
}
