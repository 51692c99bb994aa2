// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package capture

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/post_flight/internal/imu"
)

// Stats counts what a capture run saw.
type Stats struct {
	Samples int
	Skipped int
}

// OpenPort opens the IMU serial line at 8N1.
func OpenPort(name string, baud int) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:              name,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, err
	}
	log.Printf("capture: serial port opened on %s at %d baud", name, baud)
	return port, nil
}

// Run reads sentences from r until EOF or ctx is done and writes every
// $PIMU sample to w. Noise, partial lines and other sentence types are
// skipped. Samples are flushed before returning.
func Run(ctx context.Context, r io.Reader, w *imu.Writer) (Stats, error) {
	var st Stats
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		reader := bufio.NewReader(r)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return st, errors.Join(ctx.Err(), w.Flush())
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					log.Printf("capture: read error: %v", err)
					return st, errors.Join(err, w.Flush())
				default:
				}
				return st, w.Flush()
			}
			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "$") {
				continue
			}
			s, err := ParseLine(line)
			if err != nil {
				// partial sentences are normal right after the port opens
				st.Skipped++
				if !errors.Is(err, ErrNotIMU) {
					log.Printf("capture: skipping %q: %v", line, err)
				}
				continue
			}
			if err := w.Write(s); err != nil {
				return st, err
			}
			st.Samples++
		}
	}
}
