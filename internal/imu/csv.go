// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the DD/MM/YYYY HH:MM:SS.ffffff format used by the
// flight recorder.
const TimestampLayout = "02/01/2006 15:04:05.000000"

// Columns lists the required CSV header names, in channel order after the
// timestamp.
var Columns = []string{"timestamp", "accel_x", "accel_y", "accel_z", "gyro_x", "gyro_y", "gyro_z"}

// LoadCSV reads every sample from the CSV file at path.
func LoadCSV(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	samples, err := ReadCSV(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// ReadCSV parses a flight log. Columns may appear in any order and extra
// columns are ignored, but every name in Columns must be present. The first
// malformed row aborts the read.
func ReadCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var samples []Sample
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidInput, line, err)
		}
		// Trailing blank lines from hand-edited files.
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		s, err := parseRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func columnIndex(header []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		pos[strings.ToLower(name)] = i
	}

	index := make([]int, len(Columns))
	for i, name := range Columns {
		p, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidInput, name)
		}
		index[i] = p
	}
	return index, nil
}

func parseRecord(record []string, index []int) (Sample, error) {
	field := func(col int) (string, error) {
		p := index[col]
		if p >= len(record) {
			return "", fmt.Errorf("%w: missing %s", ErrInvalidInput, Columns[col])
		}
		return strings.TrimSpace(record[p]), nil
	}

	raw, err := field(0)
	if err != nil {
		return Sample{}, err
	}
	t, err := ParseTimestamp(raw)
	if err != nil {
		return Sample{}, err
	}

	channels := make([]float64, 0, Channels)
	for col := 1; col < len(Columns); col++ {
		raw, err := field(col)
		if err != nil {
			return Sample{}, err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Sample{}, fmt.Errorf("%w: %s %q: %v", ErrInvalidInput, Columns[col], raw, err)
		}
		channels = append(channels, v)
	}
	return NewSample(t, channels...)
}

// ParseTimestamp parses a recorder timestamp. Fractions shorter than six
// digits are accepted.
func ParseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse("02/01/2006 15:04:05.999999", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %v", ErrInvalidInput, raw, err)
	}
	return t, nil
}

// Writer emits samples in the same CSV format ReadCSV consumes.
type Writer struct {
	cw          *csv.Writer
	wroteHeader bool
}

// NewWriter returns a Writer on w. The header is written with the first sample.
func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// Write appends one row.
func (w *Writer) Write(s Sample) error {
	if !w.wroteHeader {
		if err := w.cw.Write(Columns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		w.wroteHeader = true
	}
	row := []string{
		s.Time.Format(TimestampLayout),
		formatFloat(s.Accel.X), formatFloat(s.Accel.Y), formatFloat(s.Accel.Z),
		formatFloat(s.Gyro.X), formatFloat(s.Gyro.Y), formatFloat(s.Gyro.Z),
	}
	if err := w.cw.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

// Flush pushes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
