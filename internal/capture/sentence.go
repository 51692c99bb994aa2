// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package capture records raw IMU samples streamed by the flight board as
// proprietary NMEA sentences:
//
//	$PIMU,05/07/2025,14:03:21.004000,ax,ay,az,gx,gy,gz*CS
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/post_flight/internal/imu"
)

// TypePIMU is the sentence type after the proprietary "P" talker.
const TypePIMU = "IMU"

// ErrNotIMU is returned for well-formed sentences that carry no IMU sample.
var ErrNotIMU = errors.New("not a PIMU sentence")

// PIMU is one IMU sample sentence.
type PIMU struct {
	nmea.BaseSentence
	Sample imu.Sample
}

var parser = nmea.SentenceParser{
	CustomParsers: map[string]nmea.ParserFunc{
		TypePIMU: newPIMU,
	},
}

func newPIMU(s nmea.BaseSentence) (nmea.Sentence, error) {
	p := nmea.NewParser(s)
	date := p.String(0, "date")
	clock := p.String(1, "time")
	channels := make([]float64, imu.Channels)
	for i, name := range imu.Columns[1:] {
		channels[i] = p.Float64(2+i, name)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	if len(s.Fields) != 2+imu.Channels {
		return nil, fmt.Errorf("%w: PIMU has %d fields, want %d", imu.ErrInvalidInput, len(s.Fields), 2+imu.Channels)
	}

	t, err := imu.ParseTimestamp(date + " " + clock)
	if err != nil {
		return nil, err
	}
	sample, err := imu.NewSample(t, channels...)
	if err != nil {
		return nil, err
	}
	return PIMU{BaseSentence: s, Sample: sample}, nil
}

// ParseLine decodes a single $PIMU line, checksum included.
func ParseLine(line string) (imu.Sample, error) {
	s, err := parser.Parse(strings.TrimSpace(line))
	if err != nil {
		return imu.Sample{}, err
	}
	m, ok := s.(PIMU)
	if !ok {
		return imu.Sample{}, fmt.Errorf("%w: %s", ErrNotIMU, s.Prefix())
	}
	return m.Sample, nil
}

// Format renders a sample as a $PIMU sentence with its checksum.
func Format(s imu.Sample) string {
	fields := []string{"PIMU", s.Time.Format("02/01/2006"), s.Time.Format("15:04:05.000000")}
	for _, v := range []float64{s.Accel.X, s.Accel.Y, s.Accel.Z, s.Gyro.X, s.Gyro.Y, s.Gyro.Z} {
		fields = append(fields, strconv.FormatFloat(v, 'f', -1, 64))
	}
	body := strings.Join(fields, ",")
	return "$" + body + "*" + nmea.Checksum(body)
}
