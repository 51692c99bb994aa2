// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/relabs-tech/post_flight/internal/imu"
)

type mockSource struct {
	start  time.Time
	period time.Duration
	n      int
	i      int
}

// NewMockSource creates a mock sample source for a body rocking slowly in
// pitch and roll, sampled at rate Hz for n samples. Gyro and accelerometer
// are mutually consistent so the filter output follows the true motion.
func NewMockSource(rate float64, n int) Source {
	if rate <= 0 {
		rate = 250
	}
	return &mockSource{
		start:  time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		period: time.Duration(float64(time.Second) / rate),
		n:      n,
	}
}

// MockPose is the true orientation the mock source simulates at t seconds.
func MockPose(t float64) Pose {
	return Pose{
		Pitch: 0.35 * math.Sin(t),
		Roll:  0.25 * math.Cos(t*0.7),
	}
}

func (m *mockSource) Next() (imu.Sample, error) {
	if m.i >= m.n {
		return imu.Sample{}, io.EOF
	}
	ts := m.start.Add(time.Duration(m.i) * m.period)
	elapsed := ts.Sub(m.start).Seconds()
	m.i++

	p := MockPose(elapsed)

	// Gravity direction that AccelTilt maps back to p.
	ax := -math.Sin(p.Roll) * math.Cos(p.Pitch)
	ay := math.Sin(p.Pitch)
	az := math.Cos(p.Roll) * math.Cos(p.Pitch)

	return imu.Sample{
		Time:  ts,
		Accel: imu.Vec3{X: ax, Y: ay, Z: az},
		Gyro: imu.Vec3{
			X: -0.25 * 0.7 * math.Sin(elapsed*0.7),
			Y: 0.35 * math.Cos(elapsed),
		},
	}, nil
}

// Collect drains src into a slice.
func Collect(src Source) ([]imu.Sample, error) {
	var samples []imu.Sample
	for {
		s, err := src.Next()
		if errors.Is(err, io.EOF) {
			return samples, nil
		}
		if err != nil {
			return samples, err
		}
		samples = append(samples, s)
	}
}
