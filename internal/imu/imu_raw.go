// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidInput marks samples or sample streams that do not have the
// expected shape (missing channels, unparseable rows, bad ordering).
var ErrInvalidInput = errors.New("invalid IMU input")

// Channels is the number of scalar channels carried by a Sample:
// ax, ay, az, gx, gy, gz.
const Channels = 6

// Vec3 is a triaxial reading.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sample represents a single timestamped IMU reading.
// Accel is specific force (g or m/s²), Gyro is angular rate; the gyro unit
// must match the integration step (rad/s with dt in seconds).
type Sample struct {
	Time  time.Time `json:"time"`
	Accel Vec3      `json:"accel"`
	Gyro  Vec3      `json:"gyro"`
}

// NewSample builds a Sample from the six channels in CSV column order.
func NewSample(t time.Time, channels ...float64) (Sample, error) {
	if len(channels) != Channels {
		return Sample{}, fmt.Errorf("%w: want %d channels, got %d", ErrInvalidInput, Channels, len(channels))
	}
	return Sample{
		Time:  t,
		Accel: Vec3{X: channels[0], Y: channels[1], Z: channels[2]},
		Gyro:  Vec3{X: channels[3], Y: channels[4], Z: channels[5]},
	}, nil
}

// DeltaSeconds returns the time elapsed between sample i-1 and sample i.
// The first sample has no predecessor, so its delta is 0.
func DeltaSeconds(samples []Sample, i int) float64 {
	if i <= 0 || i >= len(samples) {
		return 0
	}
	return samples[i].Time.Sub(samples[i-1].Time).Seconds()
}
