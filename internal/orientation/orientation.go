// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"errors"
	"math"
	"time"

	"github.com/relabs-tech/post_flight/internal/imu"
)

// ErrInvalidInput is returned before estimation starts when the samples or
// the filter configuration cannot be processed.
var ErrInvalidInput = errors.New("invalid estimator input")

// DefaultAlpha weights the gyro-integrated angle against the accelerometer
// tilt. Higher trusts the gyro more.
const DefaultAlpha = 0.98

// Pose is the canonical representation of orientation for the replay.
// Angles are radians. Yaw is not estimated.
type Pose struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// Degrees returns pitch and roll in degrees.
func (p Pose) Degrees() (pitch, roll float64) {
	return p.Pitch * 180.0 / math.Pi, p.Roll * 180.0 / math.Pi
}

// Source is anything that can provide IMU samples in time order.
// Next returns io.EOF when exhausted.
type Source interface {
	Next() (imu.Sample, error)
}

// AccelTilt computes pitch and roll from accelerometer data only, assuming
// the reading approximates gravity:
//
//	pitch = atan2(ay, sqrt(ax² + az²))
//	roll  = atan2(-ax, az)
func AccelTilt(ax, ay, az float64) Pose {
	return Pose{
		Pitch: math.Atan2(ay, math.Sqrt(ax*ax+az*az)),
		Roll:  math.Atan2(-ax, az),
	}
}

// Trace is the estimator output: one pose per input sample.
type Trace struct {
	Poses []Pose      `json:"poses"`
	Times []time.Time `json:"times"`
}

// Len returns the number of entries.
func (t Trace) Len() int { return len(t.Poses) }

// At returns the pose of entry i.
func (t Trace) At(i int) Pose { return t.Poses[i] }

// Elapsed returns the seconds between the first sample and entry i.
func (t Trace) Elapsed(i int) float64 {
	if i <= 0 || i >= len(t.Times) {
		return 0
	}
	return t.Times[i].Sub(t.Times[0]).Seconds()
}
