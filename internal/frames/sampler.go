// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frames

import (
	"math"
	"time"
)

// Step returns how many samples to advance per rendered frame,
// floor(sourceRate / targetFPS), never below 1. A non-positive frame rate
// degrades to full-rate playback instead of dividing by zero.
func Step(sourceRate, targetFPS float64) int {
	if targetFPS <= 0 || sourceRate <= 0 {
		return 1
	}
	ratio := math.Floor(sourceRate / targetFPS)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio < 1 {
		return 1
	}
	if ratio > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ratio)
}

// Indices returns the trace entries to render: 0, step, 2*step, ... below n.
// The first entry is always rendered when n > 0.
func Indices(sourceRate, targetFPS float64, n int) []int {
	if n <= 0 {
		return nil
	}
	step := Step(sourceRate, targetFPS)
	out := make([]int, 0, (n+step-1)/step)
	for i := 0; i < n; i += step {
		out = append(out, i)
	}
	return out
}

// Interval is the wall-clock budget between frames, 1000/targetFPS ms.
// Without a usable frame rate every sample is a frame, so one sample period
// is used; with neither rate known, one second.
func Interval(sourceRate, targetFPS float64) time.Duration {
	switch {
	case targetFPS > 0 && !math.IsInf(targetFPS, 0):
		return time.Duration(float64(time.Second) / targetFPS)
	case sourceRate > 0 && !math.IsInf(sourceRate, 0):
		return time.Duration(float64(time.Second) / sourceRate)
	default:
		return time.Second
	}
}
