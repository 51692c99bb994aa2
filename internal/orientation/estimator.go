// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/post_flight/internal/imu"
)

// Estimator is a complementary filter fusing gyro integration with the
// accelerometer tilt. It holds the running pose and must be driven by a
// single goroutine, one sample at a time, in timestamp order.
type Estimator struct {
	alpha float64
	pose  Pose
}

// NewEstimator returns an estimator starting level (pitch = roll = 0).
func NewEstimator(alpha float64) (*Estimator, error) {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: alpha must be within [0,1], got %v", ErrInvalidInput, alpha)
	}
	return &Estimator{alpha: alpha}, nil
}

// Pose returns the current fused estimate.
func (e *Estimator) Pose() Pose { return e.pose }

// Update advances the filter by one sample. dt is the time in seconds since
// the previous sample; the first sample of a flight uses dt = 0.
//
// Non-finite readings are not rejected and propagate into the state.
func (e *Estimator) Update(acc, gyro imu.Vec3, dt float64) Pose {
	tilt := AccelTilt(acc.X, acc.Y, acc.Z)

	e.pose.Pitch += gyro.Y * dt
	e.pose.Roll += gyro.X * dt

	e.pose.Pitch = e.alpha*e.pose.Pitch + (1-e.alpha)*tilt.Pitch
	e.pose.Roll = e.alpha*e.pose.Roll + (1-e.alpha)*tilt.Roll

	return e.pose
}

// Estimate runs one causal pass over samples and returns a trace of the same
// length. Inputs are validated before the first update so a failure never
// yields a partial trace.
func Estimate(samples []imu.Sample, alpha float64) (Trace, error) {
	est, err := NewEstimator(alpha)
	if err != nil {
		return Trace{}, err
	}
	if err := checkOrder(samples); err != nil {
		return Trace{}, err
	}

	trace := Trace{
		Poses: make([]Pose, 0, len(samples)),
		Times: make([]time.Time, 0, len(samples)),
	}
	for i, s := range samples {
		trace.Poses = append(trace.Poses, est.Update(s.Accel, s.Gyro, imu.DeltaSeconds(samples, i)))
		trace.Times = append(trace.Times, s.Time)
	}
	return trace, nil
}

func checkOrder(samples []imu.Sample) error {
	for i := 1; i < len(samples); i++ {
		if samples[i].Time.Before(samples[i-1].Time) {
			return fmt.Errorf("%w: sample %d at %s precedes sample %d at %s",
				ErrInvalidInput, i, samples[i].Time.Format(imu.TimestampLayout),
				i-1, samples[i-1].Time.Format(imu.TimestampLayout))
		}
	}
	return nil
}

// EstimateMany estimates independent flights concurrently. Each flight is
// still processed sequentially by its own estimator. The first failure
// cancels the rest.
func EstimateMany(ctx context.Context, flights [][]imu.Sample, alpha float64) ([]Trace, error) {
	traces := make([]Trace, len(flights))
	g, ctx := errgroup.WithContext(ctx)
	for i, samples := range flights {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tr, err := Estimate(samples, alpha)
			if err != nil {
				return fmt.Errorf("flight %d: %w", i, err)
			}
			traces[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return traces, nil
}
