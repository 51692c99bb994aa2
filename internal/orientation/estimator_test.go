package orientation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/post_flight/internal/imu"
)

var t0 = time.Date(2025, time.July, 5, 14, 3, 21, 0, time.UTC)

// samplesAt builds n samples spaced by dt seconds with constant readings.
func samplesAt(n int, dt float64, acc, gyro imu.Vec3) []imu.Sample {
	samples := make([]imu.Sample, n)
	for i := range samples {
		samples[i] = imu.Sample{
			Time:  t0.Add(time.Duration(float64(i) * dt * float64(time.Second))),
			Accel: acc,
			Gyro:  gyro,
		}
	}
	return samples
}

var level = imu.Vec3{Z: 1}

func TestAccelTilt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ax, ay, az float64
		want       Pose
	}{
		{"level", 0, 0, 1, Pose{}},
		{"nose up", 0, 1, 0, Pose{Pitch: math.Pi / 2}},
		{"rolled", -1, 0, 1, Pose{Roll: math.Pi / 4}},
		{"nose down", 0, -1, 0, Pose{Pitch: -math.Pi / 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AccelTilt(tt.ax, tt.ay, tt.az)
			assert.InDelta(t, tt.want.Pitch, got.Pitch, 1e-12)
			assert.InDelta(t, tt.want.Roll, got.Roll, 1e-12)
		})
	}
}

func TestEstimateLength(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 2, 17, 250} {
		tr, err := Estimate(samplesAt(n, 0.004, level, imu.Vec3{X: 0.1}), DefaultAlpha)
		require.NoError(t, err)
		assert.Equal(t, n, tr.Len())
		assert.Len(t, tr.Times, n)
	}
}

func TestEstimateStationaryConverges(t *testing.T) {
	tilt := 0.2
	acc := imu.Vec3{Y: math.Sin(tilt), Z: math.Cos(tilt)}

	tr, err := Estimate(samplesAt(1000, 0.004, acc, imu.Vec3{}), DefaultAlpha)
	require.NoError(t, err)

	last := tr.At(tr.Len() - 1)
	assert.InDelta(t, tilt, last.Pitch, 1e-6)
	assert.InDelta(t, 0, last.Roll, 1e-12)

	// Monotone approach from the level start, never overshooting.
	for i := 1; i < tr.Len(); i++ {
		assert.GreaterOrEqual(t, tr.At(i).Pitch, tr.At(i-1).Pitch)
		assert.LessOrEqual(t, tr.At(i).Pitch, tilt+1e-12)
	}
}

func TestEstimateAlphaOneIsPureGyro(t *testing.T) {
	// Uneven spacing and a tilted accelerometer that must be ignored.
	offsets := []float64{0, 0.01, 0.015, 0.03, 0.031, 0.05}
	samples := make([]imu.Sample, len(offsets))
	for i, off := range offsets {
		samples[i] = imu.Sample{
			Time:  t0.Add(time.Duration(off * float64(time.Second))),
			Accel: imu.Vec3{X: 0.3, Y: 0.5, Z: 0.8},
			Gyro:  imu.Vec3{X: float64(i) * 0.1, Y: 1 - float64(i)*0.2},
		}
	}

	tr, err := Estimate(samples, 1.0)
	require.NoError(t, err)

	var pitch, roll float64
	for i, s := range samples {
		dt := imu.DeltaSeconds(samples, i)
		pitch += s.Gyro.Y * dt
		roll += s.Gyro.X * dt
		assert.InDelta(t, pitch, tr.At(i).Pitch, 1e-12, "pitch %d", i)
		assert.InDelta(t, roll, tr.At(i).Roll, 1e-12, "roll %d", i)
	}
}

func TestEstimateAlphaZeroIsAccelOnly(t *testing.T) {
	samples := samplesAt(5, 0.01, imu.Vec3{}, imu.Vec3{X: 3, Y: -2})
	for i := range samples {
		samples[i].Accel = imu.Vec3{X: 0.1 * float64(i), Y: -0.05 * float64(i), Z: 1}
	}

	tr, err := Estimate(samples, 0)
	require.NoError(t, err)
	for i, s := range samples {
		want := AccelTilt(s.Accel.X, s.Accel.Y, s.Accel.Z)
		assert.InDelta(t, want.Pitch, tr.At(i).Pitch, 1e-12)
		assert.InDelta(t, want.Roll, tr.At(i).Roll, 1e-12)
	}
}

func TestEstimateLevelBody(t *testing.T) {
	tr, err := Estimate(samplesAt(3, 0.01, level, imu.Vec3{}), DefaultAlpha)
	require.NoError(t, err)
	require.Equal(t, 3, tr.Len())
	for i := 0; i < tr.Len(); i++ {
		assert.InDelta(t, 0, tr.At(i).Pitch, 1e-12)
		assert.InDelta(t, 0, tr.At(i).Roll, 1e-12)
	}
	assert.InDelta(t, 0.02, tr.Elapsed(2), 1e-9)
}

func TestEstimateFirstSampleHasNoIntegration(t *testing.T) {
	tr, err := Estimate(samplesAt(1, 0, level, imu.Vec3{X: 1}), DefaultAlpha)
	require.NoError(t, err)
	require.Equal(t, 1, tr.Len())
	assert.InDelta(t, 0, tr.At(0).Pitch, 1e-12)
	assert.InDelta(t, 0, tr.At(0).Roll, 1e-12)
}

func TestEstimateNonFinitePropagates(t *testing.T) {
	samples := samplesAt(3, 0.01, level, imu.Vec3{})
	samples[1].Accel.X = math.NaN()

	tr, err := Estimate(samples, DefaultAlpha)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(tr.At(0).Roll))
	assert.True(t, math.IsNaN(tr.At(1).Roll))
	assert.True(t, math.IsNaN(tr.At(2).Roll), "state carries NaN forward")
}

func TestEstimateInvalidInput(t *testing.T) {
	t.Parallel()

	t.Run("alpha out of range", func(t *testing.T) {
		t.Parallel()
		for _, alpha := range []float64{-0.1, 1.01, math.NaN()} {
			tr, err := Estimate(samplesAt(3, 0.01, level, imu.Vec3{}), alpha)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Zero(t, tr.Len())
		}
	})

	t.Run("timestamps go backwards", func(t *testing.T) {
		t.Parallel()
		samples := samplesAt(4, 0.01, level, imu.Vec3{})
		samples[2].Time = samples[0].Time.Add(-time.Millisecond)
		tr, err := Estimate(samples, DefaultAlpha)
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Nil(t, tr.Poses)
	})

	t.Run("repeated timestamps are fine", func(t *testing.T) {
		t.Parallel()
		samples := samplesAt(3, 0, level, imu.Vec3{X: 5})
		tr, err := Estimate(samples, DefaultAlpha)
		require.NoError(t, err)
		assert.Equal(t, 3, tr.Len())
	})
}

func TestEstimateTracksMockMotion(t *testing.T) {
	samples, err := Collect(NewMockSource(250, 2500))
	require.NoError(t, err)
	require.Len(t, samples, 2500)

	tr, err := Estimate(samples, DefaultAlpha)
	require.NoError(t, err)

	for i := 1500; i < tr.Len(); i++ {
		want := MockPose(tr.Elapsed(i))
		assert.InDelta(t, want.Pitch, tr.At(i).Pitch, 0.01)
		assert.InDelta(t, want.Roll, tr.At(i).Roll, 0.01)
	}
}

func TestEstimatorIncremental(t *testing.T) {
	samples, err := Collect(NewMockSource(100, 50))
	require.NoError(t, err)

	batch, err := Estimate(samples, 0.9)
	require.NoError(t, err)

	est, err := NewEstimator(0.9)
	require.NoError(t, err)
	for i, s := range samples {
		got := est.Update(s.Accel, s.Gyro, imu.DeltaSeconds(samples, i))
		assert.Equal(t, batch.At(i), got)
		assert.Equal(t, got, est.Pose())
	}
}

func TestEstimateMany(t *testing.T) {
	a, err := Collect(NewMockSource(250, 300))
	require.NoError(t, err)
	b := samplesAt(10, 0.01, level, imu.Vec3{})

	traces, err := EstimateMany(context.Background(), [][]imu.Sample{a, b, nil}, DefaultAlpha)
	require.NoError(t, err)
	require.Len(t, traces, 3)

	single, err := Estimate(a, DefaultAlpha)
	require.NoError(t, err)
	assert.Equal(t, single.Poses, traces[0].Poses)
	assert.Equal(t, 10, traces[1].Len())
	assert.Zero(t, traces[2].Len())

	bad := samplesAt(3, 0.01, level, imu.Vec3{})
	bad[1].Time = bad[0].Time.Add(-time.Second)
	_, err = EstimateMany(context.Background(), [][]imu.Sample{a, bad}, DefaultAlpha)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPoseDegrees(t *testing.T) {
	p, r := Pose{Pitch: math.Pi / 2, Roll: -math.Pi}.Degrees()
	assert.InDelta(t, 90, p, 1e-12)
	assert.InDelta(t, -180, r, 1e-12)
}
