package frames

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/post_flight/internal/geometry"
	"github.com/relabs-tech/post_flight/internal/orientation"
)

func TestStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rate, fps float64
		want      int
	}{
		{"default rates", 250, 30, 8},
		{"source slower than display", 10, 30, 1},
		{"exact multiple", 120, 30, 4},
		{"zero fps", 250, 0, 1},
		{"negative fps", 250, -5, 1},
		{"zero rate", 0, 30, 1},
		{"nan fps", 250, math.NaN(), 1},
		{"inf rate", math.Inf(1), 30, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Step(tt.rate, tt.fps))
		})
	}
}

func TestIndices(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{0, 8, 16, 24}, Indices(250, 30, 25))
	assert.Equal(t, []int{0, 8, 16}, Indices(250, 30, 24))
	assert.Equal(t, []int{0}, Indices(250, 30, 1))
	assert.Equal(t, []int{0, 1, 2}, Indices(10, 30, 3))
	assert.Equal(t, []int{0, 1, 2}, Indices(250, 0, 3))
	assert.Empty(t, Indices(250, 30, 0))
	assert.Empty(t, Indices(250, 30, -4))

	for n := 1; n < 200; n += 7 {
		idx := Indices(250, 30, n)
		require.NotEmpty(t, idx)
		assert.Equal(t, 0, idx[0])
		assert.LessOrEqual(t, idx[len(idx)-1], n-1)
		for i := 1; i < len(idx); i++ {
			assert.Greater(t, idx[i], idx[i-1])
		}
	}
}

func TestInterval(t *testing.T) {
	assert.Equal(t, time.Second/30, Interval(250, 30))
	assert.Equal(t, 4*time.Millisecond, Interval(250, 0))
	assert.Equal(t, time.Second, Interval(0, 0))
	assert.Equal(t, time.Second, Interval(0, -1))
}

func trace(n int, dt time.Duration) orientation.Trace {
	t0 := time.Date(2025, time.July, 5, 14, 3, 21, 0, time.UTC)
	tr := orientation.Trace{}
	for i := 0; i < n; i++ {
		tr.Poses = append(tr.Poses, orientation.Pose{Pitch: 0.01 * float64(i), Roll: -0.02 * float64(i)})
		tr.Times = append(tr.Times, t0.Add(time.Duration(i)*dt))
	}
	return tr
}

func TestBuild(t *testing.T) {
	tr := trace(100, 4*time.Millisecond)
	model := geometry.Cube()
	idx := Indices(250, 30, tr.Len())

	got, err := Build(context.Background(), tr, model, idx, 3)
	require.NoError(t, err)
	require.Len(t, got, len(idx))

	for seq, f := range got {
		assert.Equal(t, seq, f.Seq)
		assert.Equal(t, idx[seq], f.Index)
		assert.Equal(t, tr.At(f.Index), f.Pose)
		assert.InDelta(t, float64(f.Index)*0.004, f.Elapsed, 1e-9)
		assert.True(t, mat.Equal(geometry.Rotation(f.Pose), f.Rotation))
		assert.True(t, mat.Equal(geometry.Transform(f.Rotation, model.Vertices), f.Vertices))
		assert.True(t, f.Finite())
	}

	// Same result regardless of parallelism.
	serial, err := Build(context.Background(), tr, model, idx, 1)
	require.NoError(t, err)
	for i := range serial {
		assert.True(t, mat.Equal(serial[i].Vertices, got[i].Vertices))
	}
}

func TestBuildEmpty(t *testing.T) {
	got, err := Build(context.Background(), orientation.Trace{}, geometry.Cube(), Indices(250, 30, 0), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuildRejectsOutOfRange(t *testing.T) {
	_, err := Build(context.Background(), trace(5, time.Millisecond), geometry.Cube(), []int{0, 5}, 0)
	assert.Error(t, err)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := trace(50, time.Millisecond)
	_, err := Build(ctx, tr, geometry.Cube(), Indices(1, 1, tr.Len()), 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildNonFinite(t *testing.T) {
	tr := trace(3, time.Millisecond)
	tr.Poses[1].Roll = math.NaN()
	got, err := Build(context.Background(), tr, geometry.Cube(), []int{0, 1, 2}, 0)
	require.NoError(t, err)
	assert.True(t, got[0].Finite())
	assert.False(t, got[1].Finite())
}
