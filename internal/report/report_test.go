package report

import (
	"bytes"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/post_flight/internal/orientation"
)

func testTrace(n int) orientation.Trace {
	t0 := time.Date(2025, time.July, 5, 14, 3, 21, 0, time.UTC)
	var tr orientation.Trace
	for i := 0; i < n; i++ {
		tr.Poses = append(tr.Poses, orientation.MockPose(float64(i)*0.004))
		tr.Times = append(tr.Times, t0.Add(time.Duration(i)*4*time.Millisecond))
	}
	return tr
}

func TestNewSeries(t *testing.T) {
	tr := testTrace(10)
	tr.Poses[3].Pitch = math.NaN()

	s := NewSeries(tr, 1)
	assert.Len(t, s.Elapsed, 9)
	assert.Len(t, s.Pitch, 9)
	assert.Len(t, s.Roll, 9)
	assert.InDelta(t, 0.016, s.Elapsed[3], 1e-9, "entry 3 was skipped")

	p, r := tr.At(4).Degrees()
	assert.Equal(t, p, s.Pitch[3])
	assert.Equal(t, r, s.Roll[3])

	thin := NewSeries(testTrace(10), 4)
	assert.Equal(t, []float64{0, 0.016, 0.032}, roundAll(thin.Elapsed))
	assert.Len(t, NewSeries(testTrace(3), 0).Elapsed, 3)
}

func roundAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Round(x*1e6) / 1e6
	}
	return out
}

func TestWritePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "trace.png")
	require.NoError(t, WritePlot(testTrace(500), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())
}

func TestWritePlotEmpty(t *testing.T) {
	err := WritePlot(orientation.Trace{}, filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteChart(testTrace(100), &buf, 10))

	html := buf.String()
	assert.Contains(t, html, "Estimated attitude")
	assert.Contains(t, html, "pitch")
	assert.Contains(t, html, "roll")
	assert.Contains(t, html, "Post-flight attitude")
}
