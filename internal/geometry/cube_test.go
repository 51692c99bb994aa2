package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/post_flight/internal/orientation"
)

func TestCubeModel(t *testing.T) {
	cube := Cube()
	rows, cols := cube.Vertices.Dims()
	require.Equal(t, 8, rows)
	require.Equal(t, 3, cols)
	require.Len(t, cube.Edges, 12)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			assert.Equal(t, 1.0, math.Abs(cube.Vertices.At(i, j)))
		}
	}
	for _, e := range cube.Edges {
		assert.InDelta(t, 2, edgeLength(cube.Vertices, e), eps, "edge %v", e)
	}

	// Copies are independent.
	cube.Vertices.Set(0, 0, 9)
	cube.Edges[0] = Edge{7, 7}
	fresh := Cube()
	assert.Equal(t, 1.0, fresh.Vertices.At(0, 0))
	assert.Equal(t, Edge{0, 1}, fresh.Edges[0])
}

func TestTransform(t *testing.T) {
	cube := Cube()
	p := orientation.Pose{Pitch: 0.4, Roll: -1.2}
	r := Rotation(p)
	out := Transform(r, cube.Vertices)

	rows, _ := out.Dims()
	require.Equal(t, 8, rows)
	for i := 0; i < rows; i++ {
		var v mat.VecDense
		v.MulVec(r, cube.Vertices.RowView(i))
		assert.True(t, floats.EqualApprox(v.RawVector().Data, out.RawRowView(i), eps), "vertex %d", i)
	}
	for _, e := range cube.Edges {
		assert.InDelta(t, 2, edgeLength(out, e), 1e-9, "rigid edge %v", e)
	}

	identity := Transform(Rotation(orientation.Pose{}), cube.Vertices)
	assert.True(t, mat.EqualApprox(identity, cube.Vertices, eps))
}

func TestRows(t *testing.T) {
	got := Rows(Cube().Vertices)
	require.Len(t, got, 8)
	assert.Equal(t, [3]float64{1, 1, 1}, got[0])
	assert.Equal(t, [3]float64{-1, -1, 1}, got[7])
}

func TestViewProject(t *testing.T) {
	v := DefaultView
	el := v.Elevation * math.Pi / 180
	az := v.Azimuth * math.Pi / 180

	points := mat.NewDense(3, 3, []float64{
		0, 0, 1,
		math.Cos(el) * math.Cos(az), math.Cos(el) * math.Sin(az), math.Sin(el),
		-math.Sin(az), math.Cos(az), 0,
	})
	got := v.Project(points)

	assert.InDelta(t, 0, got.At(0, 0), eps)
	assert.InDelta(t, math.Cos(el), got.At(0, 1), eps)
	// The camera axis collapses to the screen origin.
	assert.InDelta(t, 0, got.At(1, 0), eps)
	assert.InDelta(t, 0, got.At(1, 1), eps)
	assert.InDelta(t, 1, got.At(2, 0), eps)
	assert.InDelta(t, 0, got.At(2, 1), eps)
}

func edgeLength(m *mat.Dense, e Edge) float64 {
	return floats.Distance(m.RawRowView(e[0]), m.RawRowView(e[1]), 2)
}
