package render

import (
	"context"
	"image"
	"image/png"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/post_flight/internal/geometry"
)

func pngOptions() PNGOptions {
	return PNGOptions{
		Width:  200,
		Height: 200,
		Limit:  2,
		View:   geometry.DefaultView,
		Edges:  geometry.Cube().Edges,
	}
}

// inkInside counts non-background pixels strictly inside r.
func inkInside(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) != background {
				n++
			}
		}
	}
	return n
}

func TestDrawWireframe(t *testing.T) {
	fs := testFrames(t, 2)
	img := Draw(fs[0], pngOptions())
	require.Equal(t, image.Rect(0, 0, 200, 200), img.Bounds())

	// The identity cube spans at most sqrt(3) of the 2-unit half extent, so
	// the outer margin stays empty while the body has edges.
	body := image.Rect(20, 20, 180, 180)
	assert.Greater(t, inkInside(img, body), 200)
	assert.Zero(t, inkInside(img, image.Rect(0, 185, 200, 200)))

	// The projected center of the cube is inside a face, not on an edge.
	assert.Equal(t, background, img.RGBAAt(100, 100))

	label := image.Rect(0, 0, 120, 20)
	assert.Greater(t, inkInside(img, label), 0)
}

func TestDrawNonFinite(t *testing.T) {
	fs := testFrames(t, 1)
	f := fs[0]
	f.Pose.Pitch = math.NaN()
	f.Rotation = geometry.Rotation(f.Pose)
	f.Vertices = geometry.Transform(f.Rotation, geometry.Cube().Vertices)

	img := Draw(f, pngOptions())
	assert.Zero(t, inkInside(img, image.Rect(20, 60, 200, 200)))
}

func TestPNGRenderer(t *testing.T) {
	dir := t.TempDir()
	r, err := NewPNGRenderer(dir, pngOptions())
	require.NoError(t, err)

	fs := testFrames(t, 3)
	for _, f := range fs {
		require.NoError(t, r.Render(context.Background(), f))
	}
	require.NoError(t, r.Close())

	for _, f := range fs {
		file, err := os.Open(r.Path(f.Seq))
		require.NoError(t, err)
		img, err := png.Decode(file)
		file.Close()
		require.NoError(t, err)
		assert.Equal(t, 200, img.Bounds().Dx())
	}
}

func TestNewPNGRendererValidates(t *testing.T) {
	opts := pngOptions()
	opts.Width = 0
	_, err := NewPNGRenderer(t.TempDir(), opts)
	assert.Error(t, err)

	opts = pngOptions()
	opts.Limit = 0
	_, err = NewPNGRenderer(t.TempDir(), opts)
	assert.Error(t, err)
}
