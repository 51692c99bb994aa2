// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/relabs-tech/post_flight/internal/frames"
	"github.com/relabs-tech/post_flight/internal/geometry"
)

// PNGOptions configures the raster renderer.
type PNGOptions struct {
	Width, Height int
	// Limit is the half-extent of the displayed axes: [-Limit, Limit].
	Limit float64
	View  geometry.View
	Edges []geometry.Edge
}

// PNGRenderer writes one PNG per frame into a directory.
type PNGRenderer struct {
	dir  string
	opts PNGOptions
}

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	edgeColor  = color.RGBA{0x10, 0x10, 0x10, 0xff}
	labelColor = color.RGBA{0x20, 0x20, 0x60, 0xff}
)

// NewPNGRenderer prepares dir for frame output.
func NewPNGRenderer(dir string, opts PNGOptions) (*PNGRenderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", opts.Width, opts.Height)
	}
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("axis limit must be positive, got %v", opts.Limit)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frame dir: %w", err)
	}
	return &PNGRenderer{dir: dir, opts: opts}, nil
}

// Path returns the file a frame is written to.
func (r *PNGRenderer) Path(seq int) string {
	return filepath.Join(r.dir, fmt.Sprintf("frame_%05d.png", seq))
}

func (r *PNGRenderer) Render(ctx context.Context, f frames.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img := Draw(f, r.opts)

	out, err := os.Create(r.Path(f.Seq))
	if err != nil {
		return fmt.Errorf("create frame %d: %w", f.Seq, err)
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encode frame %d: %w", f.Seq, err)
	}
	return out.Close()
}

func (r *PNGRenderer) Close() error { return nil }

// Draw rasterises a frame: the projected wireframe scaled to the axis
// limits, and the elapsed time in the top-left corner.
func Draw(f frames.Frame, opts PNGOptions) *image.RGBA {
	w, h := opts.Width, opts.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	if f.Finite() {
		pts := opts.View.Project(f.Vertices)
		scale := float64(min(w, h)) / (2 * opts.Limit)
		toPixel := func(i int) (float32, float32) {
			x := float64(w)/2 + pts.At(i, 0)*scale
			y := float64(h)/2 - pts.At(i, 1)*scale
			return float32(x), float32(y)
		}

		lineWidth := math.Max(1, float64(min(w, h))/200)
		rast := vector.NewRasterizer(w, h)
		src := &image.Uniform{edgeColor}
		for _, e := range opts.Edges {
			x0, y0 := toPixel(e[0])
			x1, y1 := toPixel(e[1])
			// One path per edge: overlapping quads with opposite winding
			// would cancel at shared corners.
			rast.Reset(w, h)
			strokeSegment(rast, x0, y0, x1, y1, float32(lineWidth))
			rast.Draw(img, img.Bounds(), src, image.Point{})
		}
	} else {
		log.Printf("render: frame %d (sample %d) skipped, non-finite rotation", f.Seq, f.Index)
		drawLabel(img, 8, 34, "non-finite pose")
	}

	drawLabel(img, 8, 16, fmt.Sprintf("Time: %.2f s", f.Elapsed))
	return img
}

// strokeSegment adds a filled quad of the given width along a segment.
func strokeSegment(r *vector.Rasterizer, x0, y0, x1, y1, width float32) {
	dx, dy := x1-x0, y1-y0
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length == 0 {
		dx, dy, length = 1, 0, 1
	}
	nx, ny := -dy/length*width/2, dx/length*width/2

	r.MoveTo(x0+nx, y0+ny)
	r.LineTo(x1+nx, y1+ny)
	r.LineTo(x1-nx, y1-ny)
	r.LineTo(x0-nx, y0-ny)
	r.ClosePath()
}

func drawLabel(img draw.Image, x, y int, text string) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{labelColor},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}
