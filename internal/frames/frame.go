// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frames

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/post_flight/internal/geometry"
	"github.com/relabs-tech/post_flight/internal/orientation"
)

// Frame is one rendered step of the replay: the model posed at a single
// trace entry.
type Frame struct {
	Seq      int              // position in the frame sequence
	Index    int              // trace entry
	Elapsed  float64          // seconds since the first sample
	Pose     orientation.Pose // filter output at Index
	Rotation *mat.Dense       // Ry(roll) · Rx(pitch)
	Vertices *mat.Dense       // model vertices after rotation, one per row
}

// Finite reports whether the frame geometry can be drawn.
func (f Frame) Finite() bool {
	return geometry.Finite(f.Rotation)
}

// BuildFrame poses the model for trace entry idx.
func BuildFrame(tr orientation.Trace, model geometry.Model, seq, idx int) Frame {
	p := tr.At(idx)
	r := geometry.Rotation(p)
	return Frame{
		Seq:      seq,
		Index:    idx,
		Elapsed:  tr.Elapsed(idx),
		Pose:     p,
		Rotation: r,
		Vertices: geometry.Transform(r, model.Vertices),
	}
}

// Build precomputes every frame ahead of playback. Frames share no mutable
// state, so they are computed on up to workers goroutines; the result is in
// indices order. workers <= 0 uses GOMAXPROCS.
func Build(ctx context.Context, tr orientation.Trace, model geometry.Model, indices []int, workers int) ([]Frame, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= tr.Len() {
			return nil, fmt.Errorf("frame index %d outside trace of %d entries", idx, tr.Len())
		}
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]Frame, len(indices))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for seq, idx := range indices {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[seq] = BuildFrame(tr, model, seq, idx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
