// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/relabs-tech/post_flight/internal/frames"
	"github.com/relabs-tech/post_flight/internal/geometry"
	"github.com/relabs-tech/post_flight/internal/orientation"
)

// Renderer draws one frame at a time. Each Render fully replaces what the
// previous call drew.
type Renderer interface {
	Render(ctx context.Context, f frames.Frame) error
	Close() error
}

// FramePayload is the JSON shape of a frame for remote viewers.
type FramePayload struct {
	Run      string           `json:"run,omitempty"`
	Seq      int              `json:"seq"`
	Index    int              `json:"index"`
	Elapsed  float64          `json:"elapsed_s"`
	Pose     orientation.Pose `json:"pose"`
	Finite   bool             `json:"finite"`
	Vertices [][3]float64     `json:"vertices,omitempty"`
	Edges    []geometry.Edge  `json:"edges,omitempty"`
}

// NewPayload flattens a frame. Non-finite geometry is left out so JSON
// encoding cannot fail on NaN.
func NewPayload(run string, f frames.Frame, edges []geometry.Edge) FramePayload {
	p := FramePayload{
		Run:     run,
		Seq:     f.Seq,
		Index:   f.Index,
		Elapsed: f.Elapsed,
		Finite:  f.Finite(),
	}
	if p.Finite {
		p.Pose = f.Pose
		p.Vertices = geometry.Rows(f.Vertices)
		p.Edges = edges
	}
	return p
}

// Player drives a renderer at a fixed cadence. A frame that takes longer
// than Interval delays the following ones; none are skipped.
type Player struct {
	Interval time.Duration
}

// Play renders frames in order, one per tick, until done or ctx is
// cancelled. The first frame is drawn immediately.
func (p Player) Play(ctx context.Context, fs []frames.Frame, r Renderer) error {
	if len(fs) == 0 {
		return nil
	}
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second / 30
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i, f := range fs {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		if err := r.Render(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// Multi fans every frame out to several renderers.
type Multi []Renderer

func (m Multi) Render(ctx context.Context, f frames.Frame) error {
	for _, r := range m {
		if err := r.Render(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}

// Recorder is the headless renderer: it keeps every frame it is given so
// the trace and the per-frame rotations can be inspected programmatically.
type Recorder struct {
	mu     sync.Mutex
	frames []frames.Frame
	logged bool
}

func (r *Recorder) Render(_ context.Context, f frames.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !f.Finite() && !r.logged {
		log.Printf("render: frame %d (sample %d) has a non-finite rotation", f.Seq, f.Index)
		r.logged = true
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Frames returns a copy of the recorded frames.
func (r *Recorder) Frames() []frames.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]frames.Frame(nil), r.frames...)
}

// Rotations returns the rotation matrix of every recorded frame.
func (r *Recorder) Rotations() []*mat.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*mat.Dense, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.Rotation
	}
	return out
}
