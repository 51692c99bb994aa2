// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package report turns an orientation trace into static charts for
// post-flight review.
package report

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/relabs-tech/post_flight/internal/orientation"
)

var (
	pitchColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	rollColor  = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

// Series holds pitch and roll in degrees against elapsed seconds, with
// non-finite entries removed.
type Series struct {
	Elapsed []float64
	Pitch   []float64
	Roll    []float64
}

// NewSeries samples every stride-th trace entry (stride < 1 means all).
func NewSeries(tr orientation.Trace, stride int) Series {
	if stride < 1 {
		stride = 1
	}
	var s Series
	for i := 0; i < tr.Len(); i += stride {
		p, r := tr.At(i).Degrees()
		if !finite(p) || !finite(r) {
			continue
		}
		s.Elapsed = append(s.Elapsed, tr.Elapsed(i))
		s.Pitch = append(s.Pitch, p)
		s.Roll = append(s.Roll, r)
	}
	return s
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// WritePlot saves a PNG of pitch and roll over the flight.
func WritePlot(tr orientation.Trace, path string) error {
	s := NewSeries(tr, 1)
	if len(s.Elapsed) == 0 {
		return fmt.Errorf("no finite orientation to plot")
	}

	p := plot.New()
	p.Title.Text = "Estimated attitude"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Angle (deg)"
	p.Add(plotter.NewGrid())

	pitchPts := make(plotter.XYs, len(s.Elapsed))
	rollPts := make(plotter.XYs, len(s.Elapsed))
	for i := range s.Elapsed {
		pitchPts[i] = plotter.XY{X: s.Elapsed[i], Y: s.Pitch[i]}
		rollPts[i] = plotter.XY{X: s.Elapsed[i], Y: s.Roll[i]}
	}

	pitchLine, err := plotter.NewLine(pitchPts)
	if err != nil {
		return fmt.Errorf("pitch line: %w", err)
	}
	pitchLine.Color = pitchColor
	pitchLine.Width = vg.Points(1)

	rollLine, err := plotter.NewLine(rollPts)
	if err != nil {
		return fmt.Errorf("roll line: %w", err)
	}
	rollLine.Color = rollColor
	rollLine.Width = vg.Points(1)

	p.Add(pitchLine, rollLine)
	p.Legend.Add("pitch", pitchLine)
	p.Legend.Add("roll", rollLine)
	p.Legend.Top = true

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create plot dir: %w", err)
	}
	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// WriteChart renders an interactive HTML line chart of the trace. stride
// thins long flights so the page stays responsive.
func WriteChart(tr orientation.Trace, w io.Writer, stride int) error {
	s := NewSeries(tr, stride)

	xs := make([]string, len(s.Elapsed))
	pitch := make([]opts.LineData, len(s.Elapsed))
	roll := make([]opts.LineData, len(s.Elapsed))
	for i := range s.Elapsed {
		xs[i] = fmt.Sprintf("%.3f", s.Elapsed[i])
		pitch[i] = opts.LineData{Value: s.Pitch[i]}
		roll[i] = opts.LineData{Value: s.Roll[i]}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Post-flight attitude", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Estimated attitude", Subtitle: fmt.Sprintf("samples=%d stride=%d", tr.Len(), max(stride, 1))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Angle (deg)"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(xs).
		AddSeries("pitch", pitch).
		AddSeries("roll", roll)

	return line.Render(w)
}
