// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/post_flight/internal/config"
	"github.com/relabs-tech/post_flight/internal/frames"
	"github.com/relabs-tech/post_flight/internal/geometry"
	"github.com/relabs-tech/post_flight/internal/imu"
	"github.com/relabs-tech/post_flight/internal/orientation"
	"github.com/relabs-tech/post_flight/internal/render"
	"github.com/relabs-tech/post_flight/internal/report"
)

// Render modes accepted by RunReplay.
const (
	ModePNG      = "png"
	ModeMQTT     = "mqtt"
	ModeWeb      = "web"
	ModeHeadless = "headless"
)

// mockSeconds is the length of the synthetic flight used with -mock.
const mockSeconds = 20

// ReplayOptions selects what a replay run reads and where it draws.
type ReplayOptions struct {
	Mode    string
	Data    string // overrides DATA_FILE
	Mock    bool   // synthesise a flight instead of reading Data
	Reports bool
}

// Replay is an estimated flight ready for playback.
type Replay struct {
	Run      string
	Trace    orientation.Trace
	Frames   []frames.Frame
	Model    geometry.Model
	Interval time.Duration
}

// LoadFlight reads the samples of one flight, either from path or from the
// mock source.
func LoadFlight(cfg *config.Config, path string, mock bool) ([]imu.Sample, error) {
	if mock {
		return orientation.Collect(orientation.NewMockSource(cfg.SourceRate, int(cfg.SourceRate*mockSeconds)))
	}
	samples, err := imu.LoadCSV(path)
	if err != nil {
		return nil, err
	}
	log.Printf("replay: loaded %d samples from %s", len(samples), path)
	return samples, nil
}

// Prepare runs the estimator over samples and precomputes the frames shown
// at TARGET_FPS.
func Prepare(ctx context.Context, cfg *config.Config, samples []imu.Sample) (*Replay, error) {
	tr, err := orientation.Estimate(samples, cfg.Alpha)
	if err != nil {
		return nil, fmt.Errorf("estimate: %w", err)
	}

	model := geometry.Cube()
	indices := frames.Indices(cfg.SourceRate, cfg.TargetFPS, tr.Len())
	fs, err := frames.Build(ctx, tr, model, indices, cfg.RenderWorkers)
	if err != nil {
		return nil, fmt.Errorf("build frames: %w", err)
	}

	r := &Replay{
		Run:      uuid.NewString(),
		Trace:    tr,
		Frames:   fs,
		Model:    model,
		Interval: frames.Interval(cfg.SourceRate, cfg.TargetFPS),
	}
	log.Printf("replay: run %s, %d poses, %d frames every %v (step %d)",
		r.Run, tr.Len(), len(fs), r.Interval, frames.Step(cfg.SourceRate, cfg.TargetFPS))
	return r, nil
}

// NewRenderer builds the renderer for the png, mqtt and headless modes. The
// web mode needs a server around its hub and goes through serveReplay.
func NewRenderer(cfg *config.Config, mode, run string, model geometry.Model) (render.Renderer, error) {
	switch mode {
	case ModeHeadless:
		return &render.Recorder{}, nil
	case ModePNG:
		return render.NewPNGRenderer(cfg.FrameOutputDir, render.PNGOptions{
			Width:  cfg.FrameWidth,
			Height: cfg.FrameHeight,
			Limit:  cfg.AxisLimit,
			View:   geometry.View{Elevation: cfg.ViewElevation, Azimuth: cfg.ViewAzimuth},
			Edges:  model.Edges,
		})
	case ModeMQTT:
		clientID := fmt.Sprintf("%s-%s", cfg.MQTTClientIDReplay, run[:8])
		return render.ConnectMQTT(cfg.MQTTBroker, clientID, run, cfg.TopicFrame, cfg.TopicPose, model.Edges)
	default:
		return nil, fmt.Errorf("unknown render mode %q", mode)
	}
}

func newHub(cfg *config.Config, run string, model geometry.Model, interval time.Duration) *render.Hub {
	return render.NewHub(run, model.Edges, render.ViewerConfig{
		Limit:     cfg.AxisLimit,
		Elevation: cfg.ViewElevation,
		Azimuth:   cfg.ViewAzimuth,
		Interval:  float64(interval) / float64(time.Millisecond),
	})
}

// WriteReports saves the attitude plot and chart configured in cfg.
func WriteReports(cfg *config.Config, tr orientation.Trace) error {
	if len(report.NewSeries(tr, 1).Elapsed) == 0 {
		log.Printf("replay: no finite orientation in %d poses, skipping reports", tr.Len())
		return nil
	}
	if cfg.TracePlotFile != "" {
		if err := report.WritePlot(tr, cfg.TracePlotFile); err != nil {
			return err
		}
		log.Printf("replay: wrote %s", cfg.TracePlotFile)
	}
	if cfg.TraceChartFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.TraceChartFile), 0755); err != nil {
		return fmt.Errorf("failed to create report dir: %w", err)
	}
	f, err := os.Create(cfg.TraceChartFile)
	if err != nil {
		return err
	}
	stride := max(1, tr.Len()/5000)
	if err := report.WriteChart(tr, f, stride); err != nil {
		f.Close()
		return err
	}
	log.Printf("replay: wrote %s", cfg.TraceChartFile)
	return f.Close()
}

// RunReplay estimates a recorded flight and plays it through the renderers
// named in opts.Mode, a comma-separated list such as "png,mqtt".
func RunReplay(ctx context.Context, cfg *config.Config, opts ReplayOptions) (*Replay, error) {
	path := opts.Data
	if path == "" {
		path = cfg.DataFile
	}
	samples, err := LoadFlight(cfg, path, opts.Mock)
	if err != nil {
		return nil, err
	}
	rp, err := Prepare(ctx, cfg, samples)
	if err != nil {
		return nil, err
	}

	if opts.Reports {
		if err := WriteReports(cfg, rp.Trace); err != nil {
			return rp, fmt.Errorf("reports: %w", err)
		}
	}

	modes := strings.Split(opts.Mode, ",")
	for i := range modes {
		modes[i] = strings.TrimSpace(modes[i])
	}
	if slices.Contains(modes, ModeWeb) {
		if len(modes) > 1 {
			return rp, fmt.Errorf("mode %q: web cannot be combined with other renderers", opts.Mode)
		}
		return rp, serveReplay(ctx, cfg, rp, false)
	}

	var multi render.Multi
	for _, mode := range modes {
		r, err := NewRenderer(cfg, mode, rp.Run, rp.Model)
		if err != nil {
			multi.Close()
			return rp, err
		}
		multi = append(multi, r)
	}
	var r render.Renderer = multi
	if len(multi) == 1 {
		r = multi[0]
	}

	player := render.Player{Interval: rp.Interval}
	if !slices.Contains(modes, ModeMQTT) {
		// nobody watches png or headless output in real time
		player.Interval = time.Nanosecond
	}

	start := time.Now()
	playErr := player.Play(ctx, rp.Frames, r)
	closeErr := r.Close()
	if playErr != nil {
		return rp, playErr
	}
	log.Printf("replay: %d frames rendered (%s) in %v", len(rp.Frames), opts.Mode, time.Since(start).Round(time.Millisecond))
	return rp, closeErr
}
