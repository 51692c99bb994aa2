// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPath is where the commands look for configuration when -config is
// not given.
const DefaultPath = "post_flight.cfg"

// Config holds all application configuration values.
type Config struct {
	// Estimator
	Alpha float64

	// Playback
	SourceRate float64 // Hz
	TargetFPS  float64 // <= 0 plays every sample
	AxisLimit  float64 // plot box is [-AxisLimit, AxisLimit] on every axis

	// Data
	DataFile        string
	DataDir         string
	SplitChunkBytes int64

	// Frames
	FrameOutputDir string
	FrameWidth     int
	FrameHeight    int
	ViewElevation  float64 // degrees
	ViewAzimuth    float64 // degrees
	RenderWorkers  int

	// MQTT
	MQTTBroker         string
	MQTTClientIDReplay string

	// Topics
	TopicPose  string
	TopicFrame string

	// Web Server
	WebServerPort int

	// Capture
	CaptureSerialPort string
	CaptureBaudRate   int

	// Reports
	TracePlotFile  string
	TraceChartFile string
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Alpha:              0.98,
		SourceRate:         250,
		TargetFPS:          30,
		AxisLimit:          2,
		DataFile:           "data/flight.csv",
		DataDir:            "data",
		SplitChunkBytes:    99 * 1024 * 1024,
		FrameOutputDir:     "frames",
		FrameWidth:         640,
		FrameHeight:        640,
		ViewElevation:      30,
		ViewAzimuth:        -60,
		RenderWorkers:      4,
		MQTTBroker:         "tcp://localhost:1883",
		MQTTClientIDReplay: "post-flight-replay",
		TopicPose:          "post_flight/pose",
		TopicFrame:         "post_flight/frame",
		WebServerPort:      8080,
		CaptureSerialPort:  "/dev/ttyUSB0",
		CaptureBaudRate:    115200,
		TracePlotFile:      "reports/attitude.png",
		TraceChartFile:     "reports/attitude.html",
	}
}

// Package-level unexported variables for the singleton:
//   - globalConfig is only set by InitGlobal and only read through Get.
//   - configOnce makes InitGlobal idempotent.
//   - configMu lets many goroutines call Get concurrently.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file over Default. A missing file is not an
// error: the defaults are returned and a line is logged.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: %s not found, using defaults", configPath)
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines over Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be finite, got %q", key, value)
	}
	return v, nil
}

func parseInt(key, value string, min int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min {
		return 0, fmt.Errorf("%s must be >= %d, got %d", key, min, v)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// Estimator
	case "ALPHA":
		c.Alpha, err = parseFloat(key, value)
		if err == nil && (c.Alpha < 0 || c.Alpha > 1) {
			return fmt.Errorf("ALPHA must be within [0,1], got %v", c.Alpha)
		}

	// Playback
	case "SOURCE_RATE":
		c.SourceRate, err = parseFloat(key, value)
	case "TARGET_FPS":
		c.TargetFPS, err = parseFloat(key, value)
	case "AXIS_LIMIT":
		c.AxisLimit, err = parseFloat(key, value)

	// Data
	case "DATA_FILE":
		c.DataFile = value
	case "DATA_DIR":
		c.DataDir = value
	case "SPLIT_CHUNK_BYTES":
		n, perr := strconv.ParseInt(value, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid SPLIT_CHUNK_BYTES %q: %w", value, perr)
		}
		c.SplitChunkBytes = n

	// Frames
	case "FRAME_OUTPUT_DIR":
		c.FrameOutputDir = value
	case "FRAME_WIDTH":
		c.FrameWidth, err = parseInt(key, value, 16)
	case "FRAME_HEIGHT":
		c.FrameHeight, err = parseInt(key, value, 16)
	case "VIEW_ELEVATION":
		c.ViewElevation, err = parseFloat(key, value)
	case "VIEW_AZIMUTH":
		c.ViewAzimuth, err = parseFloat(key, value)
	case "RENDER_WORKERS":
		c.RenderWorkers, err = parseInt(key, value, 1)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_REPLAY":
		c.MQTTClientIDReplay = value

	// Topics
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_FRAME":
		c.TopicFrame = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1)

	// Capture
	case "CAPTURE_SERIAL_PORT":
		c.CaptureSerialPort = value
	case "CAPTURE_BAUD_RATE":
		c.CaptureBaudRate, err = parseInt(key, value, 1)

	// Reports
	case "TRACE_PLOT_FILE":
		c.TracePlotFile = value
	case "TRACE_CHART_FILE":
		c.TraceChartFile = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks cross-field constraints once all keys are read.
func (c *Config) validate() error {
	if c.SourceRate <= 0 {
		return fmt.Errorf("SOURCE_RATE must be positive, got %v", c.SourceRate)
	}
	if c.AxisLimit <= 0 {
		return fmt.Errorf("AXIS_LIMIT must be positive, got %v", c.AxisLimit)
	}
	if c.SplitChunkBytes <= 0 {
		return fmt.Errorf("SPLIT_CHUNK_BYTES must be positive, got %d", c.SplitChunkBytes)
	}
	if c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT out of range: %d", c.WebServerPort)
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicPose == "" || c.TopicFrame == "" {
		return fmt.Errorf("TOPIC_POSE and TOPIC_FRAME are required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
