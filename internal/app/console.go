// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/post_flight/internal/config"
	"github.com/relabs-tech/post_flight/internal/imu"
	"github.com/relabs-tech/post_flight/internal/orientation"
	"github.com/relabs-tech/post_flight/internal/render"
)

func formatPose(tag string, p orientation.Pose) string {
	pitch, roll := p.Degrees()
	return fmt.Sprintf("[%-5s] PITCH=%7.2f  ROLL=%7.2f", tag, pitch, roll)
}

// RunConsole prints every pose and frame a replay publishes over MQTT until
// ctx is cancelled.
func RunConsole(ctx context.Context, cfg *config.Config, out io.Writer) error {
	clientID := fmt.Sprintf("%s-console-%s", cfg.MQTTClientIDReplay, uuid.NewString()[:8])
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	if err := subscribeConsole(client, cfg, out); err != nil {
		return err
	}

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}

func subscribeConsole(client mqtt.Client, cfg *config.Config, out io.Writer) error {
	poseToken := client.Subscribe(cfg.TopicPose, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p orientation.Pose
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: pose unmarshal error: %v", err)
			return
		}
		fmt.Fprintln(out, formatPose("POSE", p))
	})
	poseToken.Wait()
	if poseToken.Error() != nil {
		return poseToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicPose)

	frameToken := client.Subscribe(cfg.TopicFrame, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var f render.FramePayload
		if err := json.Unmarshal(msg.Payload(), &f); err != nil {
			log.Printf("console: frame unmarshal error: %v", err)
			return
		}
		fmt.Fprintf(out, "%s  t=%8.3fs  seq=%d sample=%d\n", formatPose("FRAME", f.Pose), f.Elapsed, f.Seq, f.Index)
	})
	frameToken.Wait()
	if frameToken.Error() != nil {
		return frameToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicFrame)
	return nil
}

// RunMockConsole streams the mock source through the estimator one sample
// at a time and prints the estimate every interval, until the source ends
// or ctx is cancelled.
func RunMockConsole(ctx context.Context, cfg *config.Config, out io.Writer, interval time.Duration) error {
	est, err := orientation.NewEstimator(cfg.Alpha)
	if err != nil {
		return err
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	src := orientation.NewMockSource(cfg.SourceRate, int(cfg.SourceRate*mockSeconds))
	perTick := max(1, int(cfg.SourceRate*interval.Seconds()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var first, prev imu.Sample
	for n := 0; ; {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		var pose orientation.Pose
		for i := 0; i < perTick; i++ {
			s, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			dt := 0.0
			if n > 0 {
				dt = s.Time.Sub(prev.Time).Seconds()
			} else {
				first = s
			}
			pose = est.Update(s.Accel, s.Gyro, dt)
			prev = s
			n++
		}
		truth := orientation.MockPose(prev.Time.Sub(first.Time).Seconds())
		fmt.Fprintf(out, "%s   %s\n", formatPose("EST", pose), formatPose("TRUE", truth))
	}
}
