// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/post_flight/internal/frames"
	"github.com/relabs-tech/post_flight/internal/geometry"
)

// MQTTRenderer publishes every frame to FrameTopic and the latest pose,
// retained, to PoseTopic.
type MQTTRenderer struct {
	client     mqtt.Client
	run        string
	frameTopic string
	poseTopic  string
	edges      []geometry.Edge
	owned      bool
}

// ConnectMQTT dials the broker and returns a renderer that disconnects on
// Close.
func ConnectMQTT(broker, clientID, run, frameTopic, poseTopic string, edges []geometry.Edge) (*MQTTRenderer, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	log.Printf("render: connected to MQTT broker at %s as %s", broker, clientID)

	r := NewMQTTRenderer(client, run, frameTopic, poseTopic, edges)
	r.owned = true
	return r, nil
}

// NewMQTTRenderer wraps an already connected client.
func NewMQTTRenderer(client mqtt.Client, run, frameTopic, poseTopic string, edges []geometry.Edge) *MQTTRenderer {
	return &MQTTRenderer{
		client:     client,
		run:        run,
		frameTopic: frameTopic,
		poseTopic:  poseTopic,
		edges:      edges,
	}
}

func (r *MQTTRenderer) Render(ctx context.Context, f frames.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := NewPayload(r.run, f, r.edges)

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("json marshal error (frame %d): %w", f.Seq, err)
	}
	if token := r.client.Publish(r.frameTopic, 0, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", r.frameTopic, token.Error())
	}

	if r.poseTopic == "" || !p.Finite {
		return nil
	}
	payload, err = json.Marshal(p.Pose)
	if err != nil {
		return fmt.Errorf("json marshal error (pose): %w", err)
	}
	if token := r.client.Publish(r.poseTopic, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish error (%s): %w", r.poseTopic, token.Error())
	}
	return nil
}

func (r *MQTTRenderer) Close() error {
	if r.owned {
		r.client.Disconnect(250)
	}
	return nil
}
