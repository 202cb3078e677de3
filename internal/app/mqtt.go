// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher sends a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

type mqttPublisher struct {
	client mqtt.Client
}

// Publish sends a retained QoS 0 message and waits for the broker.
func (p mqttPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 0, true, payload)
	token.Wait()
	return token.Error()
}

func connectMQTT(broker, clientID, component string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("%s: MQTT connect to %s: %w", component, broker, token.Error())
	}
	log.Printf("%s: connected to MQTT broker at %s", component, broker)
	return client, nil
}

func subscribe(client mqtt.Client, topic, component string, handler func(payload []byte)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("%s: subscribe %s: %w", component, topic, token.Error())
	}
	log.Printf("%s: subscribed to %s", component, topic)
	return nil
}

func publishJSON(pub Publisher, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return pub.Publish(topic, payload)
}
