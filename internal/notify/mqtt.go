package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// MQTTPublisher delivers in-app notifications by publishing to the customer's
// notification topic.
type MQTTPublisher struct {
	client  mqtt.Client
	timeout time.Duration
}

// NewMQTTPublisher connects to the broker named by MQTT_BROKER_URL.
func NewMQTTPublisher() (*MQTTPublisher, error) {
	broker := os.Getenv("MQTT_BROKER_URL")
	if broker == "" {
		broker = "tcp://localhost:1883"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("fleet-maintenance-notifier").
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect failed: %v", token.Error())
	}
	return &MQTTPublisher{client: client, timeout: 10 * time.Second}, nil
}

type inAppMessage struct {
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// Send publishes one in-app notification to notifications/{customerID}.
func (p *MQTTPublisher) Send(_ context.Context, _ models.Channel, recipient, subject, body string) error {
	payload, err := json.Marshal(inAppMessage{Subject: subject, Body: body, SentAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal in-app message: %w", err)
	}

	topic := "notifications/" + recipient
	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("mqtt publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s failed: %w", topic, err)
	}

	log.WithField("topic", topic).Info("Published in-app notification")
	return nil
}

// Close disconnects from the broker, allowing in-flight messages to settle.
func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
