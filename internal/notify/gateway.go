package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// GatewaySender delivers email and SMS through the notification gateway's
// REST endpoint.
type GatewaySender struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// NewGatewaySender creates a gateway sender from NOTIFY_GATEWAY_URL and
// NOTIFY_GATEWAY_TOKEN.
func NewGatewaySender() *GatewaySender {
	base := os.Getenv("NOTIFY_GATEWAY_URL")
	if base == "" {
		base = "http://localhost:8090/api/notifications"
	}
	return &GatewaySender{
		baseURL:    base,
		authToken:  os.Getenv("NOTIFY_GATEWAY_TOKEN"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewGatewaySenderWithClient creates a gateway sender against an explicit
// endpoint and client.
func NewGatewaySenderWithClient(baseURL string, client *http.Client) *GatewaySender {
	return &GatewaySender{baseURL: baseURL, httpClient: client}
}

type gatewayRequest struct {
	Channel   string `json:"channel"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Send posts one notification to the gateway. A non-2xx response is a
// delivery failure.
func (g *GatewaySender) Send(ctx context.Context, channel models.Channel, recipient, subject, body string) error {
	payload, err := json.Marshal(gatewayRequest{
		Channel:   string(channel),
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.authToken)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	log.WithFields(log.Fields{
		"channel":   channel,
		"recipient": recipient,
	}).Info("Sent notification")
	return nil
}
