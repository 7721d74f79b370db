// Package notify is the outbound notification transport: email and SMS go
// through an HTTP gateway, in-app messages are published over MQTT. Delivery
// is attempted once; failures are reported to the caller, never retried here.
package notify

import (
	"context"
	"fmt"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Sender attempts delivery of one notification and reports success or failure.
type Sender interface {
	Send(ctx context.Context, channel models.Channel, recipient, subject, body string) error
}

// Router dispatches to the transport responsible for each channel.
type Router struct {
	Gateway Sender // email and SMS
	InApp   Sender // in-app via MQTT
}

// Send routes a notification to the channel's transport.
func (r *Router) Send(ctx context.Context, channel models.Channel, recipient, subject, body string) error {
	switch channel {
	case models.ChannelEmail, models.ChannelSMS:
		return r.Gateway.Send(ctx, channel, recipient, subject, body)
	case models.ChannelInApp:
		return r.InApp.Send(ctx, channel, recipient, subject, body)
	default:
		return fmt.Errorf("unknown channel %q", channel)
	}
}
