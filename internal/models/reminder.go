package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channel is the delivery channel for a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelInApp Channel = "in_app"
)

// ReminderStatus is the lifecycle state of a reminder.
type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "pending"
	ReminderSent      ReminderStatus = "sent"
	ReminderRead      ReminderStatus = "read"
	ReminderFailed    ReminderStatus = "failed"
	ReminderCancelled ReminderStatus = "cancelled"
)

// Reminder type labels used by the dispatch sweep and its cool-down checks.
const (
	ReminderTypeService        = "service_reminder"
	ReminderTypeInvoiceOverdue = "invoice_overdue"
)

// Reminder is a queued or delivered customer notification created by the
// dispatch sweep and consumed by the pending-flush pass.
type Reminder struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID  string             `bson:"customer_id" json:"customer_id"`
	Type        string             `bson:"type" json:"type"` // "service_reminder" or "invoice_overdue"
	Subject     string             `bson:"subject" json:"subject"`
	Message     string             `bson:"message" json:"message"`
	Channel     Channel            `bson:"channel" json:"channel"`
	Status      ReminderStatus     `bson:"status" json:"status"`
	ScheduledAt time.Time          `bson:"scheduled_at" json:"scheduled_at"`
	SentAt      *time.Time         `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	Error       string             `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
