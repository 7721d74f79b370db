package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Customer represents a vehicle owner who receives maintenance reminders.
type Customer struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone" json:"phone"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// PreferredChannel picks the delivery channel for a customer: email if an
// address exists, else SMS if a phone exists, else in-app.
func (c *Customer) PreferredChannel() Channel {
	if c.Email != "" {
		return ChannelEmail
	}
	if c.Phone != "" {
		return ChannelSMS
	}
	return ChannelInApp
}
