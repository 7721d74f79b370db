package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Invoice represents a billed service invoice. Layout and rendering live in
// the billing subsystem; the engine only watches status and due date.
type Invoice struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID    string             `bson:"customer_id" json:"customer_id"`
	VehicleID     string             `bson:"vehicle_id" json:"vehicle_id"`
	InvoiceNumber string             `bson:"invoice_number" json:"invoice_number"`
	Amount        float64            `bson:"amount" json:"amount"` // in USD
	Status        string             `bson:"status" json:"status"` // "draft", "sent", "paid", "overdue", "cancelled"
	DueDate       time.Time          `bson:"due_date" json:"due_date"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// Invoice status values.
const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)
