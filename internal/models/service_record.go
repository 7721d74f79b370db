package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceRecord is one completed service entry in a vehicle's history.
// Records are append-only; the engine reads them but never rewrites them.
type ServiceRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID   string             `bson:"vehicle_id" json:"vehicle_id"`
	ServiceType string             `bson:"service_type" json:"service_type"` // free-text label, e.g. "Oil Change"
	ServiceDate time.Time          `bson:"service_date" json:"service_date"`
	Mileage     float64            `bson:"mileage" json:"mileage"` // in miles
	Cost        float64            `bson:"cost" json:"cost"`       // in USD
	Technician  string             `bson:"technician" json:"technician"`
	Notes       string             `bson:"notes" json:"notes"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
