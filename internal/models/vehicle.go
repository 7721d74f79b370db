package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the maintenance-profile classification derived from vehicle attributes.
type Category string

const (
	CategoryTruck    Category = "truck"
	CategorySUV      Category = "suv"
	CategorySedan    Category = "sedan"
	CategoryHybrid   Category = "hybrid"
	CategoryElectric Category = "electric"
	CategoryVan      Category = "van"
	CategorySports   Category = "sports"
	CategoryLuxury   Category = "luxury"
	CategoryUnknown  Category = "unknown"
)

// VehicleIdentity holds the attributes decoded from a VIN by the lookup service.
// Fields the provider did not supply stay zero-valued and must be treated as
// unknown, not as defaults.
type VehicleIdentity struct {
	VIN         string `bson:"vin" json:"vin"`
	Make        string `bson:"make" json:"make"`
	Model       string `bson:"model" json:"model"`
	Year        int    `bson:"year" json:"year"`
	EngineModel string `bson:"engine_model" json:"engine_model"`
	FuelType    string `bson:"fuel_type" json:"fuel_type"`
	DriveType   string `bson:"drive_type" json:"drive_type"`
	VehicleType string `bson:"vehicle_type" json:"vehicle_type"`
	BodyClass   string `bson:"body_class" json:"body_class"`
}

// Vehicle represents a tracked customer vehicle.
type Vehicle struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerID     string             `bson:"customer_id" json:"customer_id"`
	Identity       VehicleIdentity    `bson:"identity" json:"identity"`
	Category       Category           `bson:"category" json:"category"`
	CurrentMileage *float64           `bson:"current_mileage,omitempty" json:"current_mileage,omitempty"` // in miles; nil when unreported
	Status         string             `bson:"status" json:"status"`                                       // "active" or "inactive"
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
