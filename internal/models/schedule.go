package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tier identifies one of the three maintenance frequency bands.
type Tier string

const (
	TierOil   Tier = "oil_change"    // minor-frequency tier
	TierMinor Tier = "minor_service" // minor service tier
	TierMajor Tier = "major_service" // major service tier
)

// TierOrder is the fixed presentation order for tiers.
var TierOrder = []Tier{TierOil, TierMinor, TierMajor}

// IsValidTier checks if a tier identifier is one of the three known tiers.
func IsValidTier(t Tier) bool {
	switch t {
	case TierOil, TierMinor, TierMajor:
		return true
	default:
		return false
	}
}

// TierInterval is the mileage/time interval pair for one maintenance tier.
type TierInterval struct {
	Mileage float64 `bson:"mileage" json:"mileage"` // in miles
	Months  int     `bson:"months" json:"months"`
}

// ServiceIntervalProfile is the per-category, age-adjusted interval table.
// Electric vehicles have no oil tier: the pointer is nil, never a zero interval.
// Profiles are always recomputed, never mutated in place.
type ServiceIntervalProfile struct {
	Category Category      `bson:"category" json:"category"`
	Oil      *TierInterval `bson:"oil,omitempty" json:"oil,omitempty"`
	Minor    *TierInterval `bson:"minor" json:"minor"`
	Major    *TierInterval `bson:"major" json:"major"`
}

// Interval returns the interval for a tier, or nil when the tier is omitted.
func (p *ServiceIntervalProfile) Interval(t Tier) *TierInterval {
	switch t {
	case TierOil:
		return p.Oil
	case TierMinor:
		return p.Minor
	case TierMajor:
		return p.Major
	default:
		return nil
	}
}

// TierState holds the anchor and next-due projection for one tier.
type TierState struct {
	LastServiceDate    *time.Time `bson:"last_service_date,omitempty" json:"last_service_date,omitempty"`
	LastServiceMileage *float64   `bson:"last_service_mileage,omitempty" json:"last_service_mileage,omitempty"`
	NextDueDate        *time.Time `bson:"next_due_date,omitempty" json:"next_due_date,omitempty"`
	NextDueMileage     *float64   `bson:"next_due_mileage,omitempty" json:"next_due_mileage,omitempty"`
}

// ScheduleState tracks the next-due projection for every tier of one vehicle,
// anchored to the last completed service of that tier. There is at most one
// per vehicle; it is upserted, never silently deleted.
type ScheduleState struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	VehicleID string                 `bson:"vehicle_id" json:"vehicle_id"`
	Profile   ServiceIntervalProfile `bson:"profile" json:"profile"` // snapshot used to compute projections
	Oil       TierState              `bson:"oil" json:"oil"`
	Minor     TierState              `bson:"minor" json:"minor"`
	Major     TierState              `bson:"major" json:"major"`
	UpdatedAt time.Time              `bson:"updated_at" json:"updated_at"`
}

// TierState returns a pointer to the state for a tier, or nil for an unknown tier.
func (s *ScheduleState) TierState(t Tier) *TierState {
	switch t {
	case TierOil:
		return &s.Oil
	case TierMinor:
		return &s.Minor
	case TierMajor:
		return &s.Major
	default:
		return nil
	}
}
