package models

import "time"

// Priority is the business priority of a recommended service.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Escalate bumps a priority one level; critical stays critical.
func (p Priority) Escalate() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	case PriorityHigh:
		return PriorityCritical
	default:
		return p
	}
}

// Rank orders priorities for sorting: critical first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Urgency classifies how soon a projected service is due.
type Urgency string

const (
	UrgencyOverdue   Urgency = "overdue"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyUpcoming  Urgency = "upcoming"
	UrgencyScheduled Urgency = "scheduled"
)

// Rank orders urgencies for sorting: overdue first.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyOverdue:
		return 0
	case UrgencyUrgent:
		return 1
	case UrgencyUpcoming:
		return 2
	case UrgencyScheduled:
		return 3
	default:
		return 4
	}
}

// ServiceRecommendation is one catalog-derived recommendation for a vehicle.
// Recommendations are recomputed on every evaluation and never persisted.
type ServiceRecommendation struct {
	ServiceType   string     `json:"service_type"`
	Reason        string     `json:"reason"`
	Priority      Priority   `json:"priority"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	DueMileage    *float64   `json:"due_mileage,omitempty"`
	Overdue       bool       `json:"overdue"`
	OverdueDays   int        `json:"overdue_days,omitempty"`
	OverdueMiles  float64    `json:"overdue_miles,omitempty"`
	EstimatedCost float64    `json:"estimated_cost"`
}

// TierProjection is the urgency evaluation of one schedule tier.
type TierProjection struct {
	Tier          Tier       `json:"tier"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	DueMileage    *float64   `json:"due_mileage,omitempty"`
	Urgency       Urgency    `json:"urgency"`
	DaysUntilDue  *int       `json:"days_until_due,omitempty"`
	MilesUntilDue *float64   `json:"miles_until_due,omitempty"`
}
