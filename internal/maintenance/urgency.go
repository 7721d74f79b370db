package maintenance

import (
	"sort"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Urgency thresholds shared by the schedule evaluator and the catalog
// aggregator. Once a projection is overdue on either dimension it can never
// be downgraded by the other.
const (
	urgentDays    = 7
	urgentMiles   = 500
	upcomingDays  = 30
	upcomingMiles = 1000
)

// ClassifyUrgency applies the shared urgency contract to a pair of optional
// distances-to-due. Nil means the dimension is unknown and is ignored.
func ClassifyUrgency(daysUntilDue *int, milesUntilDue *float64) models.Urgency {
	if (daysUntilDue != nil && *daysUntilDue < 0) || (milesUntilDue != nil && *milesUntilDue < 0) {
		return models.UrgencyOverdue
	}
	if (daysUntilDue != nil && *daysUntilDue <= urgentDays) || (milesUntilDue != nil && *milesUntilDue <= urgentMiles) {
		return models.UrgencyUrgent
	}
	if (daysUntilDue != nil && *daysUntilDue <= upcomingDays) || (milesUntilDue != nil && *milesUntilDue <= upcomingMiles) {
		return models.UrgencyUpcoming
	}
	return models.UrgencyScheduled
}

// daysBetween counts whole calendar days from now to due; negative when due
// is in the past.
func daysBetween(now, due time.Time) int {
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return int(dueDay.Sub(nowDay).Hours() / 24)
}

// EvaluateSchedule classifies every tracked tier of a schedule state and
// returns projections sorted by urgency rank; ties keep the fixed tier order
// (oil, minor, major). Tiers with neither a due date nor a due mileage are
// skipped. Mileage distance is only computed when the current mileage is known.
func EvaluateSchedule(state *models.ScheduleState, currentMileage *float64, now time.Time) []models.TierProjection {
	var projections []models.TierProjection

	for _, tier := range models.TierOrder {
		ts := state.TierState(tier)
		if ts == nil || (ts.NextDueDate == nil && ts.NextDueMileage == nil) {
			continue
		}

		var daysUntil *int
		if ts.NextDueDate != nil {
			d := daysBetween(now, *ts.NextDueDate)
			daysUntil = &d
		}

		var milesUntil *float64
		if ts.NextDueMileage != nil && currentMileage != nil {
			m := *ts.NextDueMileage - *currentMileage
			milesUntil = &m
		}

		projections = append(projections, models.TierProjection{
			Tier:          tier,
			DueDate:       ts.NextDueDate,
			DueMileage:    ts.NextDueMileage,
			Urgency:       ClassifyUrgency(daysUntil, milesUntil),
			DaysUntilDue:  daysUntil,
			MilesUntilDue: milesUntil,
		})
	}

	sort.SliceStable(projections, func(i, j int) bool {
		return projections[i].Urgency.Rank() < projections[j].Urgency.Rank()
	})
	return projections
}
