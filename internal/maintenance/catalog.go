package maintenance

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// CatalogEntry is one service in the fixed maintenance catalog.
type CatalogEntry struct {
	ServiceType      string
	MileageInterval  float64 // in miles
	TimeIntervalDays int
	Priority         models.Priority
	EstimatedCost    float64 // in USD
}

// serviceCatalog is the fixed catalog matched against raw service history by
// the fleet-wide sweep. Intervals are generic defaults; per-make overrides
// are merged on top.
var serviceCatalog = []CatalogEntry{
	{"Oil Change", 5000, 180, models.PriorityHigh, 55},
	{"Tire Rotation", 7500, 180, models.PriorityMedium, 25},
	{"Engine Air Filter", 15000, 365, models.PriorityLow, 35},
	{"Cabin Air Filter", 15000, 365, models.PriorityLow, 40},
	{"Wiper Blade Replacement", 10000, 365, models.PriorityLow, 30},
	{"Brake Inspection", 12000, 365, models.PriorityHigh, 60},
	{"Brake Pad Replacement", 40000, 1095, models.PriorityHigh, 250},
	{"Brake Fluid Flush", 30000, 1095, models.PriorityMedium, 90},
	{"Tire Replacement", 50000, 1460, models.PriorityHigh, 600},
	{"Wheel Alignment", 15000, 365, models.PriorityMedium, 100},
	{"Battery Test", 20000, 365, models.PriorityMedium, 20},
	{"Battery Replacement", 50000, 1460, models.PriorityMedium, 180},
	{"Coolant Flush", 30000, 730, models.PriorityMedium, 110},
	{"Transmission Fluid Change", 45000, 1095, models.PriorityHigh, 175},
	{"Spark Plug Replacement", 60000, 1825, models.PriorityMedium, 150},
	{"Timing Belt Replacement", 90000, 2555, models.PriorityCritical, 750},
}

// CatalogOverride is a partial catalog entry; only set fields replace the
// generic defaults.
type CatalogOverride struct {
	MileageInterval  *float64
	TimeIntervalDays *int
	Priority         *models.Priority
	EstimatedCost    *float64
}

// makeOverrides holds per-make overrides keyed by uppercase make, then
// service type.
var makeOverrides = map[string]map[string]CatalogOverride{
	"TOYOTA": {
		"Oil Change": {MileageInterval: overrideMiles(10000), TimeIntervalDays: overrideDays(365)},
	},
	"HONDA": {
		"Oil Change": {MileageInterval: overrideMiles(7500)},
	},
	"BMW": {
		"Oil Change":        {MileageInterval: overrideMiles(10000), EstimatedCost: overrideCost(120)},
		"Brake Fluid Flush": {TimeIntervalDays: overrideDays(730)},
	},
	"MERCEDES-BENZ": {
		"Oil Change": {MileageInterval: overrideMiles(10000), EstimatedCost: overrideCost(130)},
	},
	"FORD": {
		"Transmission Fluid Change": {MileageInterval: overrideMiles(30000)},
	},
}

func overrideMiles(v float64) *float64 { return &v }
func overrideDays(v int) *int          { return &v }
func overrideCost(v float64) *float64  { return &v }

// timingChainCutoffYear and chainDesignModels drive the timing-belt pruning
// heuristic: vehicles this new, or models on the list, are assumed to use a
// timing chain instead of a belt. Heuristic only, not authoritative.
const timingChainCutoffYear = 2008

var chainDesignModels = []string{
	"Civic", "Accord", "CR-V", "Corolla", "Camry", "RAV4",
	"F-150", "Silverado", "Altima", "3 Series", "X5",
}

// averageDailyMiles is the assumed daily mileage used to estimate a due date
// when a recommendation is anchored by mileage alone (~12.8k miles/year).
const averageDailyMiles = 35.0

// catalogFor returns the catalog tailored to a vehicle: per-make overrides
// applied and the timing-belt entry pruned for chain-design vehicles.
func catalogFor(identity models.VehicleIdentity) []CatalogEntry {
	overrides := makeOverrides[strings.ToUpper(identity.Make)]
	chain := usesTimingChain(identity)

	entries := make([]CatalogEntry, 0, len(serviceCatalog))
	for _, entry := range serviceCatalog {
		if chain && entry.ServiceType == "Timing Belt Replacement" {
			continue
		}
		if ov, ok := overrides[entry.ServiceType]; ok {
			entry = applyOverride(entry, ov)
		}
		entries = append(entries, entry)
	}
	return entries
}

func usesTimingChain(identity models.VehicleIdentity) bool {
	if identity.Year >= timingChainCutoffYear {
		return true
	}
	for _, model := range chainDesignModels {
		if strings.EqualFold(identity.Model, model) {
			return true
		}
	}
	return false
}

func applyOverride(entry CatalogEntry, ov CatalogOverride) CatalogEntry {
	if ov.MileageInterval != nil {
		entry.MileageInterval = *ov.MileageInterval
	}
	if ov.TimeIntervalDays != nil {
		entry.TimeIntervalDays = *ov.TimeIntervalDays
	}
	if ov.Priority != nil {
		entry.Priority = *ov.Priority
	}
	if ov.EstimatedCost != nil {
		entry.EstimatedCost = *ov.EstimatedCost
	}
	return entry
}

// Recommend matches the catalog against a vehicle's raw service history and
// returns due or overdue recommendations, overdue first, then by priority.
// Entries due in more than 30 days and more than 1000 miles are dropped.
func Recommend(vehicle *models.Vehicle, history []models.ServiceRecord, now time.Time) []models.ServiceRecommendation {
	currentMileage := vehicle.CurrentMileage
	var recs []models.ServiceRecommendation

	for _, entry := range catalogFor(vehicle.Identity) {
		var dueDate time.Time
		var dueMileage float64
		hasMileage := false

		if latest := latestServiceOfType(history, entry.ServiceType); latest != nil {
			dueDate = latest.ServiceDate.AddDate(0, 0, entry.TimeIntervalDays)
			dueMileage = latest.Mileage + entry.MileageInterval
			hasMileage = true
		} else {
			// No recorded service: assume every prior interval was satisfied
			// and anchor to the next interval multiple above current mileage.
			if currentMileage == nil {
				continue
			}
			dueMileage = nextIntervalMultiple(*currentMileage, entry.MileageInterval)
			hasMileage = true
			remaining := dueMileage - *currentMileage
			dueDate = now.AddDate(0, 0, int(math.Round(remaining/averageDailyMiles)))
		}

		days := daysBetween(now, dueDate)
		var milesUntil *float64
		if hasMileage && currentMileage != nil {
			m := dueMileage - *currentMileage
			milesUntil = &m
		}

		urgency := ClassifyUrgency(&days, milesUntil)
		overdue := urgency == models.UrgencyOverdue

		rec := models.ServiceRecommendation{
			ServiceType:   entry.ServiceType,
			Priority:      entry.Priority,
			DueDate:       &dueDate,
			Overdue:       overdue,
			EstimatedCost: entry.EstimatedCost,
		}
		if hasMileage {
			rec.DueMileage = &dueMileage
		}

		if overdue {
			rec.Priority = entry.Priority.Escalate()
			if days < 0 {
				rec.OverdueDays = -days
			}
			if milesUntil != nil && *milesUntil < 0 {
				rec.OverdueMiles = -*milesUntil
			}
			rec.Reason = overdueReason(rec.OverdueDays, rec.OverdueMiles)
		} else {
			// Only surface near-term items; the rest are dropped silently.
			switch {
			case days <= upcomingDays:
				rec.Reason = fmt.Sprintf("due in %d days", days)
			case milesUntil != nil && *milesUntil <= upcomingMiles:
				rec.Reason = fmt.Sprintf("due in %.0f miles", *milesUntil)
			default:
				continue
			}
		}

		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Overdue != recs[j].Overdue {
			return recs[i].Overdue
		}
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})
	return recs
}

// latestServiceOfType finds the most recent history entry with a matching
// service type. Matching is case-insensitive.
func latestServiceOfType(history []models.ServiceRecord, serviceType string) *models.ServiceRecord {
	var latest *models.ServiceRecord
	for i := range history {
		if !strings.EqualFold(history[i].ServiceType, serviceType) {
			continue
		}
		if latest == nil || history[i].ServiceDate.After(latest.ServiceDate) {
			latest = &history[i]
		}
	}
	return latest
}

// nextIntervalMultiple returns the smallest whole multiple of interval
// strictly greater than current.
func nextIntervalMultiple(current, interval float64) float64 {
	if interval <= 0 {
		return current
	}
	return math.Floor(current/interval)*interval + interval
}

func overdueReason(days int, miles float64) string {
	switch {
	case days > 0 && miles > 0:
		return fmt.Sprintf("overdue by %d days and %.0f miles", days, miles)
	case days > 0:
		return fmt.Sprintf("overdue by %d days", days)
	default:
		return fmt.Sprintf("overdue by %.0f miles", miles)
	}
}
