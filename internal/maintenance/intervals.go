package maintenance

import (
	"math"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// baseIntervals maps each category to its three-tier interval structure.
// Mileage in miles, time in months. Electric vehicles have no oil tier.
var baseIntervals = map[models.Category]models.ServiceIntervalProfile{
	models.CategoryTruck: {
		Oil:   &models.TierInterval{Mileage: 5000, Months: 6},
		Minor: &models.TierInterval{Mileage: 15000, Months: 12},
		Major: &models.TierInterval{Mileage: 30000, Months: 24},
	},
	models.CategorySUV: {
		Oil:   &models.TierInterval{Mileage: 5000, Months: 6},
		Minor: &models.TierInterval{Mileage: 15000, Months: 12},
		Major: &models.TierInterval{Mileage: 30000, Months: 24},
	},
	models.CategorySedan: {
		Oil:   &models.TierInterval{Mileage: 5000, Months: 6},
		Minor: &models.TierInterval{Mileage: 15000, Months: 12},
		Major: &models.TierInterval{Mileage: 30000, Months: 24},
	},
	models.CategoryHybrid: {
		Oil:   &models.TierInterval{Mileage: 7500, Months: 12},
		Minor: &models.TierInterval{Mileage: 20000, Months: 18},
		Major: &models.TierInterval{Mileage: 40000, Months: 36},
	},
	models.CategoryElectric: {
		Oil:   nil, // no oil-equivalent tier; absent, not zero
		Minor: &models.TierInterval{Mileage: 20000, Months: 24},
		Major: &models.TierInterval{Mileage: 50000, Months: 48},
	},
	models.CategoryVan: {
		Oil:   &models.TierInterval{Mileage: 5000, Months: 6},
		Minor: &models.TierInterval{Mileage: 12000, Months: 12},
		Major: &models.TierInterval{Mileage: 25000, Months: 24},
	},
	models.CategorySports: {
		Oil:   &models.TierInterval{Mileage: 3000, Months: 6},
		Minor: &models.TierInterval{Mileage: 10000, Months: 12},
		Major: &models.TierInterval{Mileage: 20000, Months: 24},
	},
	models.CategoryLuxury: {
		Oil:   &models.TierInterval{Mileage: 5000, Months: 6},
		Minor: &models.TierInterval{Mileage: 12000, Months: 12},
		Major: &models.TierInterval{Mileage: 25000, Months: 24},
	},
	models.CategoryUnknown: {
		Oil:   &models.TierInterval{Mileage: 5000, Months: 6},
		Minor: &models.TierInterval{Mileage: 15000, Months: 12},
		Major: &models.TierInterval{Mileage: 30000, Months: 24},
	},
}

// BuildProfile derives a fresh age-adjusted interval profile for a category.
// Vehicles older than 10 years have mileage components tightened to 80%,
// older than 5 years to 90%; time components are never scaled. A zero model
// year means the age is unknown and counts as 0. The returned profile is a
// copy and may be snapshotted or discarded freely.
func BuildProfile(category models.Category, modelYear int, now time.Time) models.ServiceIntervalProfile {
	base, ok := baseIntervals[category]
	if !ok {
		base = baseIntervals[models.CategoryUnknown]
	}

	age := 0
	if modelYear > 0 {
		age = now.Year() - modelYear
	}

	factor := 1.0
	switch {
	case age > 10:
		factor = 0.8
	case age > 5:
		factor = 0.9
	}

	return models.ServiceIntervalProfile{
		Category: category,
		Oil:      scaleInterval(base.Oil, factor),
		Minor:    scaleInterval(base.Minor, factor),
		Major:    scaleInterval(base.Major, factor),
	}
}

func scaleInterval(interval *models.TierInterval, factor float64) *models.TierInterval {
	if interval == nil {
		return nil
	}
	return &models.TierInterval{
		Mileage: math.Round(interval.Mileage * factor),
		Months:  interval.Months,
	}
}
