// Package maintenance implements the maintenance intelligence core:
// category classification, interval profiles, schedule state projection,
// urgency evaluation and catalog-driven recommendations.
package maintenance

import (
	"strings"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Classify maps decoded vehicle attributes to a maintenance category.
// The cascade is order-sensitive: fuel-derived categories always win over
// body-derived ones, and the order below must not be changed. Missing
// attributes are treated as empty strings; there is no failure mode and
// "unknown" is a valid terminal category.
func Classify(fuelType, vehicleType, bodyClass string) models.Category {
	fuel := strings.ToLower(fuelType)
	vehicle := strings.ToLower(vehicleType)
	body := strings.ToLower(bodyClass)

	switch {
	case strings.Contains(fuel, "electric") && !strings.Contains(fuel, "hybrid"):
		return models.CategoryElectric
	case strings.Contains(fuel, "hybrid") || strings.Contains(fuel, "plug-in"):
		return models.CategoryHybrid
	case containsAny(body, "truck") || containsAny(vehicle, "truck"):
		return models.CategoryTruck
	case containsAny(body, "suv", "sport utility", "multipurpose") ||
		containsAny(vehicle, "suv", "sport utility", "multipurpose"):
		return models.CategorySUV
	case containsAny(body, "van") || containsAny(vehicle, "van"):
		return models.CategoryVan
	case containsAny(body, "convertible", "coupe", "roadster", "sports"):
		return models.CategorySports
	case containsAny(body, "sedan", "hatchback", "wagon", "passenger") ||
		containsAny(vehicle, "sedan", "hatchback", "wagon", "passenger"):
		return models.CategorySedan
	default:
		return models.CategoryUnknown
	}
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
