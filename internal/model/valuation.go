package model

import "math"

// PremiumBrands earn a 1.5x multiplier on the suggested points value.
var PremiumBrands = []string{"Coach", "Nike", "Adidas", "Levi's", "Banana Republic"}

// Brands offered by the listing form.
var Brands = []string{
	"Nike", "Adidas", "Zara", "H&M", "Uniqlo", "Levi's", "Gap", "Old Navy",
	"Coach", "Banana Republic", "J.Crew", "Ann Taylor", "Express", "Forever 21",
	"Mango", "COS", "Other",
}

var conditionPoints = map[string]int{
	ConditionLikeNew:   200,
	ConditionExcellent: 150,
	ConditionGood:      100,
	ConditionFair:      50,
}

// SuggestPointsValue returns the advisory points value for a listing.
// Unknown conditions fall back to 100 points.
func SuggestPointsValue(condition, brand string) int {
	base, ok := conditionPoints[condition]
	if !ok {
		base = 100
	}
	for _, b := range PremiumBrands {
		if b == brand {
			return int(math.Round(float64(base) * 1.5))
		}
	}
	return base
}
