package model

import "testing"

func TestSuggestPointsValue(t *testing.T) {
	tests := []struct {
		condition string
		brand     string
		want      int
	}{
		{ConditionLikeNew, "", 200},
		{ConditionExcellent, "Zara", 150},
		{ConditionGood, "", 100},
		{ConditionFair, "", 50},
		{ConditionLikeNew, "Nike", 300},
		{ConditionExcellent, "Coach", 225},
		{ConditionFair, "Levi's", 75},
		{ConditionGood, "Banana Republic", 150},
		{"Worn out", "", 100},
		{"Worn out", "Adidas", 150},
		// Brand match is exact.
		{ConditionGood, "nike", 100},
	}

	for _, tt := range tests {
		if got := SuggestPointsValue(tt.condition, tt.brand); got != tt.want {
			t.Errorf("SuggestPointsValue(%q, %q) = %d, want %d", tt.condition, tt.brand, got, tt.want)
		}
	}
}
