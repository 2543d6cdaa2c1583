package core

import (
	"math"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ContainsFold reports whether any of the values contains substr, case-insensitively.
func ContainsFold(substr string, values ...string) bool {
	substr = strings.ToLower(substr)
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), substr) {
			return true
		}
	}
	return false
}

// Round2 rounds x to 2 decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func BoolPtr(b bool) *bool { return &b }

// Choice is one of the allowed values of an enumerated field, with its human readable label.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ChoiceLabel returns the label of value, or value itself when it is not one of the choices.
func ChoiceLabel(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

// ChoiceValues returns the values of the choices, in order.
func ChoiceValues(choices []Choice) []string {
	vals := make([]string, 0, len(choices))
	for _, c := range choices {
		vals = append(vals, c.Value)
	}
	return vals
}
