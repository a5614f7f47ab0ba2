package service

import "strings"

// capitalMidpoints maps the chatbot capacity brackets to the value stored
// as capital_available.
var capitalMidpoints = map[string]int64{
	"$100K-$250K": 175000,
	"$250K-$500K": 375000,
	"$500K-$1M":   750000,
	"$1M+":        1500000,
}

// ParseCapital returns nil for empty, free-form ("other:...") or unknown
// brackets.
func ParseCapital(bracket string) *int64 {
	if bracket == "" || strings.HasPrefix(bracket, "other:") {
		return nil
	}
	v, ok := capitalMidpoints[bracket]
	if !ok {
		return nil
	}
	return &v
}
