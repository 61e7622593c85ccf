package analyzer

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultRating is used when no rating can be found in a text.
const DefaultRating = 5.0

var (
	outOfTenPattern = regexp.MustCompile(`(\d+(\.\d+)?)\s*(/|out of)\s*10`)
	ratingPattern   = regexp.MustCompile(`rating\D*(\d+(\.\d+)?)`)
)

// ExtractRating finds a 0-10 rating in text. "X/10" and "X out of 10" win
// over a number following the word "rating"; the latter is only accepted
// within [0, 10]. Anything else yields DefaultRating.
func ExtractRating(text string) float64 {
	if m := outOfTenPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v
		}
	}
	if m := ratingPattern.FindStringSubmatch(strings.ToLower(text)); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v >= 0 && v <= 10 {
			return v
		}
	}
	return DefaultRating
}
