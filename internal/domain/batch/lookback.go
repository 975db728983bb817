package batch

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultLookbackHours applies when no lookback is given.
	DefaultLookbackHours = 24
	// MaxLookbackHours caps the window at roughly five years.
	MaxLookbackHours = 31 * 24 * 12 * 5
)

// ParseLookback reads a number of hours. Empty input yields the default and
// values above the cap are clamped.
func ParseLookback(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LookbackHours(DefaultLookbackHours)
	}
	hours, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLookback, s)
	}
	return LookbackHours(hours)
}

// LookbackHours converts hours to a duration, clamping to MaxLookbackHours.
func LookbackHours(hours float64) (time.Duration, error) {
	if math.IsNaN(hours) || math.IsInf(hours, -1) || hours < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidLookback, hours)
	}
	if hours > MaxLookbackHours {
		hours = MaxLookbackHours
	}
	return time.Duration(hours * float64(time.Hour)), nil
}
