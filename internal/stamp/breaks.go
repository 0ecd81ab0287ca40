package stamp

import (
	"fmt"
	"time"
)

// BreakRule deducts Deduction from any checked-in duration of at least Threshold.
type BreakRule struct {
	Threshold time.Duration
	Deduction time.Duration
}

const (
	BigBreakLimit      = 9 * time.Hour
	BigBreakDuration   = 45 * time.Minute
	SmallBreakLimit    = 6 * time.Hour
	SmallBreakDuration = 30 * time.Minute
)

// BreakRules is ordered from the longest threshold to the shortest.
var BreakRules = []BreakRule{
	{Threshold: BigBreakLimit, Deduction: BigBreakDuration},
	{Threshold: SmallBreakLimit, Deduction: SmallBreakDuration},
}

// BreakFor returns the deduction for a checked-in duration. Thresholds are
// inclusive: exactly 6h already earns the small break.
func BreakFor(checkedIn time.Duration) time.Duration {
	for _, rule := range BreakRules {
		if checkedIn >= rule.Threshold {
			return rule.Deduction
		}
	}
	return 0
}

// WorkedTime applies the break table to a checked-in duration.
func WorkedTime(checkedIn time.Duration) (time.Duration, error) {
	worked := checkedIn - BreakFor(checkedIn)
	if worked < 0 {
		return 0, fmt.Errorf("%w: %s checked in", ErrNegativeWorkedTime, checkedIn)
	}
	return worked, nil
}
