package common

import "time"

// Clock abstracts wall-clock access so date partitioning and TTL
// checks can be tested without real time.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// DateKey derives the UTC calendar-day partition key (YYYY-MM-DD) used
// for daily usage records. Pure: the same instant always yields the same key.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
