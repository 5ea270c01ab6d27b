package models

import "time"

// DailyUsage is the per-calendar-day consumption record, keyed by the
// UTC date string (YYYY-MM-DD). Counters are monotonically
// non-decreasing within a day; the record resets implicitly because
// each day is a distinct key and stale records lapse via TTL.
type DailyUsage struct {
	TotalTokens      int       `json:"totalTokens"`
	ImageGenerations int       `json:"imageGenerations"`
	LastUpdated      time.Time `json:"lastUpdated"` // informational only
}
