package domain

import "time"

type ActionTotals struct {
	Total  int `json:"total"`
	Errors int `json:"errors"`
}

// ActivityStat is one aggregation bucket of recent activity.
type ActivityStat struct {
	Bucket  time.Time
	Actions map[ActionKind]ActionTotals
}
