package viewer

import (
	"time"

	"github.com/Egor213/AuditTrack/internal/domain"
)

// StatsSummary is the per-kind activity of the most recent bucket.
// Bucket is zero when no bucket was available.
type StatsSummary struct {
	Bucket time.Time
	Totals map[domain.ActionKind]domain.ActionTotals
}

type StatsRow struct {
	Kind domain.ActionKind
	domain.ActionTotals
}

// Summarize reads the latest bucket of the window. Every action kind is
// present in the result, zero-filled when the bucket has no activity for it.
func Summarize(window []domain.ActivityStat) StatsSummary {
	summary := StatsSummary{Totals: make(map[domain.ActionKind]domain.ActionTotals, len(domain.ActionKinds))}
	for _, k := range domain.ActionKinds {
		summary.Totals[k] = domain.ActionTotals{}
	}

	if len(window) == 0 {
		return summary
	}

	latest := window[0]
	for _, b := range window[1:] {
		if b.Bucket.After(latest.Bucket) {
			latest = b
		}
	}

	summary.Bucket = latest.Bucket
	for k, t := range latest.Actions {
		summary.Totals[k] = t
	}
	return summary
}

// Rows lists the totals in display order of the action kinds.
func (s StatsSummary) Rows() []StatsRow {
	rows := make([]StatsRow, 0, len(domain.ActionKinds))
	for _, k := range domain.ActionKinds {
		rows = append(rows, StatsRow{Kind: k, ActionTotals: s.Totals[k]})
	}
	return rows
}

func (s StatsSummary) IsEmpty() bool {
	return s.Bucket.IsZero()
}
