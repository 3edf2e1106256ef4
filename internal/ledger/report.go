// Package ledger holds read-side helpers over ledger snapshots.
package ledger

import (
	"sort"
	"time"

	"github.com/ovaphlow/pitchfork/service-award-go/internal/ledger/entity"
)

// Select returns the entries matching f, keeping their order.
func Select(entries []*entity.Entry, f entity.Filter) []*entity.Entry {
	out := make([]*entity.Entry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

// DailyTotals sums awarded amounts per calendar day of the entry timestamp,
// in ascending day order. Days without matching entries are omitted.
func DailyTotals(entries []*entity.Entry, f entity.Filter) []entity.DailyTotal {
	sums := map[string]float64{}
	for _, e := range entries {
		if !f.Match(e) || e.Timestamp.IsZero() {
			continue
		}
		sums[e.Timestamp.Format(time.DateOnly)] += e.Amount
	}
	out := make([]entity.DailyTotal, 0, len(sums))
	for day, amt := range sums {
		out = append(out, entity.DailyTotal{Day: day, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}
