package core

import (
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/epcgen/internal/schema"
)

// Interval is the stretch of time attributed to one purchase order:
// (Start, End]. A null Start is unbounded in the past, a null End unbounded
// in the future.
type Interval struct {
	PO    string
	Start pgtype.Timestamp
	End   pgtype.Timestamp
}

// Contains reports whether ts falls in the interval. Start is exclusive and
// End inclusive: an event at exactly the previous order's completion still
// belongs to that previous order.
func (iv Interval) Contains(ts time.Time) bool {
	if iv.Start.Valid && !ts.After(iv.Start.Time) {
		return false
	}
	if iv.End.Valid && ts.After(iv.End.Time) {
		return false
	}
	return true
}

type poEnd struct {
	po  string
	end time.Time
}

// BuildIntervals partitions time into one interval per purchase order.
//
// Each order ends at the latest "to" timestamp in its group and starts where
// the previous order (by end time) ended. The first interval is unbounded in
// the past and the last one unbounded in the future. Orders without any
// timestamp, or sharing an end time with an earlier order, get no interval.
// The result is sorted by end time.
func (s *Service) BuildIntervals(to Groups) []Interval {
	ends := make([]poEnd, 0, len(to))
	for _, po := range to.Keys() {
		var latest pgtype.Timestamp
		for _, row := range to[po] {
			ts, err := ParseEventTime(row.String(schema.ToDate), row.String(schema.ToTime))
			if err != nil || !ts.Valid {
				continue
			}
			if !latest.Valid || ts.Time.After(latest.Time) {
				latest = ts
			}
		}
		if !latest.Valid {
			s.log.Warn("purchase order has no to date/time, no interval built", "po", po)
			continue
		}
		ends = append(ends, poEnd{po: po, end: latest.Time})
	}

	sort.SliceStable(ends, func(i, j int) bool {
		return ends[i].end.Before(ends[j].end)
	})

	intervals := make([]Interval, 0, len(ends))
	var prev pgtype.Timestamp
	for _, e := range ends {
		if prev.Valid && e.end.Equal(prev.Time) {
			s.log.Warn("purchase orders share an end date/time, no interval built",
				"po", e.po, "other_po", intervals[len(intervals)-1].PO, "end", e.end.Format(EventTimeLayout))
			continue
		}
		end := pgtype.Timestamp{Time: e.end, Valid: true}
		intervals = append(intervals, Interval{PO: e.po, Start: prev, End: end})
		prev = end
	}

	if n := len(intervals); n > 0 {
		intervals[n-1].End = pgtype.Timestamp{Valid: false}
	}
	return intervals
}

// FindInterval returns the purchase order whose interval contains ts.
func FindInterval(intervals []Interval, ts time.Time) (string, bool) {
	for _, iv := range intervals {
		if iv.Contains(ts) {
			return iv.PO, true
		}
	}
	return "", false
}

// AssignRows groups "from" rows by the purchase order interval containing
// their timestamp. Rows without a timestamp, or outside every interval, are
// logged and dropped.
func (s *Service) AssignRows(from []schema.Row, intervals []Interval) Groups {
	groups := make(Groups)
	for i, row := range from {
		ts, err := ParseEventTime(row.String(schema.FromDate), row.String(schema.FromTime))
		if err != nil || !ts.Valid {
			s.log.Error("from row has no date/time, cannot map to a purchase order",
				"row", schema.SheetRow(i), "date", row.String(schema.FromDate), "time", row.String(schema.FromTime))
			s.metrics.MissingTimestamp()
			s.metrics.Unmapped()
			continue
		}

		po, ok := FindInterval(intervals, ts.Time)
		if !ok {
			s.log.Error("from row matches no purchase order interval",
				"row", schema.SheetRow(i), "time", ts.Time.Format(EventTimeLayout), "intervals", len(intervals))
			s.metrics.Unmapped()
			continue
		}
		groups[po] = append(groups[po], row)
	}
	return groups
}
