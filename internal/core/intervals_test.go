package core

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/epcgen/internal/metrics"
	"github.com/JonMunkholm/epcgen/internal/schema"
)

func toRow(po, date, clock string) schema.Row {
	return row("PurchaseOrder", po, "ToDate", date, "ToTime", clock, "ToMaterial", "FG", "ToQuantity", "1")
}

func fromRow(material, date, clock string) schema.Row {
	return row("FromMaterial", material, "FromQuantity", "1", "FromDate", date, "FromTime", clock)
}

func ts(t *testing.T, date, clock string) time.Time {
	t.Helper()
	v, err := ParseEventTime(date, clock)
	require.NoError(t, err)
	require.True(t, v.Valid)
	return v.Time
}

func materials(rows []schema.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.String(schema.FromMaterial))
	}
	return out
}

// ----------------------------------------------------------------------------
// BuildIntervals Tests
// ----------------------------------------------------------------------------

func TestBuildIntervals(t *testing.T) {
	s, _ := newTestService(t, Options{})

	to := Groups{
		"PO1": {toRow("PO1", "1/9/24", "08:00:00"), toRow("PO1", "1/10/24", "10:00:00")},
		"PO2": {toRow("PO2", "1/12/24", "08:00:00")},
		"PO3": {toRow("PO3", "1/11/24", "12:00:00"), toRow("PO3", "1/11/24", "")},
	}

	got := s.BuildIntervals(to)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"PO1", "PO3", "PO2"}, []string{got[0].PO, got[1].PO, got[2].PO})

	assert.False(t, got[0].Start.Valid, "first interval is unbounded in the past")
	assert.Equal(t, ts(t, "1/10/24", "10:00:00"), got[0].End.Time)

	assert.Equal(t, got[0].End.Time, got[1].Start.Time)
	assert.Equal(t, ts(t, "1/11/24", "12:00:00"), got[1].End.Time)

	assert.Equal(t, got[1].End.Time, got[2].Start.Time)
	assert.False(t, got[2].End.Valid, "last interval is unbounded in the future")
}

func TestBuildIntervals_Empty(t *testing.T) {
	s, _ := newTestService(t, Options{})
	assert.Empty(t, s.BuildIntervals(Groups{}))
}

func TestBuildIntervals_SingleOrderCoversAllTime(t *testing.T) {
	s, _ := newTestService(t, Options{})

	got := s.BuildIntervals(Groups{"PO1": {toRow("PO1", "1/10/24", "10:00:00")}})
	require.Len(t, got, 1)
	assert.False(t, got[0].Start.Valid)
	assert.False(t, got[0].End.Valid)
	assert.True(t, got[0].Contains(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, got[0].Contains(time.Date(2090, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestBuildIntervals_SkipsOrdersWithoutTime(t *testing.T) {
	s, buf := newTestService(t, Options{})

	got := s.BuildIntervals(Groups{
		"PO1": {toRow("PO1", "1/10/24", "10:00:00")},
		"PO2": {toRow("PO2", "", ""), toRow("PO2", "1/11/24", "")},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "PO1", got[0].PO)
	assert.Contains(t, buf.String(), "purchase order has no to date/time")
}

func TestBuildIntervals_DuplicateEnds(t *testing.T) {
	s, buf := newTestService(t, Options{})

	got := s.BuildIntervals(Groups{
		"PO-B": {toRow("PO-B", "1/10/24", "10:00:00")},
		"PO-A": {toRow("PO-A", "1/10/24", "10:00:00")},
		"PO-C": {toRow("PO-C", "1/12/24", "10:00:00")},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "PO-A", got[0].PO, "the first order in key order keeps the interval")
	assert.Equal(t, "PO-C", got[1].PO)
	assert.Contains(t, buf.String(), "purchase orders share an end date/time")
	assert.Contains(t, buf.String(), "po=PO-B")
}

func TestBuildIntervals_Partition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for trial := 0; trial < 50; trial++ {
		s, _ := newTestService(t, Options{})

		n := 1 + rng.Intn(20)
		offsets := rng.Perm(10000)[:n]
		to := make(Groups, n)
		for i, off := range offsets {
			end := base.Add(time.Duration(off) * time.Minute)
			po := fmt.Sprintf("PO%03d", i)
			to[po] = []schema.Row{toRow(po, end.Format("1/2/06"), end.Format("15:04:05"))}
		}

		got := s.BuildIntervals(to)
		require.Len(t, got, n)
		assert.False(t, got[0].Start.Valid)
		assert.False(t, got[n-1].End.Valid)
		for i := 1; i < n; i++ {
			require.True(t, got[i].Start.Valid)
			assert.True(t, got[i].Start.Time.Equal(got[i-1].End.Time), "interval %d starts where %d ends", i, i-1)
		}

		for probe := 0; probe < 100; probe++ {
			at := base.Add(time.Duration(rng.Intn(12000)-1000) * time.Minute)
			matches := 0
			for _, iv := range got {
				if iv.Contains(at) {
					matches++
				}
			}
			assert.Equal(t, 1, matches, "timestamp %s must fall in exactly one interval", at)
		}
	}
}

// ----------------------------------------------------------------------------
// Interval Boundary Tests
// ----------------------------------------------------------------------------

func TestIntervalBoundaries(t *testing.T) {
	s, _ := newTestService(t, Options{})

	intervals := s.BuildIntervals(Groups{
		"PO1": {toRow("PO1", "1/10/24", "10:00:00")},
		"PO2": {toRow("PO2", "1/12/24", "08:00:00")},
	})

	tests := []struct {
		name  string
		date  string
		clock string
		want  string
	}{
		{"long before", "1/1/20", "00:00:00", "PO1"},
		{"exactly at first end", "1/10/24", "10:00:00", "PO1"},
		{"just after first end", "1/10/24", "10:00:01", "PO2"},
		{"exactly at last end", "1/12/24", "08:00:00", "PO2"},
		{"after last end", "6/1/24", "00:00:00", "PO2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			po, ok := FindInterval(intervals, ts(t, tt.date, tt.clock))
			require.True(t, ok)
			assert.Equal(t, tt.want, po)
		})
	}
}

func TestFindInterval_None(t *testing.T) {
	_, ok := FindInterval(nil, time.Now())
	assert.False(t, ok)
}

// ----------------------------------------------------------------------------
// AssignRows Tests
// ----------------------------------------------------------------------------

func TestAssignRows(t *testing.T) {
	s, _ := newTestService(t, Options{})

	intervals := s.BuildIntervals(Groups{
		"PO1": {toRow("PO1", "1/10/24", "10:00:00")},
		"PO2": {toRow("PO2", "1/12/24", "08:00:00")},
	})

	got := s.AssignRows([]schema.Row{
		fromRow("A", "1/9/24", "09:00:00"),
		fromRow("B", "1/11/24", "09:00:00"),
		fromRow("C", "1/10/24", "10:00:00"),
		fromRow("D", "1/13/24", "09:00:00"),
	}, intervals)

	assert.Equal(t, []string{"A", "C"}, materials(got["PO1"]))
	assert.Equal(t, []string{"B", "D"}, materials(got["PO2"]))
}

func TestAssignRows_OrderIndependent(t *testing.T) {
	s, _ := newTestService(t, Options{})

	intervals := s.BuildIntervals(Groups{
		"PO1": {toRow("PO1", "1/10/24", "10:00:00")},
		"PO2": {toRow("PO2", "1/12/24", "08:00:00")},
		"PO3": {toRow("PO3", "1/14/24", "08:00:00")},
	})

	var rows []schema.Row
	for day := 8; day <= 15; day++ {
		for hour := 0; hour < 24; hour += 5 {
			rows = append(rows, fromRow(
				fmt.Sprintf("M-%d-%d", day, hour),
				fmt.Sprintf("1/%d/24", day),
				fmt.Sprintf("%02d:00:00", hour),
			))
		}
	}

	want := s.AssignRows(rows, intervals)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]schema.Row(nil), rows...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := s.AssignRows(shuffled, intervals)
		require.Equal(t, want.Keys(), got.Keys())
		for _, po := range want.Keys() {
			w, g := materials(want[po]), materials(got[po])
			sort.Strings(w)
			sort.Strings(g)
			assert.Equal(t, w, g, "group %s", po)
		}
	}
}

func TestAssignRows_Unmapped(t *testing.T) {
	reg := metrics.NewRegistry()
	s, buf := newTestService(t, Options{Metrics: reg})

	intervals := s.BuildIntervals(Groups{"PO1": {toRow("PO1", "1/10/24", "10:00:00")}})

	got := s.AssignRows([]schema.Row{
		fromRow("A", "1/9/24", "09:00:00"),
		fromRow("B", "1/9/24", ""),
		fromRow("C", "", ""),
	}, intervals)

	assert.Equal(t, []string{"A"}, materials(got["PO1"]))
	assert.Equal(t, float64(2), testutil.ToFloat64(reg.UnmappedRows))
	assert.Contains(t, buf.String(), "from row has no date/time")
	assert.Contains(t, buf.String(), "row=3", "rows are numbered as in the sheet")
	assert.Contains(t, buf.String(), "row=4")
}

func TestAssignRows_NoIntervals(t *testing.T) {
	reg := metrics.NewRegistry()
	s, buf := newTestService(t, Options{Metrics: reg})

	got := s.AssignRows([]schema.Row{fromRow("A", "1/9/24", "09:00:00")}, nil)

	assert.Empty(t, got)
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.UnmappedRows))
	assert.Contains(t, buf.String(), "from row matches no purchase order interval")
	assert.Contains(t, buf.String(), "row=2")
}
