package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/epcgen/internal/schema"
)

// Groups maps a group key to the rows sharing it, in input order.
type Groups map[string][]schema.Row

// Keys returns the group keys in ascending order.
func (g Groups) Keys() []string {
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unionKeys(a, b Groups) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for _, g := range []Groups{a, b} {
		for k := range g {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// Grouping derives a group key from a field value.
type Grouping int

const (
	// GroupByValue groups rows whose values are equal.
	GroupByValue Grouping = iota
	GroupByYear
	GroupByMonth
	GroupByWeek
)

func (g Grouping) String() string {
	switch g {
	case GroupByYear:
		return "year"
	case GroupByMonth:
		return "month"
	case GroupByWeek:
		return "week"
	default:
		return "equality"
	}
}

// ParseGrouping parses "equality", "year", "month" or "week".
func ParseGrouping(s string) (Grouping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "equality", "value":
		return GroupByValue, nil
	case "year":
		return GroupByYear, nil
	case "month":
		return GroupByMonth, nil
	case "week":
		return GroupByWeek, nil
	default:
		return GroupByValue, fmt.Errorf("invalid grouping %q (want equality, year, month or week)", s)
	}
}

// groupDateLayout is the date format the date groupings read.
const groupDateLayout = "1/2/06"

// Group returns the group key of value, or false when value cannot be
// grouped.
func (g Grouping) Group(value string) (string, bool) {
	if g == GroupByValue {
		return value, value != ""
	}

	d, err := time.Parse(groupDateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", false
	}

	switch g {
	case GroupByYear:
		return strconv.Itoa(d.Year()), true
	case GroupByMonth:
		return strconv.Itoa(int(d.Month())), true
	case GroupByWeek:
		_, week := d.ISOWeek()
		return strconv.Itoa(week), true
	}
	return "", false
}

// GroupRows groups rows by the value of key through the service's grouping.
// Rows without a usable key are skipped with a warning.
func (s *Service) GroupRows(rows []schema.Row, key schema.Key) Groups {
	groups := make(Groups)
	for i, row := range rows {
		group, ok := s.grouping.Group(row.String(key))
		if !ok {
			s.log.Warn("row has no group key, skipping",
				"row", schema.SheetRow(i), "field", key.String(), "value", row.String(key), "grouping", s.grouping.String())
			continue
		}
		groups[group] = append(groups[group], row)
	}
	return groups
}
