package core

import (
	"fmt"

	"github.com/JonMunkholm/epcgen/internal/schema"
)

// Fields each input needs for its rows to be placed in time and, for "to"
// rows, grouped. Rows lacking them are still processed.
var (
	simpleFields = []schema.Key{schema.Date, schema.Time}
	fromFields   = []schema.Key{schema.FromDate, schema.FromTime}
	toFields     = []schema.Key{schema.PurchaseOrder, schema.ToDate, schema.ToTime}
)

// MissingColumn describes a field that no record can supply: its column is
// absent from every record and it has no default value.
type MissingColumn struct {
	Key   schema.Key
	Label string
}

func (m MissingColumn) Error() string {
	if m.Label == m.Key.String() {
		return fmt.Sprintf("no column %q", m.Label)
	}
	return fmt.Sprintf("no column %q for %s", m.Label, m.Key)
}

// CheckColumns reports which of keys cannot be resolved from any of recs.
// An empty input reports nothing.
func (s *Service) CheckColumns(recs []schema.Record, keys []schema.Key) []MissingColumn {
	if len(recs) == 0 {
		return nil
	}

	var missing []MissingColumn
	for _, k := range keys {
		if s.resolver.Defaults[k] != "" {
			continue
		}
		label := s.resolver.Label(k)
		if !hasLabel(recs, label) {
			missing = append(missing, MissingColumn{Key: k, Label: label})
		}
	}
	return missing
}

func hasLabel(recs []schema.Record, label string) bool {
	for _, rec := range recs {
		if _, ok := rec[label]; ok {
			return true
		}
	}
	return false
}

// warnColumns logs every field of keys that input cannot supply.
func (s *Service) warnColumns(input string, recs []schema.Record, keys []schema.Key) {
	for _, m := range s.CheckColumns(recs, keys) {
		s.log.Warn("input is missing a column", "input", input, "key", m.Key.String(), "column", m.Label)
	}
}
