package schema

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Record is a raw spreadsheet row: column label to cell value.
type Record map[string]string

// SheetRow returns the spreadsheet row number of the record at index i of a
// file. Row 1 holds the header.
func SheetRow(i int) int {
	return i + 2
}

// Row is a record after resolution: every logical field is either a valid
// string or null. The zero Row has every field null.
type Row struct {
	values [numKeys]pgtype.Text
}

// Get returns the value of k, or a null value for an unknown key.
func (r Row) Get(k Key) pgtype.Text {
	if !k.Valid() {
		return pgtype.Text{}
	}
	return r.values[k]
}

// String returns the value of k, or "" when it is null.
func (r Row) String(k Key) string {
	return r.Get(k).String
}

// Has reports whether k resolved to a non-null value.
func (r Row) Has(k Key) bool {
	return r.Get(k).Valid
}

// Resolver indirects logical keys through configured column labels and
// default values.
type Resolver struct {
	// Labels maps a key to the column label that holds it. A key without
	// a label is looked up under its own name.
	Labels map[Key]string

	// Defaults maps a key to the value used when its column is absent or
	// blank.
	Defaults map[Key]string
}

// NewResolver returns a resolver with empty label and default tables.
func NewResolver() *Resolver {
	return &Resolver{
		Labels:   make(map[Key]string),
		Defaults: make(map[Key]string),
	}
}

// Label returns the column label configured for k.
func (r *Resolver) Label(k Key) string {
	if label, ok := r.Labels[k]; ok && label != "" {
		return label
	}
	return k.String()
}

// Value resolves k in rec: the labelled column when present and non-blank,
// else the configured default, else null.
func (r *Resolver) Value(rec Record, k Key) pgtype.Text {
	if v := text(rec[r.Label(k)]); v.Valid {
		return v
	}
	return text(r.Defaults[k])
}

// Row resolves every key of rec.
func (r *Resolver) Row(rec Record) Row {
	var row Row
	for k := Key(0); k < numKeys; k++ {
		row.values[k] = r.Value(rec, k)
	}
	return row
}

// Rows resolves a slice of records.
func (r *Resolver) Rows(recs []Record) []Row {
	rows := make([]Row, len(recs))
	for i, rec := range recs {
		rows[i] = r.Row(rec)
	}
	return rows
}

func text(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}
