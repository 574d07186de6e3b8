package core

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/epcgen/internal/epc"
	"github.com/JonMunkholm/epcgen/internal/metrics"
	"github.com/JonMunkholm/epcgen/internal/schema"
)

const testPrefix = "0614141"

var testTables = epc.Tables{
	Products: epc.Table{
		"M1": schema.Record{"Material": "M1", "GTIN": "00614141123452"},
		"M2": schema.Record{"Material": "M2"},
		"FG": schema.Record{"Material": "FG", "GTIN": "00614141999996"},
	},
	Locations: epc.Table{
		"PLANT": schema.Record{"Location": "PLANT", "GLN": "0614141000005"},
		"LINE1": schema.Record{"Location": "LINE1", "GLN": "0614141000012"},
		"LINE2": schema.Record{"Location": "LINE2"},
	},
}

// newTestService returns a service logging at debug level into the returned
// buffer, with predictable ids.
func newTestService(t *testing.T, opts Options) (*Service, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	opts.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}
	if opts.Tables.Products == nil && opts.Tables.Locations == nil {
		opts.Tables = testTables
	}
	n := 0
	opts.NewID = func() string {
		n++
		return fmt.Sprintf("urn:uuid:test-%d", n)
	}
	return NewService(opts), &buf
}

// rec builds a record from alternating column/value pairs. The company
// prefix is always set.
func rec(kv ...string) schema.Record {
	r := schema.Record{"CompanyPrefix": testPrefix}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i]] = kv[i+1]
	}
	return r
}

func row(kv ...string) schema.Row {
	return schema.NewResolver().Row(rec(kv...))
}

func text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}
