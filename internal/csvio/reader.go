// Package csvio reads spreadsheet exports into header-keyed records.
//
// Exports from Excel and friends are messy: a UTF-8 byte order mark in front
// of the first header, stray invalid bytes, Windows code pages, ragged rows
// and loosely quoted cells. Reader smooths all of that over so that callers
// only ever see clean schema.Records.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/epcgen/internal/epc"
	"github.com/JonMunkholm/epcgen/internal/logging"
	"github.com/JonMunkholm/epcgen/internal/schema"
)

// DefaultEncoding is assumed when no input encoding is configured.
const DefaultEncoding = "utf-8"

var (
	// ErrNoHeader is returned for input without a header row.
	ErrNoHeader = errors.New("csv has no header row")

	// ErrMissingColumn is returned when a reference table lacks its key column.
	ErrMissingColumn = errors.New("key column not found in header")
)

// Encoding looks up a character encoding by its WHATWG label ("utf-8",
// "windows-1252", "latin1", "shift_jis", ...). An empty name means UTF-8.
func Encoding(name string) (encoding.Encoding, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown input encoding %q: %w", name, err)
	}
	return enc, nil
}

// Reader turns CSV input into records. The zero value reads UTF-8.
type Reader struct {
	// Encoding of the input. A byte order mark at the start of the input
	// always wins over it. Nil means UTF-8.
	Encoding encoding.Encoding

	Logger *slog.Logger
}

// decode wraps r so that it yields clean UTF-8: a leading BOM is dropped and
// invalid sequences become U+FFFD.
func (rd *Reader) decode(r io.Reader) io.Reader {
	enc := rd.Encoding
	if enc == nil {
		enc = unicode.UTF8
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder()))
}

// newCSV returns a csv.Reader tolerant of ragged rows and stray quotes.
func (rd *Reader) newCSV(r io.Reader) *csv.Reader {
	cr := csv.NewReader(rd.decode(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// ReadRecords reads every data row of r as a record keyed by the header
// row. Header labels are trimmed. Cells missing from short rows are absent
// from the record, and cells beyond the header are ignored.
func (rd *Reader) ReadRecords(r io.Reader) ([]schema.Record, error) {
	log := logging.OrDefault(rd.Logger)
	cr := rd.newCSV(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	labels := trimHeader(header, log)

	var records []schema.Record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}

		if len(fields) > len(labels) {
			log.Debug("row has more cells than header, extra cells ignored",
				"row", schema.SheetRow(len(records)), "cells", len(fields), "columns", len(labels))
		}

		rec := make(schema.Record, len(labels))
		for i, label := range labels {
			if i >= len(fields) {
				break
			}
			if label == "" {
				continue
			}
			if _, dup := rec[label]; dup {
				continue
			}
			rec[label] = fields[i]
		}
		records = append(records, rec)
	}

	return records, nil
}

// ReadFile reads the records of the CSV file at path.
func (rd *Reader) ReadFile(path string) ([]schema.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	records, err := rd.ReadRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logging.OrDefault(rd.Logger).Info("read input file", "path", path, "rows", len(records))
	return records, nil
}

// LoadTable reads the CSV file at path as a reference table keyed by the
// value of keyColumn. Rows with a blank key are skipped; when a key repeats
// the last row wins.
func (rd *Reader) LoadTable(path, keyColumn string) (epc.Table, error) {
	log := logging.WithFields(logging.OrDefault(rd.Logger), "path", path, "key", keyColumn)

	records, err := rd.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(records) > 0 && !hasColumn(records, keyColumn) {
		return nil, fmt.Errorf("%s: %w: %q", path, ErrMissingColumn, keyColumn)
	}

	table := make(epc.Table, len(records))
	for i, rec := range records {
		key := strings.TrimSpace(rec[keyColumn])
		if key == "" {
			log.Warn("reference row has no key, skipping", "row", schema.SheetRow(i))
			continue
		}
		if _, dup := table[key]; dup {
			log.Warn("duplicate reference key, later row wins", "row", schema.SheetRow(i), "code", key)
		}
		table[key] = trimRecord(rec)
	}

	return table, nil
}

// trimHeader trims the header labels and warns about duplicates; the first
// column with a given label wins.
func trimHeader(header []string, log *slog.Logger) []string {
	labels := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		labels[i] = strings.TrimSpace(h)
		if labels[i] == "" {
			continue
		}
		if seen[labels[i]] {
			log.Warn("duplicate column in header, first one used", "column", labels[i], "index", i)
		}
		seen[labels[i]] = true
	}
	return labels
}

func hasColumn(records []schema.Record, column string) bool {
	for _, rec := range records {
		if _, ok := rec[column]; ok {
			return true
		}
	}
	return false
}

func trimRecord(rec schema.Record) schema.Record {
	for k, v := range rec {
		rec[k] = strings.TrimSpace(v)
	}
	return rec
}
