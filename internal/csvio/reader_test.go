package csvio

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/epcgen/internal/schema"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// ----------------------------------------------------------------------------
// ReadRecords Tests
// ----------------------------------------------------------------------------

func TestReadRecords(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []schema.Record
	}{
		{
			name:  "plain",
			input: []byte("Material,Quantity\nM1,10\nM2,\n"),
			want: []schema.Record{
				{"Material": "M1", "Quantity": "10"},
				{"Material": "M2", "Quantity": ""},
			},
		},
		{
			name:  "byte order mark stripped from first label",
			input: append(append([]byte{}, bom...), []byte("Material,Quantity\nM1,10\n")...),
			want:  []schema.Record{{"Material": "M1", "Quantity": "10"}},
		},
		{
			name:  "header labels trimmed",
			input: []byte(" Material , Quantity\nM1,10\n"),
			want:  []schema.Record{{"Material": "M1", "Quantity": "10"}},
		},
		{
			name:  "short rows leave columns absent",
			input: []byte("Material,Quantity,UOM\nM1\n"),
			want:  []schema.Record{{"Material": "M1"}},
		},
		{
			name:  "extra cells ignored",
			input: []byte("Material\nM1,surplus\n"),
			want:  []schema.Record{{"Material": "M1"}},
		},
		{
			name:  "quoted cells with commas and stray quotes",
			input: []byte("Material,Location\n\"M1, red\",PL\"ANT\n"),
			want:  []schema.Record{{"Material": "M1, red", "Location": "PL\"ANT"}},
		},
		{
			name:  "duplicate header keeps first column",
			input: []byte("Lot,Lot\nA,B\n"),
			want:  []schema.Record{{"Lot": "A"}},
		},
		{
			name:  "header only",
			input: []byte("Material,Quantity\n"),
			want:  nil,
		},
		{
			name:  "invalid UTF-8 replaced",
			input: []byte{'M', '\n', 'h', 'e', 0x80, 'l', 'o', '\n'},
			want:  []schema.Record{{"M": "he�lo"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rd Reader
			got, err := rd.ReadRecords(bytes.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadRecords_NoHeader(t *testing.T) {
	var rd Reader

	_, err := rd.ReadRecords(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = rd.ReadRecords(bytes.NewReader(bom))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadRecords_Windows1252(t *testing.T) {
	enc, err := Encoding("windows-1252")
	require.NoError(t, err)

	rd := Reader{Encoding: enc}
	got, err := rd.ReadRecords(bytes.NewReader([]byte("Location\nCaf\xe9\n")))
	require.NoError(t, err)
	assert.Equal(t, []schema.Record{{"Location": "Café"}}, got)

	// A byte order mark overrides the configured encoding.
	got, err = rd.ReadRecords(bytes.NewReader(append(append([]byte{}, bom...), []byte("Location\nCafé\n")...)))
	require.NoError(t, err)
	assert.Equal(t, []schema.Record{{"Location": "Café"}}, got)
}

func TestEncoding(t *testing.T) {
	for _, name := range []string{"", "utf-8", "UTF8", "latin1", "windows-1252"} {
		_, err := Encoding(name)
		assert.NoError(t, err, name)
	}

	_, err := Encoding("klingon")
	assert.Error(t, err)
}

// ----------------------------------------------------------------------------
// ReadFile / LoadTable Tests
// ----------------------------------------------------------------------------

func TestReadFile(t *testing.T) {
	path := writeFile(t, "events.csv", []byte("Material,Date\nM1,1/15/24\n"))

	var rd Reader
	got, err := rd.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []schema.Record{{"Material": "M1", "Date": "1/15/24"}}, got)
}

func TestReadFile_Errors(t *testing.T) {
	var rd Reader

	_, err := rd.ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := writeFile(t, "empty.csv", nil)
	_, err = rd.ReadFile(empty)
	assert.ErrorIs(t, err, ErrNoHeader)
	assert.Contains(t, err.Error(), empty)
}

func TestLoadTable(t *testing.T) {
	path := writeFile(t, "products.csv", []byte(
		"Material,GTIN,Description\n"+
			"M1, 00614141123452 ,Flour\n"+
			",00614141000000,orphan\n"+
			"M2,,Sugar\n"+
			"M1,00614141999996,Flour v2\n",
	))

	var buf bytes.Buffer
	rd := Reader{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	table, err := rd.LoadTable(path, "Material")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "reference row has no key, skipping")
	assert.Contains(t, buf.String(), "row=3", "rows are numbered as in the sheet")
	assert.Contains(t, buf.String(), "row=5")

	require.Len(t, table, 2)
	assert.Equal(t, "00614141999996", table["M1"]["GTIN"], "last duplicate wins")
	assert.Equal(t, "", table["M2"]["GTIN"])
	assert.Equal(t, "Sugar", table["M2"]["Description"])
}

func TestLoadTable_TrimsValues(t *testing.T) {
	path := writeFile(t, "locations.csv", []byte("Location,GLN\n PLANT , 0614141000005 \n"))

	var rd Reader
	table, err := rd.LoadTable(path, "Location")
	require.NoError(t, err)
	assert.Equal(t, "0614141000005", table["PLANT"]["GLN"])
}

func TestLoadTable_MissingKeyColumn(t *testing.T) {
	path := writeFile(t, "locations.csv", []byte("Site,GLN\nPLANT,0614141000005\n"))

	var rd Reader
	_, err := rd.LoadTable(path, "Location")
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadTable_HeaderOnly(t *testing.T) {
	path := writeFile(t, "locations.csv", []byte("Location,GLN\n"))

	var rd Reader
	table, err := rd.LoadTable(path, "Location")
	require.NoError(t, err)
	assert.Empty(t, table)
}
