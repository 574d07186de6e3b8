package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/epcgen/internal/logging"
	"github.com/JonMunkholm/epcgen/internal/schema"
)

var (
	// ErrUnknownKey is reported for a logical field name that does not exist.
	ErrUnknownKey = errors.New("unknown field key")

	// ErrBadOverride is reported for an override not of the form key=value.
	ErrBadOverride = errors.New("override must be key=value")
)

// Mapping is the content of the mapping file. Both maps are keyed by
// logical field name (e.g. "Material", "PurchaseOrder").
//
// ColumnLabels renames the CSV column a field is read from. DefaultValues
// supplies a value when the column is absent or blank.
type Mapping struct {
	ColumnLabels  map[string]string `json:"ColumnLabels" yaml:"ColumnLabels"`
	DefaultValues map[string]string `json:"DefaultValues" yaml:"DefaultValues"`
}

// LoadMapping reads a mapping file: YAML for .yaml and .yml files, JSON
// otherwise.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	m := &Mapping{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, m)
	default:
		err = json.Unmarshal(data, m)
	}
	if err != nil {
		return nil, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	return m, nil
}

// Resolver builds a field resolver from the mapping. Entries naming an
// unknown field are logged and skipped.
func (m *Mapping) Resolver(log *slog.Logger) *schema.Resolver {
	log = logging.OrDefault(log)
	r := schema.NewResolver()
	if m == nil {
		return r
	}

	for _, name := range sortedKeys(m.ColumnLabels) {
		if k, ok := lookup(name, "ColumnLabels", log); ok {
			r.Labels[k] = m.ColumnLabels[name]
		}
	}
	for _, name := range sortedKeys(m.DefaultValues) {
		if k, ok := lookup(name, "DefaultValues", log); ok {
			r.Defaults[k] = m.DefaultValues[name]
		}
	}
	return r
}

func lookup(name, section string, log *slog.Logger) (schema.Key, bool) {
	k, ok := schema.ParseKey(name)
	if !ok {
		log.Warn("ignoring mapping entry", "section", section, "key", name, "error", ErrUnknownKey)
	}
	return k, ok
}

// ParseOverride splits a key=value override. The key must name a field.
func ParseOverride(s string) (schema.Key, string, error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return 0, "", fmt.Errorf("%w: %q", ErrBadOverride, s)
	}
	k, known := schema.ParseKey(name)
	if !known {
		return 0, "", fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	return k, strings.TrimSpace(value), nil
}

// Overrides are command-line replacements for mapping entries.
type Overrides struct {
	Columns  []string // key=label
	Defaults []string // key=value
}

// Apply writes the overrides into r, replacing mapping entries. Malformed
// or unknown overrides are logged and ignored.
func (o Overrides) Apply(r *schema.Resolver, log *slog.Logger) {
	log = logging.OrDefault(log)

	for _, s := range o.Columns {
		k, label, err := ParseOverride(s)
		if err != nil {
			log.Warn("ignoring column override", "override", s, "error", err)
			continue
		}
		r.Labels[k] = label
	}
	for _, s := range o.Defaults {
		k, value, err := ParseOverride(s)
		if err != nil {
			log.Warn("ignoring default override", "override", s, "error", err)
			continue
		}
		r.Defaults[k] = value
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
