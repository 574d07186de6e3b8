package core

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// QuantifiedItem is an item with a quantity and unit of measure.
type QuantifiedItem struct {
	EPC      pgtype.Text // class-level identifier; null if the material could not be resolved
	Quantity string
	UOM      pgtype.Text
}

// UnquantifiedItem is an item identified without a quantity.
type UnquantifiedItem struct {
	EPC pgtype.Text
}

// EventKind is the event a context renders as.
type EventKind int

const (
	ObjectEventKind EventKind = iota
	TransformationEventKind
)

func (k EventKind) String() string {
	if k == TransformationEventKind {
		return "transformation"
	}
	return "object"
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Context is one event ready for rendering. Null values are pgtype values
// with Valid=false.
//
// Simple events carry at most one entry in FromLocation and ToLocation;
// merged transformation events carry every distinct location of the group in
// first-seen order.
type Context struct {
	Kind             EventKind
	EventID          string
	TransformationID string
	EventTime        pgtype.Text
	TimeZone         pgtype.Text

	Location     pgtype.Text
	FromLocation []string
	ToLocation   []string

	QuantifiedItems       []QuantifiedItem
	UnquantifiedItems     []UnquantifiedItem
	QuantifiedFromItems   []QuantifiedItem
	UnquantifiedFromItems []UnquantifiedItem
	QuantifiedToItems     []QuantifiedItem
	UnquantifiedToItems   []UnquantifiedItem

	ExpirationDate pgtype.Text
	SellByDate     pgtype.Text
	BestBeforeDate pgtype.Text

	ReadPoint   pgtype.Text
	Disposition pgtype.Text
	BizStep     pgtype.Text

	PurchaseOrder   pgtype.Text
	DespatchAdvice  pgtype.Text
	ProductionOrder pgtype.Text
	SSCC            pgtype.Text
	Shipper         pgtype.Text
}

// IsTransformation reports whether the context renders as a transformation
// event. Merged groups always do, even without any items.
func (c Context) IsTransformation() bool {
	return c.Kind == TransformationEventKind
}

// hasFromTo reports whether the context carries from/to items.
func (c Context) hasFromTo() bool {
	return len(c.QuantifiedFromItems) > 0 || len(c.UnquantifiedFromItems) > 0 ||
		len(c.QuantifiedToItems) > 0 || len(c.UnquantifiedToItems) > 0
}

// TimePolicy selects which event time wins when a group has several.
type TimePolicy int

const (
	Earliest TimePolicy = iota
	Latest
)

func (p TimePolicy) String() string {
	if p == Latest {
		return "latest"
	}
	return "earliest"
}

// ParseTimePolicy parses "earliest" or "latest".
func ParseTimePolicy(s string) (TimePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "earliest", "min":
		return Earliest, nil
	case "latest", "max":
		return Latest, nil
	default:
		return Earliest, fmt.Errorf("invalid event time policy %q (want earliest or latest)", s)
	}
}
