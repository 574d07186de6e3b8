package core

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/epcgen/internal/epc"
	"github.com/JonMunkholm/epcgen/internal/metrics"
	"github.com/JonMunkholm/epcgen/internal/schema"
)

// Direction tells whether a row feeds the input ("from") or output ("to")
// side of a transformation.
type Direction int

const (
	DirFrom Direction = iota
	DirTo
)

func (d Direction) String() string {
	if d == DirTo {
		return "to"
	}
	return "from"
}

type directionKeys struct {
	item        ItemKeys
	date        schema.Key
	clock       schema.Key
	location    schema.Key
	locationExt schema.Key
}

func (d Direction) keys() directionKeys {
	if d == DirTo {
		return directionKeys{ToItem, schema.ToDate, schema.ToTime, schema.ToLocation, schema.ToLocationExtension}
	}
	return directionKeys{FromItem, schema.FromDate, schema.FromTime, schema.FromLocation, schema.FromLocationExtension}
}

// Accumulator is the state of one group while its rows are folded in. The
// event time stays a timestamp until the group is finalized.
type Accumulator struct {
	ctx Context
	at  pgtype.Timestamp
}

// MergeGroup folds every "from" row, then every "to" row, into one context.
func (s *Service) MergeGroup(from, to []schema.Row, log *slog.Logger) Context {
	acc := Accumulator{ctx: Context{
		Kind:             TransformationEventKind,
		EventID:          s.newID(),
		TransformationID: s.newID(),
	}}

	for _, row := range from {
		acc = s.fold(acc, DirFrom, row, log)
	}
	for _, row := range to {
		acc = s.fold(acc, DirTo, row, log)
	}

	return s.finalize(acc, log)
}

// fold returns acc with row applied.
func (s *Service) fold(acc Accumulator, dir Direction, row schema.Row, log *slog.Logger) Accumulator {
	k := dir.keys()
	prefix := row.String(schema.CompanyPrefix)
	check := consistency{log: log, metrics: s.metrics}
	c := acc.ctx

	ts, err := ParseEventTime(row.String(k.date), row.String(k.clock))
	if err != nil {
		log.Warn("unparseable date/time in group row", "direction", dir.String(), "error", err)
	}
	acc.at = selectTime(acc.at, ts, s.policy)

	q, u := s.Item(row, k.item, log)
	loc := s.ids.GLN(prefix, row.String(k.location), row.String(k.locationExt))

	switch dir {
	case DirFrom:
		c.QuantifiedFromItems = appendItem(c.QuantifiedFromItems, q)
		c.UnquantifiedFromItems = appendItem(c.UnquantifiedFromItems, u)
		c.FromLocation = appendUnique(c.FromLocation, loc)
	case DirTo:
		c.QuantifiedToItems = appendItem(c.QuantifiedToItems, q)
		c.UnquantifiedToItems = appendItem(c.UnquantifiedToItems, u)
		c.ToLocation = appendUnique(c.ToLocation, loc)
	}

	po := row.String(schema.PurchaseOrder)
	bizLocation := s.ids.GLN(prefix, row.String(schema.Location), row.String(schema.LocationExtension))

	c.Location = check.value("Location", c.Location, bizLocation)
	c.TimeZone = check.value("TimeZone", c.TimeZone, row.Get(schema.TimeZone))
	c.ExpirationDate = earliestDate(c.ExpirationDate, row.Get(schema.ExpirationDate))
	c.SellByDate = earliestDate(c.SellByDate, row.Get(schema.SellByDate))
	c.BestBeforeDate = earliestDate(c.BestBeforeDate, row.Get(schema.BestBeforeDate))
	c.ReadPoint = check.value("ReadPoint", c.ReadPoint, row.Get(schema.ReadPoint))
	c.Disposition = check.value("Disposition", c.Disposition, row.Get(schema.Disposition))
	c.BizStep = check.value("BizStep", c.BizStep, row.Get(schema.BizStep))
	c.PurchaseOrder = check.value("PurchaseOrder", c.PurchaseOrder, epc.PurchaseOrder(prefix, po))
	c.DespatchAdvice = check.value("DespatchAdvice", c.DespatchAdvice,
		epc.DespatchAdvice(prefix, po, row.String(schema.DespatchAdvice)))
	c.ProductionOrder = check.value("ProductionOrder", c.ProductionOrder,
		epc.ProductionOrder(prefix, row.String(schema.ProductionOrder)))
	c.SSCC = check.value("SSCC", c.SSCC, epc.SSCC(row.String(schema.Shipper), row.String(schema.SSCC)))
	c.Shipper = check.value("Shipper", c.Shipper, row.Get(schema.Shipper))

	acc.ctx = c
	return acc
}

// finalize serializes the event time. The context is not changed afterwards.
func (s *Service) finalize(acc Accumulator, log *slog.Logger) Context {
	if !acc.at.Valid {
		log.Warn("no date/time supplied for event")
		s.metrics.MissingTimestamp()
	}
	c := acc.ctx
	c.EventTime = FormatEventTime(acc.at)
	return c
}

// consistency enforces that a field holds one value across a group.
type consistency struct {
	log     *slog.Logger
	metrics *metrics.Registry
}

// value returns old unless it is null. A non-null next that differs from a
// non-null old is logged as an inconsistency and discarded.
func (c consistency) value(field string, old, next pgtype.Text) pgtype.Text {
	if !old.Valid {
		return next
	}
	if next.Valid && next.String != old.String {
		c.log.Error("inconsistent values in group", "field", field, "kept", old.String, "discarded", next.String)
		c.metrics.Inconsistent(field)
	}
	return old
}

// selectTime folds next into cur: the first non-null timestamp wins, later
// ones are combined by policy.
func selectTime(cur, next pgtype.Timestamp, policy TimePolicy) pgtype.Timestamp {
	if !next.Valid {
		return cur
	}
	if !cur.Valid {
		return next
	}
	if policy == Latest {
		if next.Time.After(cur.Time) {
			return next
		}
		return cur
	}
	if next.Time.Before(cur.Time) {
		return next
	}
	return cur
}

// earliestDate returns the earlier of two dates, never replacing a value
// with null. Dates compare chronologically when both parse, else as text.
func earliestDate(cur, next pgtype.Text) pgtype.Text {
	if !next.Valid {
		return cur
	}
	if !cur.Valid {
		return next
	}

	a, b := ToPgDate(cur.String), ToPgDate(next.String)
	if a.Valid && b.Valid {
		if b.Time.Before(a.Time) {
			return next
		}
		return cur
	}
	if next.String < cur.String {
		return next
	}
	return cur
}

func appendItem[T any](items []T, item *T) []T {
	if item == nil {
		return items
	}
	return append(items, *item)
}

func appendUnique(set []string, t pgtype.Text) []string {
	if !t.Valid {
		return set
	}
	for _, v := range set {
		if v == t.String {
			return set
		}
	}
	return append(set, t.String)
}
