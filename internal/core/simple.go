package core

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/epcgen/internal/epc"
	"github.com/JonMunkholm/epcgen/internal/schema"
)

// SimpleContext builds the context of a single row. A row carrying from/to
// items becomes a transformation event.
// Nothing is shared with other rows.
func (s *Service) SimpleContext(row schema.Row, log *slog.Logger) Context {
	prefix := row.String(schema.CompanyPrefix)

	ts := s.eventTime(row, schema.Date, schema.Time, log)

	qItem, uItem := s.Item(row, PlainItem, log)
	qFrom, uFrom := s.Item(row, FromItem, log)
	qTo, uTo := s.Item(row, ToItem, log)

	po := row.String(schema.PurchaseOrder)

	c := Context{
		EventID:          s.newID(),
		TransformationID: s.newID(),
		EventTime:        FormatEventTime(ts),
		TimeZone:         row.Get(schema.TimeZone),

		Location:     s.ids.GLN(prefix, row.String(schema.Location), row.String(schema.LocationExtension)),
		FromLocation: single(s.ids.GLN(prefix, row.String(schema.FromLocation), row.String(schema.FromLocationExtension))),
		ToLocation:   single(s.ids.GLN(prefix, row.String(schema.ToLocation), row.String(schema.ToLocationExtension))),

		QuantifiedItems:       one(qItem),
		UnquantifiedItems:     one(uItem),
		QuantifiedFromItems:   one(qFrom),
		UnquantifiedFromItems: one(uFrom),
		QuantifiedToItems:     one(qTo),
		UnquantifiedToItems:   one(uTo),

		ExpirationDate: row.Get(schema.ExpirationDate),
		SellByDate:     row.Get(schema.SellByDate),
		BestBeforeDate: row.Get(schema.BestBeforeDate),

		ReadPoint:   row.Get(schema.ReadPoint),
		Disposition: row.Get(schema.Disposition),
		BizStep:     row.Get(schema.BizStep),

		PurchaseOrder:   epc.PurchaseOrder(prefix, po),
		DespatchAdvice:  epc.DespatchAdvice(prefix, po, row.String(schema.DespatchAdvice)),
		ProductionOrder: epc.ProductionOrder(prefix, row.String(schema.ProductionOrder)),
		SSCC:            epc.SSCC(row.String(schema.Shipper), row.String(schema.SSCC)),
		Shipper:         row.Get(schema.Shipper),
	}
	if c.hasFromTo() {
		c.Kind = TransformationEventKind
	}
	return c
}

// eventTime resolves the timestamp held in the date and clock fields of row,
// logging when there is none.
func (s *Service) eventTime(row schema.Row, dateKey, clockKey schema.Key, log *slog.Logger) pgtype.Timestamp {
	ts, err := ParseEventTime(row.String(dateKey), row.String(clockKey))
	if err != nil {
		log.Warn("unparseable date/time for event", "date_field", dateKey.String(), "error", err)
	} else if !ts.Valid {
		log.Warn("no date/time supplied for event", "date_field", dateKey.String())
	}
	if !ts.Valid {
		s.metrics.MissingTimestamp()
	}
	return ts
}

func one[T any](v *T) []T {
	if v == nil {
		return nil
	}
	return []T{*v}
}

func single(t pgtype.Text) []string {
	if !t.Valid {
		return nil
	}
	return []string{t.String}
}
