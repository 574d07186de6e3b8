// Package render turns event contexts into output documents.
//
// Every renderer is a templ.Component, so callers write any format the same
// way: build the component, then Render it into a writer.
//
//   - Document: the built-in EPCIS 1.2 XML document
//   - Template: a user-supplied text/template file
//   - JSON: the contexts as a JSON array
package render

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/epcgen/internal/core"
)

// Business transaction and source/destination types of the CBV.
const (
	btPurchaseOrder  = "urn:epcglobal:cbv:btt:po"
	btDespatchAdvice = "urn:epcglobal:cbv:btt:desadv"
	btProduction     = "urn:epcglobal:cbv:btt:prodorder"
	sdtLocation      = "urn:epcglobal:cbv:sdt:location"
	sdtOwningParty   = "urn:epcglobal:cbv:sdt:owning_party"
)

// DefaultTimeZone is written for events without a time zone offset.
const DefaultTimeZone = "+00:00"

// Document renders contexts as an EPCIS 1.2 document. Contexts carrying
// from/to data become TransformationEvents, all others ObjectEvents.
func Document(created time.Time, contexts []core.Context) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		x := &xmlWriter{w: w}
		x.raw(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
		x.open("epcis:EPCISDocument",
			"xmlns:epcis", "urn:epcglobal:epcis:xsd:1",
			"xmlns:cbvmda", "urn:epcglobal:cbv:mda",
			"schemaVersion", "1.2",
			"creationDate", created.UTC().Format(core.EventTimeLayout))
		x.open("EPCISBody")
		x.open("EventList")
		if x.err != nil {
			return x.err
		}

		for _, c := range contexts {
			event := ObjectEvent(c)
			if c.IsTransformation() {
				event = TransformationEvent(c)
			}
			if err := event.Render(ctx, w); err != nil {
				return fmt.Errorf("render event %s: %w", c.EventID, err)
			}
		}

		x.close("EventList")
		x.close("EPCISBody")
		x.close("epcis:EPCISDocument")
		return x.err
	})
}

// ObjectEvent renders a simple context.
func ObjectEvent(c core.Context) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		x := &xmlWriter{w: w, depth: 3}
		x.open("ObjectEvent")
		eventHeader(x, c)

		x.open("epcList")
		x.leaf("epc", c.SSCC)
		x.close("epcList")
		x.text("action", "OBSERVE")

		eventWhy(x, c)

		x.open("extension")
		quantityList(x, "quantityList", c.QuantifiedItems, c.UnquantifiedItems)
		sourceDestination(x, c)
		x.close("extension")

		x.close("ObjectEvent")
		return x.err
	})
}

// TransformationEvent renders a merged context. EPCIS 1.2 places it inside
// an extension element of the event list.
func TransformationEvent(c core.Context) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		x := &xmlWriter{w: w, depth: 3}
		x.open("extension")
		x.open("TransformationEvent")
		eventHeader(x, c)

		quantityList(x, "inputQuantityList", c.QuantifiedFromItems, c.UnquantifiedFromItems)
		quantityList(x, "outputQuantityList", c.QuantifiedToItems, c.UnquantifiedToItems)
		x.text("transformationID", c.TransformationID)

		eventWhy(x, c)
		sourceDestination(x, c)

		x.close("TransformationEvent")
		x.close("extension")
		return x.err
	})
}

func eventHeader(x *xmlWriter, c core.Context) {
	x.leaf("eventTime", c.EventTime)
	tz := DefaultTimeZone
	if c.TimeZone.Valid {
		tz = c.TimeZone.String
	}
	x.text("eventTimeZoneOffset", tz)
	x.open("baseExtension")
	x.text("eventID", c.EventID)
	x.close("baseExtension")
}

// eventWhy writes the business context: step, disposition, read point,
// location, transactions and instance master data.
func eventWhy(x *xmlWriter, c core.Context) {
	x.leaf("bizStep", c.BizStep)
	x.leaf("disposition", c.Disposition)
	if c.ReadPoint.Valid {
		x.open("readPoint")
		x.leaf("id", c.ReadPoint)
		x.close("readPoint")
	}
	if c.Location.Valid {
		x.open("bizLocation")
		x.leaf("id", c.Location)
		x.close("bizLocation")
	}

	if c.PurchaseOrder.Valid || c.DespatchAdvice.Valid || c.ProductionOrder.Valid {
		x.open("bizTransactionList")
		x.leaf("bizTransaction", c.PurchaseOrder, "type", btPurchaseOrder)
		x.leaf("bizTransaction", c.DespatchAdvice, "type", btDespatchAdvice)
		x.leaf("bizTransaction", c.ProductionOrder, "type", btProduction)
		x.close("bizTransactionList")
	}

	if c.ExpirationDate.Valid || c.SellByDate.Valid || c.BestBeforeDate.Valid {
		x.open("ilmd")
		x.leaf("cbvmda:itemExpirationDate", c.ExpirationDate)
		x.leaf("cbvmda:sellByDate", c.SellByDate)
		x.leaf("cbvmda:bestBeforeDate", c.BestBeforeDate)
		x.close("ilmd")
	}
}

func quantityList(x *xmlWriter, tag string, quantified []core.QuantifiedItem, unquantified []core.UnquantifiedItem) {
	if len(quantified) == 0 && len(unquantified) == 0 {
		return
	}
	x.open(tag)
	for _, item := range quantified {
		x.open("quantityElement")
		x.leaf("epcClass", item.EPC)
		x.text("quantity", item.Quantity)
		x.leaf("uom", item.UOM)
		x.close("quantityElement")
	}
	for _, item := range unquantified {
		x.open("quantityElement")
		x.leaf("epcClass", item.EPC)
		x.close("quantityElement")
	}
	x.close(tag)
}

func sourceDestination(x *xmlWriter, c core.Context) {
	if len(c.FromLocation) > 0 || c.Shipper.Valid {
		x.open("sourceList")
		x.leaf("source", c.Shipper, "type", sdtOwningParty)
		for _, loc := range c.FromLocation {
			x.text("source", loc, "type", sdtLocation)
		}
		x.close("sourceList")
	}
	if len(c.ToLocation) > 0 {
		x.open("destinationList")
		for _, loc := range c.ToLocation {
			x.text("destination", loc, "type", sdtLocation)
		}
		x.close("destinationList")
	}
}

// xmlWriter writes indented XML. The first write error sticks and turns
// every later call into a no-op.
type xmlWriter struct {
	w     io.Writer
	depth int
	err   error
}

func (x *xmlWriter) raw(s string) {
	if x.err != nil {
		return
	}
	_, x.err = io.WriteString(x.w, s)
}

func (x *xmlWriter) indent() {
	for i := 0; i < x.depth; i++ {
		x.raw("  ")
	}
}

func (x *xmlWriter) start(tag string, attrs []string) {
	x.indent()
	x.raw("<" + tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		x.raw(" " + attrs[i] + `="` + templ.EscapeString(attrs[i+1]) + `"`)
	}
	x.raw(">")
}

func (x *xmlWriter) open(tag string, attrs ...string) {
	x.start(tag, attrs)
	x.raw("\n")
	x.depth++
}

func (x *xmlWriter) close(tag string) {
	x.depth--
	x.indent()
	x.raw("</" + tag + ">\n")
}

// text writes a leaf element; an empty value writes nothing.
func (x *xmlWriter) text(tag, value string, attrs ...string) {
	if value == "" {
		return
	}
	x.start(tag, attrs)
	x.raw(templ.EscapeString(value) + "</" + tag + ">\n")
}

// leaf writes a leaf element for a non-null value.
func (x *xmlWriter) leaf(tag string, value pgtype.Text, attrs ...string) {
	if !value.Valid {
		return
	}
	x.text(tag, value.String, attrs...)
}
