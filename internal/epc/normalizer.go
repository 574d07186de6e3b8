package epc

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/epcgen/internal/logging"
	"github.com/JonMunkholm/epcgen/internal/metrics"
	"github.com/JonMunkholm/epcgen/internal/schema"
)

// Reference table names, as reported in logs and metrics.
const (
	TableProducts  = "products"
	TableLocations = "locations"
)

// Key and canonical code columns of the reference tables.
const (
	ColumnMaterial = "Material"
	ColumnLocation = "Location"
	ColumnGTIN     = "GTIN"
	ColumnGLN      = "GLN"
)

// Table is a reference table keyed by vendor code.
type Table map[string]schema.Record

// Tables holds the reference data used to resolve vendor codes.
type Tables struct {
	Products  Table
	Locations Table
}

// Normalizer turns vendor codes into identifier strings. A code missing
// from its reference table is logged and resolves to null; it never fails.
type Normalizer struct {
	Tables  Tables
	Logger  *slog.Logger
	Metrics *metrics.Registry
}

// GTIN resolves a product code (or URN) and optional lot to a class-level
// identifier.
func (n *Normalizer) GTIN(prefix, code, lot string) pgtype.Text {
	if code == "" {
		return pgtype.Text{}
	}
	if IsURN(code) {
		return valid(WithSuffix(code, lot))
	}

	product, ok := n.Tables.Products[code]
	if !ok {
		n.missing(TableProducts, code)
		return pgtype.Text{}
	}
	if gtin := product[ColumnGTIN]; gtin != "" {
		return valid(LGTIN(prefix, gtin, lot))
	}
	return valid(IFTLGTIN(prefix, code, lot))
}

// GLN resolves a location code (or URN) and optional extension to a
// location identifier.
func (n *Normalizer) GLN(prefix, code, ext string) pgtype.Text {
	if code == "" {
		return pgtype.Text{}
	}
	if IsURN(code) {
		return valid(WithSuffix(code, ext))
	}

	location, ok := n.Tables.Locations[code]
	if !ok {
		n.missing(TableLocations, code)
		return pgtype.Text{}
	}
	if gln := location[ColumnGLN]; gln != "" {
		return valid(SGLN(prefix, gln, ext))
	}
	return valid(IFTSGLN(prefix, code, ext))
}

// PurchaseOrder returns the purchase order identifier, or null without a PO.
func PurchaseOrder(prefix, po string) pgtype.Text {
	if po == "" {
		return pgtype.Text{}
	}
	return valid(BusinessTransaction(prefix, po))
}

// DespatchAdvice returns the despatch advice identifier. Both the purchase
// order and the despatch number are required.
func DespatchAdvice(prefix, po, da string) pgtype.Text {
	if po == "" || da == "" {
		return pgtype.Text{}
	}
	return valid(DespatchAdviceURN(prefix, po, da))
}

// ProductionOrder returns the production order identifier, or null.
func ProductionOrder(prefix, prod string) pgtype.Text {
	if prod == "" {
		return pgtype.Text{}
	}
	return valid(BusinessTransaction(prefix, prod))
}

// SSCC returns the shipment container identifier, or null without a code.
func SSCC(prefix, sscc string) pgtype.Text {
	if sscc == "" {
		return pgtype.Text{}
	}
	return valid(SSCCURN(prefix, sscc))
}

func (n *Normalizer) missing(table, code string) {
	logging.OrDefault(n.Logger).Warn("code not found in reference table", "table", table, "code", code)
	n.Metrics.MissingReference(table)
}

// valid wraps s, treating "" as null.
func valid(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
