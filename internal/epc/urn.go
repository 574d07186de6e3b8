// Package epc builds the URN identifiers used in traceability documents:
// GS1 EPC URNs (LGTIN, SGTIN class patterns, SSCC, SGLN), the IFT vendor
// forms used when no GS1 code is known, and CBV business transaction
// identifiers.
//
// No check digit or length validation is done; callers get back exactly the
// segments they supplied.
package epc

import (
	"fmt"
	"strings"
)

// IsURN reports whether code is already an identifier string.
func IsURN(code string) bool {
	return strings.HasPrefix(code, "urn")
}

// WithSuffix appends suffix as a new dot-separated segment when urn ends in
// exactly a company prefix and a reference ("p.ref"). A URN that is already
// qualified, or whose last part has no prefix at all, is returned as is, so
// applying WithSuffix to its own result changes nothing.
func WithSuffix(urn, suffix string) string {
	if suffix == "" {
		return urn
	}
	last := urn[strings.LastIndex(urn, ":")+1:]
	if strings.Count(last, ".") != 1 {
		return urn
	}
	return urn + "." + suffix
}

// LGTIN returns a GS1 class-level identifier for gtin and lot. Without a lot
// the whole GTIN class is addressed with an idpat pattern.
func LGTIN(prefix, gtin, lot string) string {
	if IsURN(gtin) {
		return WithSuffix(gtin, lot)
	}
	if lot == "" {
		return fmt.Sprintf("urn:epc:idpat:sgtin:%s.%s.*", prefix, gtin)
	}
	return fmt.Sprintf("urn:epc:class:lgtin:%s.%s.%s", prefix, gtin, lot)
}

// IFTLGTIN returns the IFT product class identifier for a vendor item code.
func IFTLGTIN(prefix, itemRef, lot string) string {
	if IsURN(itemRef) {
		return WithSuffix(itemRef, lot)
	}
	if lot == "" {
		return fmt.Sprintf("urn:ibm:ift:product:lot:class:%s.%s", prefix, itemRef)
	}
	return fmt.Sprintf("urn:ibm:ift:product:lot:class:%s.%s.%s", prefix, itemRef, lot)
}

// SSCCURN returns a GS1 logistic unit identifier.
func SSCCURN(prefix, serial string) string {
	if IsURN(serial) {
		return serial
	}
	return fmt.Sprintf("urn:epc:id:sscc:%s.%s", prefix, serial)
}

// SGLN returns a GS1 location identifier, or "" when prefix or reference is
// missing.
func SGLN(prefix, locRef, ext string) string {
	if IsURN(locRef) {
		return WithSuffix(locRef, ext)
	}
	if prefix == "" || locRef == "" {
		return ""
	}
	if ext == "" {
		return fmt.Sprintf("urn:epc:id:sgln:%s.%s", prefix, locRef)
	}
	return fmt.Sprintf("urn:epc:id:sgln:%s.%s.%s", prefix, locRef, ext)
}

// IFTSGLN returns the IFT location identifier, or "" when prefix or
// reference is missing.
func IFTSGLN(prefix, locRef, ext string) string {
	if IsURN(locRef) {
		return WithSuffix(locRef, ext)
	}
	if prefix == "" || locRef == "" {
		return ""
	}
	if ext == "" {
		return fmt.Sprintf("urn:ibm:ift:location:extension:loc:%s.%s", prefix, locRef)
	}
	return fmt.Sprintf("urn:ibm:ift:location:extension:loc:%s.%s.%s", prefix, locRef, ext)
}

// BusinessTransaction returns a CBV business transaction identifier.
func BusinessTransaction(prefix, ref string) string {
	return fmt.Sprintf("urn:epcglobal:cbv:bt:%s:%s", prefix, ref)
}

// DespatchAdviceURN returns the business transaction identifier of a
// despatch advice: the purchase order and despatch number joined by '-'.
func DespatchAdviceURN(prefix, po, da string) string {
	return BusinessTransaction(prefix, po+"-"+da)
}
