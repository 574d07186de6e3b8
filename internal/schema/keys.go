// Package schema defines the logical fields an event row can carry and
// resolves them out of raw spreadsheet records.
//
// Spreadsheets name their columns however they like. A Resolver maps each
// logical Key to a column label and an optional default value, so the rest
// of the program only ever deals with typed Rows.
package schema

import "fmt"

// Key identifies a logical field of an event row.
type Key int

const (
	Date Key = iota
	Time
	TimeZone
	CompanyPrefix

	Material
	Quantity
	UOM
	Lot

	FromMaterial
	FromQuantity
	FromUOM
	FromLot

	ToMaterial
	ToQuantity
	ToUOM
	ToLot

	FromDate
	FromTime
	ToDate
	ToTime

	Location
	LocationExtension
	FromLocation
	FromLocationExtension
	ToLocation
	ToLocationExtension

	ExpirationDate
	SellByDate
	BestBeforeDate

	ReadPoint
	Disposition
	BizStep

	PurchaseOrder
	DespatchAdvice
	ProductionOrder
	SSCC
	Shipper

	numKeys
)

// keyNames holds the configuration name of every Key. These are the names
// used in mapping files and in --set/--col overrides.
var keyNames = [numKeys]string{
	Date:                  "Date",
	Time:                  "Time",
	TimeZone:              "TimeZone",
	CompanyPrefix:         "CompanyPrefix",
	Material:              "Material",
	Quantity:              "Quantity",
	UOM:                   "UOM",
	Lot:                   "Lot",
	FromMaterial:          "FromMaterial",
	FromQuantity:          "FromQuantity",
	FromUOM:               "FromUOM",
	FromLot:               "FromLot",
	ToMaterial:            "ToMaterial",
	ToQuantity:            "ToQuantity",
	ToUOM:                 "ToUOM",
	ToLot:                 "ToLot",
	FromDate:              "FromDate",
	FromTime:              "FromTime",
	ToDate:                "ToDate",
	ToTime:                "ToTime",
	Location:              "Location",
	LocationExtension:     "LocationExtension",
	FromLocation:          "FromLocation",
	FromLocationExtension: "FromLocationExtension",
	ToLocation:            "ToLocation",
	ToLocationExtension:   "ToLocationExtension",
	ExpirationDate:        "ExpirationDate",
	SellByDate:            "SellByDate",
	BestBeforeDate:        "BestBeforeDate",
	ReadPoint:             "ReadPoint",
	Disposition:           "Disposition",
	BizStep:               "BizStep",
	PurchaseOrder:         "PurchaseOrder",
	DespatchAdvice:        "DespatchAdvice",
	ProductionOrder:       "ProductionOrder",
	SSCC:                  "SSCC",
	Shipper:               "Shipper",
}

var keysByName = func() map[string]Key {
	m := make(map[string]Key, numKeys)
	for k, name := range keyNames {
		m[name] = Key(k)
	}
	return m
}()

// String returns the configuration name of the key.
func (k Key) String() string {
	if k < 0 || k >= numKeys {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return keyNames[k]
}

// Valid reports whether k is one of the declared keys.
func (k Key) Valid() bool {
	return k >= 0 && k < numKeys
}

// ParseKey returns the Key with the given configuration name.
func ParseKey(name string) (Key, bool) {
	k, ok := keysByName[name]
	return k, ok
}
