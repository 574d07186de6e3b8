package core

import (
	"log/slog"

	"github.com/JonMunkholm/epcgen/internal/schema"
)

// ItemKeys names the fields describing one item of a row.
type ItemKeys struct {
	Material schema.Key
	Quantity schema.Key
	UOM      schema.Key
	Lot      schema.Key
}

var (
	PlainItem = ItemKeys{schema.Material, schema.Quantity, schema.UOM, schema.Lot}
	FromItem  = ItemKeys{schema.FromMaterial, schema.FromQuantity, schema.FromUOM, schema.FromLot}
	ToItem    = ItemKeys{schema.ToMaterial, schema.ToQuantity, schema.ToUOM, schema.ToLot}
)

// Item extracts the item described by keys. At most one of the results is
// non-nil: a row with a quantity yields a quantified item, a row without one
// an unquantified item, and a row without a material neither.
func (s *Service) Item(row schema.Row, keys ItemKeys, log *slog.Logger) (*QuantifiedItem, *UnquantifiedItem) {
	if !row.Has(keys.Material) {
		return nil, nil
	}
	material := row.String(keys.Material)

	prefix := row.String(schema.CompanyPrefix)
	epcID := s.ids.GTIN(prefix, material, row.String(keys.Lot))

	if qty := row.Get(keys.Quantity); qty.Valid {
		if !ToPgNumeric(qty.String).Valid {
			log.Warn("quantity is not numeric", "field", keys.Quantity.String(), "quantity", qty.String)
		}
		return &QuantifiedItem{
			EPC:      epcID,
			Quantity: qty.String,
			UOM:      row.Get(keys.UOM),
		}, nil
	}

	return nil, &UnquantifiedItem{EPC: epcID}
}
