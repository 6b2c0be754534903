package integration

import "github.com/shopspring/decimal"

var (
	defaultQuantity  = decimal.NewFromInt(1)
	defaultUnitPrice = decimal.Zero
)

// SaleLineFields are the normalized values of one order line.
type SaleLineFields struct {
	Name      string
	SKU       string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// QuantityFloat returns the quantity as sent on the RPC wire.
func (f SaleLineFields) QuantityFloat() float64 {
	return f.Quantity.InexactFloat64()
}

// UnitPriceFloat returns the unit price as sent on the RPC wire.
func (f SaleLineFields) UnitPriceFloat() float64 {
	return f.UnitPrice.InexactFloat64()
}

// MapSaleLine normalizes a line item. It never fails: quantity falls back to
// 1 and price to 0 when missing or unparsable.
func MapSaleLine(line LineItem) SaleLineFields {
	qty, ok := line.Quantity.Decimal()
	if !ok {
		qty = defaultQuantity
	}
	price, ok := line.Price.Decimal()
	if !ok {
		price = defaultUnitPrice
	}

	return SaleLineFields{
		Name:      line.Name,
		SKU:       LineSKU(line),
		Quantity:  qty,
		UnitPrice: price,
	}
}

// LineSKU returns the line's sku, or the storefront product id when the sku
// is empty. A line with neither maps to "0".
func LineSKU(line LineItem) string {
	if line.SKU != "" {
		return line.SKU
	}
	if line.ProductID.IsZero() {
		return "0"
	}
	return line.ProductID.String()
}
