package integration

import "context"

// StorefrontProduct is the part of a storefront product the bridge reads.
type StorefrontProduct struct {
	ID            int64  `json:"id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	ManageStock   bool   `json:"manage_stock"`
	StockQuantity *int64 `json:"stock_quantity"`
}

// Storefront is the port to the storefront catalog API.
type Storefront interface {
	// FindProductsBySKU returns the products whose sku matches exactly.
	FindProductsBySKU(ctx context.Context, sku string) ([]StorefrontProduct, error)
	// UpdateProductStock enables stock management on the product and sets
	// its quantity.
	UpdateProductStock(ctx context.Context, productID int64, quantity int64) error
}

// StockSyncResult summarizes one stock push run.
type StockSyncResult struct {
	// Considered counts sellable ERP products read in the run.
	Considered int `json:"considered"`
	Updated    int `json:"updated"`
	// Skipped counts products without a storefront match.
	Skipped int `json:"skipped"`
}
