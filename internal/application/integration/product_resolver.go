package integration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/bridge/internal/domain/integration"
	"github.com/erp/bridge/internal/infrastructure/telemetry"
)

// StorableProductType is the stock-type value that makes the ERP track
// inventory for a product.
const StorableProductType = "product"

// stockTypeFields are the candidate stock-type field names, most preferred
// first. Which one exists depends on the ERP version.
var stockTypeFields = []string{"type", "detailed_type"}

// StockTypeProbe detects which product.template field carries the stock type.
type StockTypeProbe struct {
	erp integration.ERP
}

// NewStockTypeProbe creates a StockTypeProbe.
func NewStockTypeProbe(erp integration.ERP) *StockTypeProbe {
	return &StockTypeProbe{erp: erp}
}

// Detect returns the stock-type field name, or ok=false when the ERP exposes
// neither candidate.
func (p *StockTypeProbe) Detect(ctx context.Context) (field string, ok bool, err error) {
	fields, err := p.erp.FieldsGet(ctx, integration.ModelProductTemplate, stockTypeFields)
	if err != nil {
		return "", false, err
	}
	for _, name := range stockTypeFields {
		if _, found := fields[name]; found {
			return name, true, nil
		}
	}
	return "", false, nil
}

// ProductResolver finds or creates the ERP product variant for an order line.
type ProductResolver struct {
	erp     integration.ERP
	probe   *StockTypeProbe
	metrics *telemetry.SyncMetrics
	logger  *zap.Logger
}

// NewProductResolver creates a ProductResolver. metrics may be nil.
func NewProductResolver(erp integration.ERP, metrics *telemetry.SyncMetrics, logger *zap.Logger) *ProductResolver {
	return &ProductResolver{
		erp:     erp,
		probe:   NewStockTypeProbe(erp),
		metrics: metrics,
		logger:  logger,
	}
}

// EnsureProduct returns the product variant id for line. It looks the sku up
// by internal reference, then by barcode, and creates a sellable template
// when both miss.
func (r *ProductResolver) EnsureProduct(ctx context.Context, line integration.LineItem) (int64, error) {
	fields := integration.MapSaleLine(line)
	sku := fields.SKU

	id, found, err := r.findVariant(ctx, "default_code", sku)
	if err != nil || found {
		return id, err
	}
	id, found, err = r.findVariant(ctx, "barcode", sku)
	if err != nil || found {
		return id, err
	}

	name := fields.Name
	if name == "" {
		name = fmt.Sprintf("Woo product %s", sku)
	}
	templateID, err := r.erp.Create(ctx, integration.ModelProductTemplate, integration.Values{
		"name":         name,
		"default_code": sku,
		"list_price":   fields.UnitPriceFloat(),
		"sale_ok":      true,
		"purchase_ok":  false,
	})
	if err != nil {
		return 0, fmt.Errorf("create product template: %w", err)
	}
	r.metrics.EntityCreated(ctx, integration.ModelProductTemplate)

	r.markStorable(ctx, templateID)

	variantID, err := r.variantOf(ctx, templateID)
	if err != nil {
		return 0, err
	}
	r.logger.Info("Created ERP product",
		zap.String("sku", sku),
		zap.Int64("template_id", templateID),
		zap.Int64("product_id", variantID),
	)
	return variantID, nil
}

func (r *ProductResolver) findVariant(ctx context.Context, field, sku string) (int64, bool, error) {
	ids, err := r.erp.Search(ctx, integration.ModelProduct, integration.Domain{integration.Eq(field, sku)}, 1)
	if err != nil {
		return 0, false, fmt.Errorf("search product by %s: %w", field, err)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// markStorable switches a new template to a stocked product when the ERP
// supports it. Failures are logged and ignored.
func (r *ProductResolver) markStorable(ctx context.Context, templateID int64) {
	field, ok, err := r.probe.Detect(ctx)
	if err != nil {
		r.logger.Warn("Stock type probe failed",
			zap.Int64("template_id", templateID),
			zap.Error(err),
		)
		return
	}
	if !ok {
		return
	}
	err = r.erp.Write(ctx, integration.ModelProductTemplate, []int64{templateID}, integration.Values{
		field: StorableProductType,
	})
	if err != nil {
		r.logger.Warn("Failed to set product stock type",
			zap.Int64("template_id", templateID),
			zap.String("field", field),
			zap.Error(err),
		)
	}
}

func (r *ProductResolver) variantOf(ctx context.Context, templateID int64) (int64, error) {
	records, err := r.erp.Read(ctx, integration.ModelProductTemplate, []int64{templateID}, []string{"product_variant_id"})
	if err != nil {
		return 0, fmt.Errorf("read product template: %w", err)
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("%w: template %d", integration.ErrProductVariantNotFound, templateID)
	}
	id, ok := records[0].Many2OneID("product_variant_id")
	if !ok {
		return 0, fmt.Errorf("%w: template %d", integration.ErrProductVariantNotFound, templateID)
	}
	return id, nil
}
