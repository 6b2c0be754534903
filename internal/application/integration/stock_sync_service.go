package integration

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/erp/bridge/internal/domain/integration"
	"github.com/erp/bridge/internal/infrastructure/telemetry"
)

// DefaultStockPageLimit is the number of sellable products read per run.
const DefaultStockPageLimit = 2000

var stockFields = []string{"id", "default_code", "qty_available"}

// StockSyncService pushes ERP on-hand quantities to the storefront.
type StockSyncService struct {
	erp        integration.ERP
	storefront integration.Storefront
	metrics    *telemetry.SyncMetrics
	logger     *zap.Logger
	pageLimit  int

	inflight singleflight.Group
}

// StockSyncServiceConfig contains the collaborators of StockSyncService
type StockSyncServiceConfig struct {
	ERP        integration.ERP
	Storefront integration.Storefront
	Metrics    *telemetry.SyncMetrics
	Logger     *zap.Logger
	PageLimit  int
}

// NewStockSyncService creates a new StockSyncService
func NewStockSyncService(cfg StockSyncServiceConfig) *StockSyncService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = DefaultStockPageLimit
	}
	return &StockSyncService{
		erp:        cfg.ERP,
		storefront: cfg.Storefront,
		metrics:    cfg.Metrics,
		logger:     logger,
		pageLimit:  limit,
	}
}

// SyncStock reads one page of sellable ERP products and sets the stock of
// the first storefront product with the same sku. Products without a match
// are skipped. A storefront error aborts the run. Overlapping calls share
// one run, which is detached from the cancellation of whichever caller
// started it.
func (s *StockSyncService) SyncStock(ctx context.Context) (*integration.StockSyncResult, error) {
	v, err, _ := s.inflight.Do("stock", func() (any, error) {
		return s.syncStock(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	result := *v.(*integration.StockSyncResult)
	return &result, nil
}

func (s *StockSyncService) syncStock(ctx context.Context) (*integration.StockSyncResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_sync", "sync_stock")
	defer span.End()
	start := time.Now()

	products, err := s.erp.SearchRead(ctx, integration.ModelProduct,
		integration.Domain{integration.Eq("sale_ok", true)}, stockFields, s.pageLimit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("read sellable products: %w", err)
	}

	result := &integration.StockSyncResult{Considered: len(products)}
	defer func() {
		s.metrics.StockUpdated(ctx, result.Updated)
		s.metrics.StockSkipped(ctx, result.Skipped)
		span.SetAttributes(
			attribute.Int("stock.considered", result.Considered),
			attribute.Int("stock.updated", result.Updated),
			attribute.Int("stock.skipped", result.Skipped),
		)
	}()

	for _, product := range products {
		sku := ProductSKU(product)

		matches, err := s.storefront.FindProductsBySKU(ctx, sku)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("find storefront product %q: %w", sku, err)
		}
		if len(matches) == 0 {
			result.Skipped++
			continue
		}

		qty := StockQuantity(product)
		if err := s.storefront.UpdateProductStock(ctx, matches[0].ID, qty); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("update storefront stock %q: %w", sku, err)
		}
		result.Updated++
	}

	telemetry.SetOK(span)
	s.logger.Info("Stock sync completed",
		zap.Int("considered", result.Considered),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// ProductSKU is the storefront sku of an ERP product: its internal
// reference, or its id when the reference is empty.
func ProductSKU(product integration.Record) string {
	if code := product.String("default_code"); code != "" {
		return code
	}
	return strconv.FormatInt(product.ID(), 10)
}

// StockQuantity truncates the on-hand quantity toward zero.
func StockQuantity(product integration.Record) int64 {
	return decimal.NewFromFloat(product.Float("qty_available")).Truncate(0).IntPart()
}
