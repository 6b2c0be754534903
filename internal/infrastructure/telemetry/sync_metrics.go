package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics records order and stock synchronisation outcomes.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	ordersTotal     *Counter
	orderDuration   *Histogram
	entitiesCreated *Counter
	stockUpdated    *Counter
	stockSkipped    *Counter
}

// NewSyncMetrics registers the bridge instruments on meter.
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	ordersTotal, err := NewCounter(meter, "bridge_orders_synced_total", "Storefront orders processed by outcome", "{order}")
	if err != nil {
		return nil, err
	}
	orderDuration, err := NewHistogram(meter, "bridge_order_sync_duration_seconds", "Order sync latency", "s",
		0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30)
	if err != nil {
		return nil, err
	}
	entitiesCreated, err := NewCounter(meter, "bridge_erp_records_created_total", "ERP records created by model", "{record}")
	if err != nil {
		return nil, err
	}
	stockUpdated, err := NewCounter(meter, "bridge_stock_updates_total", "Storefront products whose stock was pushed", "{product}")
	if err != nil {
		return nil, err
	}
	stockSkipped, err := NewCounter(meter, "bridge_stock_skipped_total", "ERP products without a storefront match", "{product}")
	if err != nil {
		return nil, err
	}
	return &SyncMetrics{
		ordersTotal:     ordersTotal,
		orderDuration:   orderDuration,
		entitiesCreated: entitiesCreated,
		stockUpdated:    stockUpdated,
		stockSkipped:    stockSkipped,
	}, nil
}

// RecordOrder counts one processed order.
func (m *SyncMetrics) RecordOrder(ctx context.Context, status string, d time.Duration) {
	if m == nil {
		return
	}
	attr := attribute.String("status", status)
	m.ordersTotal.Inc(ctx, attr)
	m.orderDuration.RecordDuration(ctx, d, attr)
}

// EntityCreated counts one ERP record created for model.
func (m *SyncMetrics) EntityCreated(ctx context.Context, model string) {
	if m == nil {
		return
	}
	m.entitiesCreated.Inc(ctx, attribute.String("model", model))
}

// StockUpdated counts n storefront stock writes.
func (m *SyncMetrics) StockUpdated(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.stockUpdated.Add(ctx, int64(n))
}

// StockSkipped counts n ERP products without a storefront match.
func (m *SyncMetrics) StockSkipped(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.stockSkipped.Add(ctx, int64(n))
}
