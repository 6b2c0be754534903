package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/erp/bridge/internal/domain/integration"
	"github.com/erp/bridge/internal/domain/shared"
	"github.com/erp/bridge/internal/infrastructure/telemetry"
)

// DefaultReservationTTL bounds how long an external reference stays reserved
// after a successful sync.
const DefaultReservationTTL = 15 * time.Minute

// OrderSyncService turns storefront orders into confirmed ERP sale orders.
// Calls are idempotent per external reference.
type OrderSyncService struct {
	erp            integration.ERP
	partners       *PartnerResolver
	products       *ProductResolver
	reservations   shared.IdempotencyStore
	records        integration.OrderSyncRecordRepository
	metrics        *telemetry.SyncMetrics
	logger         *zap.Logger
	autoConfirm    bool
	reservationTTL time.Duration

	inflight singleflight.Group
}

// OrderSyncServiceConfig contains the collaborators of OrderSyncService.
// Reservations, Records and Metrics are optional.
type OrderSyncServiceConfig struct {
	ERP             integration.ERP
	Reservations    shared.IdempotencyStore
	Records         integration.OrderSyncRecordRepository
	Metrics         *telemetry.SyncMetrics
	Logger          *zap.Logger
	AutoConfirmSale bool
	ReservationTTL  time.Duration
}

// NewOrderSyncService creates a new OrderSyncService
func NewOrderSyncService(cfg OrderSyncServiceConfig) *OrderSyncService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.ReservationTTL
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	return &OrderSyncService{
		erp:            cfg.ERP,
		partners:       NewPartnerResolver(cfg.ERP, cfg.Metrics, logger),
		products:       NewProductResolver(cfg.ERP, cfg.Metrics, logger),
		reservations:   cfg.Reservations,
		records:        cfg.Records,
		metrics:        cfg.Metrics,
		logger:         logger,
		autoConfirm:    cfg.AutoConfirmSale,
		reservationTTL: ttl,
	}
}

// CreateOrder returns the ERP sale order for order, creating it when no sale
// order carries the order's external reference yet.
//
// The work runs detached from ctx cancellation so a dropped webhook
// connection never abandons a half-written order. Concurrent calls for the
// same reference share one execution.
func (s *OrderSyncService) CreateOrder(ctx context.Context, order *integration.OrderPayload) (int64, error) {
	if order == nil {
		return 0, integration.ErrOrderSyncInvalidOrder
	}
	if err := order.Validate(); err != nil {
		return 0, err
	}

	ctx = context.WithoutCancel(ctx)
	ref := order.ExternalRef()
	v, err, _ := s.inflight.Do(ref, func() (any, error) {
		return s.syncOrder(ctx, order)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (s *OrderSyncService) syncOrder(ctx context.Context, order *integration.OrderPayload) (int64, error) {
	ref := order.ExternalRef()
	ctx, span := telemetry.StartServiceSpan(ctx, "order_sync", "create_order",
		attribute.String("order.external_ref", ref),
		attribute.Int("order.line_count", len(order.LineItems)),
	)
	defer span.End()

	start := time.Now()
	record := integration.NewOrderSyncRecord(order)

	id, status, err := s.upsert(ctx, order)
	elapsed := time.Since(start)

	switch status {
	case integration.SyncStatusCreated:
		record.MarkCreated(id, elapsed)
	case integration.SyncStatusDuplicate:
		record.MarkDuplicate(id, elapsed)
	case integration.SyncStatusInProgress:
		record.MarkInProgress(elapsed)
	default:
		record.MarkFailed(err, elapsed)
	}
	s.metrics.RecordOrder(ctx, string(record.Status), elapsed)
	s.journal(ctx, record)

	if status == integration.SyncStatusInProgress {
		span.SetAttributes(attribute.String("order.sync_status", string(status)))
		s.logger.Warn("Order sync already in progress elsewhere",
			zap.String("external_ref", ref),
			zap.Duration("duration", elapsed),
		)
		return 0, err
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Order sync failed",
			zap.String("external_ref", ref),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return 0, err
	}

	span.SetAttributes(attribute.Int64("erp.sale_order_id", id))
	telemetry.SetOK(span)
	s.logger.Info("Order synced",
		zap.String("external_ref", ref),
		zap.Int64("sale_order_id", id),
		zap.String("status", string(status)),
		zap.Duration("duration", elapsed),
	)
	return id, nil
}

func (s *OrderSyncService) upsert(ctx context.Context, order *integration.OrderPayload) (int64, integration.SyncStatus, error) {
	ref := order.ExternalRef()

	id, found, err := s.findExisting(ctx, ref)
	if err != nil {
		return 0, integration.SyncStatusFailed, err
	}
	if found {
		return id, integration.SyncStatusDuplicate, nil
	}

	reserved, err := s.reserve(ctx, ref)
	if err != nil {
		return 0, integration.SyncStatusFailed, err
	}
	if !reserved {
		// Another instance holds the reference. It may already have finished.
		id, found, err := s.findExisting(ctx, ref)
		if err != nil {
			return 0, integration.SyncStatusFailed, err
		}
		if found {
			return id, integration.SyncStatusDuplicate, nil
		}
		return 0, integration.SyncStatusInProgress, fmt.Errorf("%w: %s", integration.ErrOrderSyncInProgress, ref)
	}

	id, err = s.build(ctx, order)
	if err != nil {
		s.release(ctx, ref)
		return 0, integration.SyncStatusFailed, err
	}
	return id, integration.SyncStatusCreated, nil
}

func (s *OrderSyncService) findExisting(ctx context.Context, ref string) (int64, bool, error) {
	ids, err := s.erp.Search(ctx, integration.ModelSaleOrder,
		integration.Domain{integration.Eq("client_order_ref", ref)}, 1)
	if err != nil {
		return 0, false, fmt.Errorf("search sale order: %w", err)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

// build writes partner, products and the sale order. Nothing is rolled back
// on failure, so a header without lines can remain in the ERP.
func (s *OrderSyncService) build(ctx context.Context, order *integration.OrderPayload) (int64, error) {
	partnerID, err := s.partners.EnsurePartner(ctx, order)
	if err != nil {
		return 0, err
	}

	lines := make([]integration.LineCommand, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		productID, err := s.products.EnsureProduct(ctx, item)
		if err != nil {
			return 0, err
		}
		fields := integration.MapSaleLine(item)
		lines = append(lines, integration.LineCommand{Values: integration.Values{
			"product_id":      productID,
			"name":            fields.Name,
			"product_uom_qty": fields.QuantityFloat(),
			"price_unit":      fields.UnitPriceFloat(),
		}})
	}

	orderID, err := s.erp.Create(ctx, integration.ModelSaleOrder, integration.Values{
		"partner_id":       partnerID,
		"client_order_ref": order.ExternalRef(),
		"origin":           integration.OrderOrigin,
	})
	if err != nil {
		return 0, fmt.Errorf("create sale order: %w", err)
	}
	s.metrics.EntityCreated(ctx, integration.ModelSaleOrder)

	if len(lines) > 0 {
		err = s.erp.Write(ctx, integration.ModelSaleOrder, []int64{orderID}, integration.Values{
			"order_line": lines,
		})
		if err != nil {
			return 0, fmt.Errorf("write sale order lines: %w", err)
		}
	}

	if s.autoConfirm {
		if err := s.erp.ActionConfirm(ctx, integration.ModelSaleOrder, []int64{orderID}); err != nil {
			return 0, fmt.Errorf("confirm sale order: %w", err)
		}
	}
	return orderID, nil
}

// reserve claims ref in the shared store. Without a store every call wins.
// A store outage does not block syncing; the ERP lookup already ran.
func (s *OrderSyncService) reserve(ctx context.Context, ref string) (bool, error) {
	if s.reservations == nil {
		return true, nil
	}
	ok, err := s.reservations.MarkProcessed(ctx, ref, s.reservationTTL)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false, err
		}
		s.logger.Warn("Order reservation unavailable, continuing without it",
			zap.String("external_ref", ref),
			zap.Error(err),
		)
		return true, nil
	}
	return ok, nil
}

func (s *OrderSyncService) release(ctx context.Context, ref string) {
	if s.reservations == nil {
		return
	}
	if err := s.reservations.Release(ctx, ref); err != nil {
		s.logger.Warn("Failed to release order reservation",
			zap.String("external_ref", ref),
			zap.Error(err),
		)
	}
}

func (s *OrderSyncService) journal(ctx context.Context, record *integration.OrderSyncRecord) {
	if s.records == nil {
		return
	}
	if err := s.records.Save(ctx, record); err != nil {
		s.logger.Warn("Failed to save order sync record",
			zap.String("external_ref", record.ExternalRef),
			zap.Error(err),
		)
	}
}

// ListSyncRecords returns a page of the order sync journal.
func (s *OrderSyncService) ListSyncRecords(ctx context.Context, filter integration.OrderSyncRecordFilter) ([]integration.OrderSyncRecord, int64, error) {
	if s.records == nil {
		return []integration.OrderSyncRecord{}, 0, nil
	}
	return s.records.List(ctx, filter)
}

// LatestSyncRecord returns the newest journal entry for a storefront order.
func (s *OrderSyncService) LatestSyncRecord(ctx context.Context, orderID integration.ExternalID) (*integration.OrderSyncRecord, error) {
	if s.records == nil {
		return nil, integration.ErrSyncRecordNotFound
	}
	order := integration.OrderPayload{ID: orderID}
	return s.records.FindLatestByExternalRef(ctx, order.ExternalRef())
}
