package integration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/bridge/internal/domain/integration"
	"github.com/erp/bridge/internal/infrastructure/telemetry"
)

// PartnerResolver finds or creates the ERP customer for an order.
type PartnerResolver struct {
	erp     integration.ERP
	metrics *telemetry.SyncMetrics
	logger  *zap.Logger
}

// NewPartnerResolver creates a PartnerResolver. metrics may be nil.
func NewPartnerResolver(erp integration.ERP, metrics *telemetry.SyncMetrics, logger *zap.Logger) *PartnerResolver {
	return &PartnerResolver{erp: erp, metrics: metrics, logger: logger}
}

// GuestEmail is the lookup email used for orders without a billing email.
// Guest customers are therefore never shared between orders.
func GuestEmail(orderID integration.ExternalID) string {
	return fmt.Sprintf("guest+%s@example.com", orderID)
}

// EnsurePartner returns the id of the partner whose email matches the
// order's billing email, creating it when none exists. Existing partners are
// never updated.
func (r *PartnerResolver) EnsurePartner(ctx context.Context, order *integration.OrderPayload) (int64, error) {
	billing := order.Billing
	if billing == nil {
		billing = &integration.Billing{}
	}
	email := billing.Email
	if email == "" {
		email = GuestEmail(order.ID)
	}

	ids, err := r.erp.Search(ctx, integration.ModelPartner, integration.Domain{integration.Eq("email", email)}, 1)
	if err != nil {
		return 0, fmt.Errorf("search partner: %w", err)
	}
	if len(ids) > 0 {
		return ids[0], nil
	}

	name := billing.FullName()
	if name == "" {
		name = email
	}
	id, err := r.erp.Create(ctx, integration.ModelPartner, integration.Values{
		"name":    name,
		"email":   email,
		"phone":   optional(billing.Phone),
		"street":  optional(billing.Address1),
		"street2": optional(billing.Address2),
		"city":    optional(billing.City),
		"zip":     optional(billing.Postcode),
	})
	if err != nil {
		return 0, fmt.Errorf("create partner: %w", err)
	}
	r.metrics.EntityCreated(ctx, integration.ModelPartner)
	r.logger.Info("Created ERP partner",
		zap.Int64("partner_id", id),
		zap.String("order_id", order.ID.String()),
	)
	return id, nil
}

// optional maps an absent billing field to an explicit JSON null.
func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
