package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncStatus is the outcome of one order sync attempt.
type SyncStatus string

const (
	// SyncStatusCreated means a new sale order was written.
	SyncStatusCreated SyncStatus = "CREATED"
	// SyncStatusDuplicate means the order already existed in the ERP.
	SyncStatusDuplicate SyncStatus = "DUPLICATE"
	// SyncStatusFailed means the attempt aborted with an error.
	SyncStatusFailed SyncStatus = "FAILED"
	// SyncStatusInProgress means another attempt held the reservation and
	// had not written the order yet. The caller should retry later.
	SyncStatusInProgress SyncStatus = "IN_PROGRESS"
)

// IsValid returns true if the status is known
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusCreated, SyncStatusDuplicate, SyncStatusFailed, SyncStatusInProgress:
		return true
	default:
		return false
	}
}

// OrderSyncRecord is a journal entry for one webhook-driven order sync.
type OrderSyncRecord struct {
	ID uuid.UUID
	// StorefrontOrderID is the order id as sent by the storefront
	StorefrontOrderID string
	// ExternalRef is the client_order_ref used for deduplication
	ExternalRef string
	// SaleOrderID is the ERP sale order id, zero when the sync failed
	SaleOrderID  int64
	LineCount    int
	Status       SyncStatus
	ErrorMessage string
	Duration     time.Duration
	SyncedAt     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewOrderSyncRecord starts a journal entry for order.
func NewOrderSyncRecord(order *OrderPayload) *OrderSyncRecord {
	now := time.Now()
	return &OrderSyncRecord{
		ID:                uuid.New(),
		StorefrontOrderID: order.ID.String(),
		ExternalRef:       order.ExternalRef(),
		LineCount:         len(order.LineItems),
		SyncedAt:          now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// MarkCreated records a newly created sale order.
func (r *OrderSyncRecord) MarkCreated(saleOrderID int64, elapsed time.Duration) {
	r.finish(SyncStatusCreated, saleOrderID, "", elapsed)
}

// MarkDuplicate records that the order already existed.
func (r *OrderSyncRecord) MarkDuplicate(saleOrderID int64, elapsed time.Duration) {
	r.finish(SyncStatusDuplicate, saleOrderID, "", elapsed)
}

// MarkFailed records the error that aborted the sync.
func (r *OrderSyncRecord) MarkFailed(err error, elapsed time.Duration) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.finish(SyncStatusFailed, 0, msg, elapsed)
}

// MarkInProgress records that a concurrent attempt owns the order.
func (r *OrderSyncRecord) MarkInProgress(elapsed time.Duration) {
	r.finish(SyncStatusInProgress, 0, "", elapsed)
}

func (r *OrderSyncRecord) finish(status SyncStatus, saleOrderID int64, errMsg string, elapsed time.Duration) {
	r.Status = status
	r.SaleOrderID = saleOrderID
	r.ErrorMessage = errMsg
	r.Duration = elapsed
	r.UpdatedAt = time.Now()
}

// OrderSyncRecordFilter narrows a journal listing.
type OrderSyncRecordFilter struct {
	Status      *SyncStatus
	ExternalRef string
	// Page number (1-indexed)
	Page     int
	PageSize int
}

// Normalize clamps paging to sane bounds.
func (f *OrderSyncRecordFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

// OrderSyncRecordRepository persists the order sync journal.
type OrderSyncRecordRepository interface {
	Save(ctx context.Context, record *OrderSyncRecord) error
	// FindLatestByExternalRef returns ErrSyncRecordNotFound when no entry exists.
	FindLatestByExternalRef(ctx context.Context, externalRef string) (*OrderSyncRecord, error)
	List(ctx context.Context, filter OrderSyncRecordFilter) ([]OrderSyncRecord, int64, error)
}
