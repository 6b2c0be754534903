package integration

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp/bridge/internal/domain/integration"
)

// SyncRecordResponse is a journal entry in API responses
type SyncRecordResponse struct {
	ID                uuid.UUID              `json:"id"`
	StorefrontOrderID string                 `json:"storefront_order_id"`
	ExternalRef       string                 `json:"external_ref"`
	SaleOrderID       int64                  `json:"sale_order_id,omitempty"`
	LineCount         int                    `json:"line_count"`
	Status            integration.SyncStatus `json:"status"`
	Error             string                 `json:"error,omitempty"`
	DurationMs        int64                  `json:"duration_ms"`
	SyncedAt          time.Time              `json:"synced_at"`
}

// ToSyncRecordResponse converts a journal entry to its response form
func ToSyncRecordResponse(r *integration.OrderSyncRecord) SyncRecordResponse {
	return SyncRecordResponse{
		ID:                r.ID,
		StorefrontOrderID: r.StorefrontOrderID,
		ExternalRef:       r.ExternalRef,
		SaleOrderID:       r.SaleOrderID,
		LineCount:         r.LineCount,
		Status:            r.Status,
		Error:             r.ErrorMessage,
		DurationMs:        r.Duration.Milliseconds(),
		SyncedAt:          r.SyncedAt,
	}
}

// ToSyncRecordResponses converts a page of journal entries
func ToSyncRecordResponses(records []integration.OrderSyncRecord) []SyncRecordResponse {
	out := make([]SyncRecordResponse, len(records))
	for i := range records {
		out[i] = ToSyncRecordResponse(&records[i])
	}
	return out
}

// StockSyncResponse is the body of a completed stock sync
type StockSyncResponse struct {
	Status     string `json:"status"`
	Considered int    `json:"considered"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
}
