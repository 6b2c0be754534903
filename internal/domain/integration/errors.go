package integration

import "errors"

// ---------------------------------------------------------------------------
// ERP Errors
// ---------------------------------------------------------------------------

var (
	ErrERPUnavailable     = errors.New("integration: erp temporarily unavailable")
	ErrERPRequestFailed   = errors.New("integration: erp request failed")
	ErrERPInvalidResponse = errors.New("integration: invalid erp response")
	ErrERPAuthFailed      = errors.New("integration: erp authentication failed")
	ErrERPSessionExpired  = errors.New("integration: erp session expired")
)

// ---------------------------------------------------------------------------
// Storefront Errors
// ---------------------------------------------------------------------------

var (
	ErrStorefrontUnavailable     = errors.New("integration: storefront temporarily unavailable")
	ErrStorefrontRequestFailed   = errors.New("integration: storefront request failed")
	ErrStorefrontInvalidResponse = errors.New("integration: invalid storefront response")
	ErrWebhookInvalidSignature   = errors.New("integration: invalid webhook signature")
)

// ---------------------------------------------------------------------------
// Sync Errors
// ---------------------------------------------------------------------------

var (
	ErrOrderSyncInvalidOrder  = errors.New("integration: invalid order for sync")
	ErrOrderSyncInProgress    = errors.New("integration: order sync already in progress")
	ErrProductVariantNotFound = errors.New("integration: product template has no variant")
	ErrSyncRecordNotFound     = errors.New("integration: sync record not found")
)
