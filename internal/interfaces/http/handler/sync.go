package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appintegration "github.com/erp/bridge/internal/application/integration"
	"github.com/erp/bridge/internal/domain/integration"
	"github.com/erp/bridge/internal/interfaces/http/dto"
)

// StockSyncer pushes ERP stock levels to the storefront
type StockSyncer interface {
	SyncStock(ctx context.Context) (*integration.StockSyncResult, error)
}

// SyncRecordReader reads the order sync journal
type SyncRecordReader interface {
	ListSyncRecords(ctx context.Context, filter integration.OrderSyncRecordFilter) ([]integration.OrderSyncRecord, int64, error)
	LatestSyncRecord(ctx context.Context, orderID integration.ExternalID) (*integration.OrderSyncRecord, error)
}

// SyncHandler serves manual stock sync and the order sync journal
type SyncHandler struct {
	BaseHandler
	stock   StockSyncer
	records SyncRecordReader
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(stock StockSyncer, records SyncRecordReader) *SyncHandler {
	return &SyncHandler{stock: stock, records: records}
}

// ListSyncRecordsRequest holds the journal listing query
type ListSyncRecordsRequest struct {
	dto.ListRequest
	Status      string `form:"status" binding:"omitempty,oneof=CREATED DUPLICATE FAILED IN_PROGRESS"`
	ExternalRef string `form:"external_ref" binding:"omitempty,max=64"`
}

// SyncStock godoc
//
//	@Summary	Push ERP stock levels to the storefront
//	@Tags		sync
//	@Produce	json
//	@Success	200	{object}	appintegration.StockSyncResponse
//	@Failure	500	{object}	dto.Response
//	@Router		/sync/stock [post]
func (h *SyncHandler) SyncStock(c *gin.Context) {
	result, err := h.stock.SyncStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, appintegration.StockSyncResponse{
		Status:     "done",
		Considered: result.Considered,
		Updated:    result.Updated,
		Skipped:    result.Skipped,
	})
}

// ListOrderSyncs godoc
//
//	@Summary	List order sync attempts, newest first
//	@Tags		sync
//	@Produce	json
//	@Param		page			query		int		false	"Page number"
//	@Param		page_size		query		int		false	"Page size"
//	@Param		status			query		string	false	"CREATED, DUPLICATE or FAILED"
//	@Param		external_ref	query		string	false	"ERP client_order_ref"
//	@Success	200				{object}	dto.Response{data=[]appintegration.SyncRecordResponse}
//	@Router		/sync/orders [get]
func (h *SyncHandler) ListOrderSyncs(c *gin.Context) {
	req := ListSyncRecordsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := integration.OrderSyncRecordFilter{
		ExternalRef: req.ExternalRef,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}
	if req.Status != "" {
		status := integration.SyncStatus(req.Status)
		filter.Status = &status
	}
	filter.Normalize()

	records, total, err := h.records.ListSyncRecords(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, appintegration.ToSyncRecordResponses(records), total, filter.Page, filter.PageSize)
}

// GetOrderSync godoc
//
//	@Summary	Latest sync attempt for a storefront order
//	@Tags		sync
//	@Produce	json
//	@Param		order_id	path		string	true	"Storefront order id"
//	@Success	200			{object}	dto.Response{data=appintegration.SyncRecordResponse}
//	@Failure	404			{object}	dto.Response
//	@Router		/sync/orders/{order_id} [get]
func (h *SyncHandler) GetOrderSync(c *gin.Context) {
	record, err := h.records.LatestSyncRecord(c.Request.Context(), integration.ExternalID(c.Param("order_id")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appintegration.ToSyncRecordResponse(record))
}
