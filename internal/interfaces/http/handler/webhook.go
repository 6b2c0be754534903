package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/bridge/internal/domain/integration"
	"github.com/erp/bridge/internal/infrastructure/logger"
	"github.com/erp/bridge/internal/interfaces/http/dto"
	"github.com/erp/bridge/internal/interfaces/http/middleware"
)

// OrderSyncer creates ERP sale orders from storefront orders
type OrderSyncer interface {
	CreateOrder(ctx context.Context, order *integration.OrderPayload) (int64, error)
}

// WebhookHandler receives storefront order webhooks. Signature checks run in
// middleware.WebhookSignature before this handler.
type WebhookHandler struct {
	BaseHandler
	orders OrderSyncer
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(orders OrderSyncer) *WebhookHandler {
	return &WebhookHandler{orders: orders}
}

// WebhookResponse is the body of an accepted order webhook
type WebhookResponse struct {
	Status string `json:"status" example:"ok"`
}

// HandleOrder godoc
//
//	@Summary		Receive a storefront order
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Webhook-Signature	header		string			false	"base64 HMAC-SHA256 of the raw body"
//	@Success		200					{object}	WebhookResponse
//	@Failure		400					{object}	dto.Response
//	@Failure		401					{object}	dto.Response
//	@Failure		409					{object}	dto.Response
//	@Failure		500					{object}	dto.Response
//	@Router			/webhook/order [post]
func (h *WebhookHandler) HandleOrder(c *gin.Context) {
	body, ok := middleware.RawBody(c)
	if !ok {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.ErrorWithCode(c, dto.ErrCodeRequestTooLarge, "Request body too large")
				return
			}
			h.BadRequest(c, "Failed to read request body")
			return
		}
	}

	var order integration.OrderPayload
	if err := json.Unmarshal(body, &order); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidJSON, "Invalid JSON payload")
		return
	}
	if err := order.Validate(); err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, "Order id is required")
		return
	}

	saleOrderID, err := h.orders.CreateOrder(c.Request.Context(), &order)
	if err != nil {
		logger.L(c.Request.Context()).Error("Order webhook failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		h.HandleError(c, err)
		return
	}

	logger.L(c.Request.Context()).Debug("Order webhook handled",
		zap.String("order_id", order.ID.String()),
		zap.Int64("sale_order_id", saleOrderID),
	)
	c.JSON(http.StatusOK, WebhookResponse{Status: "ok"})
}
