package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/bridge/internal/infrastructure/ecommerce"
	"github.com/erp/bridge/internal/infrastructure/logger"
	"github.com/erp/bridge/internal/interfaces/http/dto"
)

const (
	// SignatureHeader is the signature header the bridge documents
	SignatureHeader = "X-Webhook-Signature"
	// WooSignatureHeader is the header WooCommerce itself sends
	WooSignatureHeader = "X-WC-Webhook-Signature"
	// RawBodyKey is the gin context key holding the verified raw body
	RawBodyKey = "webhook_raw_body"
)

// WebhookSignature reads the whole body, rejects it with 401 unless it
// carries a valid signature, and leaves the raw bytes in the context for the
// handler. With no secret configured every body passes.
func WebhookSignature(verifier *ecommerce.WebhookVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size", GetRequestID(c)))
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Failed to read request body", GetRequestID(c)))
			return
		}

		signature := c.GetHeader(SignatureHeader)
		if signature == "" {
			signature = c.GetHeader(WooSignatureHeader)
		}

		if err := verifier.Verify(signature, body); err != nil {
			logger.L(c.Request.Context()).Warn("Rejected webhook with invalid signature",
				zap.String("path", c.FullPath()),
				zap.Bool("signature_present", signature != ""),
				zap.Error(err),
			)
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeInvalidSignature, "Invalid webhook signature", GetRequestID(c)))
			return
		}

		c.Set(RawBodyKey, body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

// RawBody returns the body captured by WebhookSignature
func RawBody(c *gin.Context) ([]byte, bool) {
	v, ok := c.Get(RawBodyKey)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}
