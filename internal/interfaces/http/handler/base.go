package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/erp/bridge/internal/domain/integration"
	"github.com/erp/bridge/internal/interfaces/http/dto"
	"github.com/erp/bridge/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context, falling back to the header
func getRequestID(c *gin.Context) string {
	if id := middleware.GetRequestID(c); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps sync and collaborator errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, integration.ErrOrderSyncInvalidOrder):
		h.ErrorWithCode(c, dto.ErrCodeInvalidInput, err.Error())
		return
	case errors.Is(err, integration.ErrOrderSyncInProgress):
		h.ErrorWithCode(c, dto.ErrCodeSyncInProgress, err.Error())
		return
	case errors.Is(err, integration.ErrSyncRecordNotFound):
		h.ErrorWithCode(c, dto.ErrCodeNotFound, err.Error())
		return
	case isERPError(err):
		h.ErrorWithCode(c, dto.ErrCodeERPFailure, err.Error())
		return
	case isStorefrontError(err):
		h.ErrorWithCode(c, dto.ErrCodeStorefrontFailure, err.Error())
		return
	}

	h.InternalError(c, "An unexpected error occurred")
}

var erpErrors = []error{
	integration.ErrERPUnavailable,
	integration.ErrERPRequestFailed,
	integration.ErrERPInvalidResponse,
	integration.ErrERPAuthFailed,
	integration.ErrERPSessionExpired,
	integration.ErrProductVariantNotFound,
}

var storefrontErrors = []error{
	integration.ErrStorefrontUnavailable,
	integration.ErrStorefrontRequestFailed,
	integration.ErrStorefrontInvalidResponse,
}

func isERPError(err error) bool {
	for _, target := range erpErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isStorefrontError(err error) bool {
	for _, target := range storefrontErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
