package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SystemHandler serves liveness endpoints
type SystemHandler struct {
	BaseHandler
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// Ping reports that the process is up. It does not touch the ERP.
//
//	@Router	/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
