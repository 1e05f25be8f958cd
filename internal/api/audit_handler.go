package api

import (
	"net/http"
	"strconv"

	"edustack/lms-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the read side of the audit trail to admins.
type AuditHandler struct {
	audit service.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audit service.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns audit entries newest first, paged via limit/offset.
func (h *AuditHandler) List(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "100"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	entries, err := h.audit.List(c.Request.Context(), limit, offset)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list audit entries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "limit": limit, "offset": offset})
}
