package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimlgloss/glossary-go/internal/application/services"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/internal/presentation/http/middleware"
)

// AccessHandlers exposes the entitlement snapshot and per-term check
// endpoints.
type AccessHandlers struct {
	accessService *services.AccessService
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
}

func NewAccessHandlers(accessService *services.AccessService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AccessHandlers {
	return &AccessHandlers{
		accessService: accessService,
		logger:        logger,
		perfTracker:   perfTracker,
	}
}

// GetStatus handles GET /api/v1/user/access-status. The snapshot is derived from
// server state; clients refetch it after consuming a view rather than
// decrementing locally.
func (h *AccessHandlers) GetStatus(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_access_status")
	defer marker.Complete()

	claims := middleware.SessionClaims(c)

	status, err := h.accessService.GetStatus(claims.UserID)
	if err != nil {
		h.logger.Access().Error("Failed to derive access status", "userId", claims.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not determine access status"})
		return
	}
	marker.SetSuccess(true)
	c.JSON(http.StatusOK, status)
}

// GetTermAccess handles GET /api/v1/user/term-access/:id. It reports whether
// the user could view the term right now without consuming a view.
func (h *AccessHandlers) GetTermAccess(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_term_access")
	defer marker.Complete()

	claims := middleware.SessionClaims(c)
	termID := c.Param("id")

	decision, err := h.accessService.CanViewTerm(claims.UserID, termID)
	if err != nil {
		marker.SetError(err)
		h.logger.Access().Error("Entitlement check failed", "userId", claims.UserID, "termId", termID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":    "could not verify access, please try again",
			"decision": decision,
		})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, decision)
}
