package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aimlgloss/glossary-go/internal/application/services"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/email"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/internal/presentation/http/middleware"
)

// PurchaseHandlers confirms lifetime-access purchases.
type PurchaseHandlers struct {
	accessService *services.AccessService
	mailer        email.Service
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
}

func NewPurchaseHandlers(accessService *services.AccessService, mailer email.Service, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *PurchaseHandlers {
	return &PurchaseHandlers{
		accessService: accessService,
		mailer:        mailer,
		logger:        logger,
		perfTracker:   perfTracker,
	}
}

type purchaseRequest struct {
	SaleRef string `json:"saleRef" binding:"required"`
}

// Confirm handles POST /api/v1/purchase/confirm. Replaying the same sale
// reference is a no-op, so payment-provider retries are safe.
func (h *PurchaseHandlers) Confirm(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_purchase_confirm")
	defer marker.Complete()

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "saleRef is required"})
		return
	}

	claims := middleware.SessionClaims(c)

	if err := h.accessService.GrantLifetime(claims.UserID, req.SaleRef); err != nil {
		marker.SetError(err)
		h.logger.Access().Error("Failed to grant lifetime access", "userId", claims.UserID, "saleRef", req.SaleRef, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not confirm purchase"})
		return
	}

	// Receipt delivery is best effort.
	if err := h.mailer.SendPurchaseReceipt(claims.Email, claims.Name, req.SaleRef, time.Now().UTC()); err != nil {
		h.logger.Email().Warn("Failed to send purchase receipt", "userId", claims.UserID, "error", err)
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"lifetimeAccess": true, "saleRef": req.SaleRef})
}
