package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimlgloss/glossary-go/internal/application/services"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/internal/presentation/http/middleware"
)

// SupportHandlers exposes the contact/support ticket endpoint.
type SupportHandlers struct {
	supportService *services.SupportService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

func NewSupportHandlers(supportService *services.SupportService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SupportHandlers {
	return &SupportHandlers{
		supportService: supportService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

type ticketRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

// CreateTicket handles POST /api/v1/support/tickets. Works for guests and
// signed-in users; the user ID is attached when present.
func (h *SupportHandlers) CreateTicket(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_create_ticket")
	defer marker.Complete()

	var req ticketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email, subject, and body are required"})
		return
	}

	var userID string
	if claims := middleware.SessionClaims(c); claims != nil {
		userID = claims.UserID
	}

	ticket, err := h.supportService.OpenTicket(userID, req.Email, req.Subject, req.Body)
	if err != nil {
		marker.SetError(err)
		h.logger.Email().Error("Failed to open ticket", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not submit your message"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusCreated, ticket)
}

// GetTicket handles GET /api/v1/support/tickets/:id.
func (h *SupportHandlers) GetTicket(c *gin.Context) {
	ticket, err := h.supportService.GetTicket(c.Param("id"))
	if err != nil {
		h.logger.Email().Error("Failed to load ticket", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load ticket"})
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}

	c.JSON(http.StatusOK, ticket)
}
