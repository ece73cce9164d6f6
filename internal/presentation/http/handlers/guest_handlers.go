package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimlgloss/glossary-go/internal/application/services"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
)

// guestSessionHeader carries the anonymous session identifier. A missing or
// expired ID mints a fresh session; the response always echoes the current
// ID so clients can persist it.
const guestSessionHeader = "X-Guest-Session-ID"

// GuestHandlers exposes the anonymous preview session endpoints.
type GuestHandlers struct {
	guestService *services.GuestService
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
}

func NewGuestHandlers(guestService *services.GuestService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *GuestHandlers {
	return &GuestHandlers{
		guestService: guestService,
		logger:       logger,
		perfTracker:  perfTracker,
	}
}

// GetSession handles GET /api/v1/guest/session.
func (h *GuestHandlers) GetSession(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_guest_session")
	defer marker.Complete()

	sess := h.guestService.GetOrCreate(c.GetHeader(guestSessionHeader))

	marker.SetSuccess(true)
	c.Header(guestSessionHeader, sess.SessionID)
	c.JSON(http.StatusOK, sess)
}

type guestPreviewRequest struct {
	TermID string `json:"termId" binding:"required"`
}

// RecordPreview handles POST /api/v1/guest/preview. It checks the preview
// allowance for the given term and consumes one when the check passes;
// re-previewing a term already in the window is free.
func (h *GuestHandlers) RecordPreview(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_guest_record_preview")
	defer marker.Complete()

	var req guestPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "termId is required"})
		return
	}

	decision, sess := h.guestService.CanPreviewTerm(c.GetHeader(guestSessionHeader), req.TermID)
	if decision.Allowed {
		sess = h.guestService.RecordPreview(sess.SessionID, req.TermID)
	}

	marker.SetSuccess(true)
	c.Header(guestSessionHeader, sess.SessionID)
	c.JSON(http.StatusOK, gin.H{"decision": decision, "session": sess})
}

// Reset handles POST /api/v1/guest/reset, discarding the caller's guest
// session and minting a fresh one. Clients call this after sign-in so stale
// anonymous state never lingers.
func (h *GuestHandlers) Reset(c *gin.Context) {
	h.guestService.Reset(c.GetHeader(guestSessionHeader))
	sess := h.guestService.GetOrCreate("")

	c.Header(guestSessionHeader, sess.SessionID)
	c.JSON(http.StatusOK, sess)
}

// RecordCta handles POST /api/v1/guest/cta, counting an upsell
// call-to-action click for conversion tracking.
func (h *GuestHandlers) RecordCta(c *gin.Context) {
	sess := h.guestService.RecordCta(c.GetHeader(guestSessionHeader))

	c.Header(guestSessionHeader, sess.SessionID)
	c.JSON(http.StatusOK, sess)
}
