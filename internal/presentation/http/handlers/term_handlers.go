package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aimlgloss/glossary-go/internal/application/services"
	"github.com/aimlgloss/glossary-go/internal/domain/entities/access"
	"github.com/aimlgloss/glossary-go/internal/domain/entities/content"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/performance"
	"github.com/aimlgloss/glossary-go/internal/presentation/http/middleware"
)

// TermHandlers serves glossary content, gating full definitions behind the
// entitlement engine for signed-in users and the preview allowance for
// guests.
type TermHandlers struct {
	termService   *services.TermService
	accessService *services.AccessService
	guestService  *services.GuestService
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
}

func NewTermHandlers(
	termService *services.TermService,
	accessService *services.AccessService,
	guestService *services.GuestService,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *TermHandlers {
	return &TermHandlers{
		termService:   termService,
		accessService: accessService,
		guestService:  guestService,
		logger:        logger,
		perfTracker:   perfTracker,
	}
}

// GetBySlug handles GET /api/v1/terms/:slug. A denied request still gets
// the term's summary so the frontend can render the title with an upsell
// instead of a blank page.
func (h *TermHandlers) GetBySlug(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_term_get")
	defer marker.Complete()

	term, err := h.termService.GetBySlug(c.Param("slug"))
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load term"})
		return
	}
	if term == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "term not found"})
		return
	}

	if claims := middleware.SessionClaims(c); claims != nil {
		h.serveForUser(c, marker, claims.UserID, term)
		return
	}
	h.serveForGuest(c, marker, term)
}

func (h *TermHandlers) serveForUser(c *gin.Context, marker *performance.Marker, userID string, term *content.TermNode) {
	decision, err := h.accessService.CanViewTerm(userID, term.ID)
	if err != nil {
		// Entitlement could not be determined; the denial is already
		// fail-closed, surface the outage distinctly.
		marker.SetError(err)
		h.logger.Access().Error("Entitlement check failed", "userId", userID, "termId", term.ID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":    "could not verify access, please try again",
			"decision": decision,
		})
		return
	}

	if decision.Allowed && decision.Reason == access.ReasonWithinQuota {
		if err := h.accessService.RecordView(userID, term.ID); err != nil {
			marker.SetError(err)
			h.logger.Access().Error("Failed to record view", "userId", userID, "termId", term.ID, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not record view, please try again"})
			return
		}
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, h.termService.Gate(term, decision))
}

func (h *TermHandlers) serveForGuest(c *gin.Context, marker *performance.Marker, term *content.TermNode) {
	sessionID := c.GetHeader(guestSessionHeader)
	decision, sess := h.guestService.CanPreviewTerm(sessionID, term.ID)
	if decision.Allowed {
		sess = h.guestService.RecordPreview(sess.SessionID, term.ID)
	}

	marker.SetSuccess(true)
	c.Header(guestSessionHeader, sess.SessionID)
	c.JSON(http.StatusOK, h.termService.Gate(term, decision))
}

// RecordView handles POST /api/v1/terms/:slug/view. It consumes a view
// explicitly, for clients that fetch content and record consumption as
// separate steps. Only quota-consuming views write anything; already-viewed
// and lifetime reads are no-ops.
func (h *TermHandlers) RecordView(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_term_record_view")
	defer marker.Complete()

	claims := middleware.SessionClaims(c)

	term, err := h.termService.GetBySlug(c.Param("slug"))
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load term"})
		return
	}
	if term == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "term not found"})
		return
	}

	decision, err := h.accessService.CanViewTerm(claims.UserID, term.ID)
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not verify access, please try again", "decision": decision})
		return
	}
	if !decision.Allowed {
		c.JSON(http.StatusForbidden, gin.H{"decision": decision})
		return
	}

	if decision.Reason == access.ReasonWithinQuota {
		if err := h.accessService.RecordView(claims.UserID, term.ID); err != nil {
			marker.SetError(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not record view, please try again"})
			return
		}
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"decision": decision})
}

// List handles GET /api/v1/terms. Listings expose summaries only, so they
// are never gated.
func (h *TermHandlers) List(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_term_list")
	defer marker.Complete()

	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	summaries, err := h.termService.ListSummaries(c.Query("category"), limit, offset)
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list terms"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"terms": summaries, "limit": limit, "offset": offset})
}

// Search handles GET /api/v1/search?q=...
func (h *TermHandlers) Search(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_term_search")
	defer marker.Complete()

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	summaries, err := h.termService.Search(query, queryInt(c, "limit", 20))
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"terms": summaries, "query": query})
}

// ListCategories handles GET /api/v1/categories
func (h *TermHandlers) ListCategories(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handle_category_list")
	defer marker.Complete()

	categories, err := h.termService.ListCategories()
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list categories"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return fallback
}
