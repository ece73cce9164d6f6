package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aimlgloss/glossary-go/internal/application/services"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/persistence/database"
)

// HealthHandlers reports liveness and dependency state.
type HealthHandlers struct {
	db          *database.DB
	authService *services.AuthService
}

func NewHealthHandlers(db *database.DB, authService *services.AuthService) *HealthHandlers {
	return &HealthHandlers{db: db, authService: authService}
}

// Health handles GET /api/v1/health. An open identity circuit degrades the
// report without failing it; the service still serves cached and gated
// content while the provider recovers.
func (h *HealthHandlers) Health(c *gin.Context) {
	status := http.StatusOK
	report := gin.H{
		"status":   "ok",
		"database": "ok",
		"identity": string(h.authService.BreakerState()),
	}

	if err := h.db.Ping(); err != nil {
		status = http.StatusServiceUnavailable
		report["status"] = "degraded"
		report["database"] = "unreachable"
	}

	c.JSON(status, report)
}
