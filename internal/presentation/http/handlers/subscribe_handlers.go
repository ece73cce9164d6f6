package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/aimlgloss/glossary-go/internal/infrastructure/messaging"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
	"github.com/aimlgloss/glossary-go/internal/presentation/http/middleware"
	"github.com/aimlgloss/glossary-go/pkg/config"
)

// SubscribeHandlers streams auth and access state changes to connected
// clients over WebSocket so every tab of a session converges on the same
// state.
type SubscribeHandlers struct {
	broadcaster messaging.Broadcaster
	logger      *logging.ChanneledLogger
	upgrader    websocket.Upgrader
}

func NewSubscribeHandlers(broadcaster messaging.Broadcaster, logger *logging.ChanneledLogger) *SubscribeHandlers {
	return &SubscribeHandlers{
		broadcaster: broadcaster,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range config.AllowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return len(config.AllowedOrigins) == 0
			},
		},
	}
}

// Subscribe handles GET /api/v1/auth/subscribe. One subscription per
// connection; the per-user cap bounds how many tabs can listen at once.
func (h *SubscribeHandlers) Subscribe(c *gin.Context) {
	claims := middleware.SessionClaims(c)

	events, ok := h.broadcaster.Subscribe(claims.UserID)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "subscription limit reached for this session"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.broadcaster.Unsubscribe(claims.UserID, events)
		h.logger.Subscribe().Warn("WebSocket upgrade failed", "userId", claims.UserID, "error", err)
		return
	}

	h.logger.Subscribe().Debug("Client subscribed", "userId", claims.UserID)
	go h.writeLoop(conn, claims.UserID, events)
	h.readLoop(conn, claims.UserID, events)
}

// readLoop discards client frames; its job is to notice the close.
func (h *SubscribeHandlers) readLoop(conn *websocket.Conn, userID string, events chan messaging.Event) {
	defer func() {
		h.broadcaster.Unsubscribe(userID, events)
		conn.Close()
		h.logger.Subscribe().Debug("Client unsubscribed", "userId", userID)
	}()

	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *SubscribeHandlers) writeLoop(conn *websocket.Conn, userID string, events chan messaging.Event) {
	ping := time.NewTicker(config.SubscribePingInterval)
	defer func() {
		ping.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, open := <-events:
			conn.SetWriteDeadline(time.Now().Add(config.SubscribeWriteTimeout))
			if !open {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Subscribe().Debug("Event write failed", "userId", userID, "error", err)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(config.SubscribeWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
