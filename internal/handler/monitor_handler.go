package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/quiznexusai/quiznexus-backend/internal/middleware"
	"github.com/quiznexusai/quiznexus-backend/internal/service"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams session state (remaining time, progress) once per
// second over a WebSocket, until the session ends or the client drops.
type MonitorHandler struct {
	sessions *service.ExamSessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(sessions *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		sessions: sessions,
		log:      log.With().Str("component", "monitor_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// Stream godoc
// WS /ws/v1/exam/attempts/:attempt_id/monitor?token=...
func (h *MonitorHandler) Stream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}

	// The caller must own the attempt.
	if active, ok := h.sessions.ActiveAttempt(claims.UserID); !ok || active != attemptID {
		c.JSON(http.StatusForbidden, gin.H{"error": "attempt does not belong to caller"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("attempt_id", attemptID.String()).
		Logger()
	wsLog.Debug().Msg("Monitor stream opened")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		state, err := h.sessions.State(attemptID)
		if err != nil {
			wsLog.Debug().Err(err).Msg("Session gone, closing stream")
			return
		}
		if err := conn.WriteJSON(state); err != nil {
			wsLog.Debug().Err(err).Msg("Client dropped")
			return
		}
		if state.Ended {
			return
		}
	}
}
