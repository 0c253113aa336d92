package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/supernanny-backend/internal/interface/middleware"
	"github.com/oksasatya/supernanny-backend/internal/realtime"
	"github.com/oksasatya/supernanny-backend/pkg/helpers"
	"github.com/oksasatya/supernanny-backend/pkg/response"
)

type RealtimeHandler struct {
	Hub       *realtime.Hub
	Gateway   *realtime.Gateway
	JWT       *helpers.JWTManager
	Logger    *logrus.Logger
	PingEvery time.Duration
	upgrader  websocket.Upgrader
}

// NewRealtimeHandler accepts upgrades from origins; an empty list allows any.
func NewRealtimeHandler(hub *realtime.Hub, gw *realtime.Gateway, jwt *helpers.JWTManager, logger *logrus.Logger, pingEvery time.Duration, origins []string) *RealtimeHandler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &RealtimeHandler{
		Hub:       hub,
		Gateway:   gw,
		JWT:       jwt,
		Logger:    logger,
		PingEvery: pingEvery,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Serve authenticates the handshake before upgrading.
func (h *RealtimeHandler) Serve(c *gin.Context) {
	tok := middleware.BearerToken(c)
	if tok == "" {
		response.Abort(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	claims, err := h.JWT.ParseAccessToken(tok)
	if err != nil {
		response.Abort(c, http.StatusUnauthorized, "invalid token", nil)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Debug("websocket upgrade failed")
		}
		return
	}
	client := realtime.NewClient(claims.UserID, conn)
	if h.Logger != nil {
		h.Logger.WithField("user_id", claims.UserID).Debug("socket connected")
	}
	client.Serve(c.Request.Context(), h.Hub, h.Gateway, h.PingEvery)
	if h.Logger != nil {
		h.Logger.WithField("user_id", claims.UserID).Debug("socket disconnected")
	}
}
