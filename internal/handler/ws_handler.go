package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/internal/middleware"
	"github.com/vivahsetu/vivahsetu-backend/internal/ws"
)

// WSHandler upgrades chat connections
type WSHandler struct {
	hub            *ws.Hub
	gateway        *ws.Gateway
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *ws.Hub, gateway *ws.Gateway, allowedOrigins string) *WSHandler {
	h := &WSHandler{
		hub:            hub,
		gateway:        gateway,
		allowedOrigins: parseOrigins(allowedOrigins),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// parseOrigins parses comma-separated origins string
func parseOrigins(origins string) []string {
	if origins == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// checkOrigin validates the request origin against allowed origins
func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	// no list configured: development
	if len(h.allowedOrigins) == 0 {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if origin == allowed || allowed == "*" {
			return true
		}
	}
	return false
}

// Connect handles GET /ws/chat
// @Summary Realtime chat WebSocket
// @Tags chat
// @Param token query string false "JWT when the Authorization header cannot be set"
// @Router /ws/chat [get]
func (h *WSHandler) Connect(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.HandleError(c, common.ErrUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		middleware.RequestLog(c).Debug().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.hub, conn, userID, h.gateway)
	go client.WritePump()
	h.gateway.Connect(client)
	go client.ReadPump()
}
