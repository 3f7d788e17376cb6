package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cosinnus_server/internal/gateway/websocket"
	"cosinnus_server/internal/infrastructure/middleware"
)

// WSHandler 成员变更实时推送
type WSHandler struct {
	hub *websocket.Hub
}

// NewWSHandler 创建推送处理器
func NewWSHandler(hub *websocket.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// Connect 升级为 WebSocket 连接
// GET /ws?token=xxx
func (h *WSHandler) Connect(c *gin.Context) {
	if err := h.hub.Serve(c.Writer, c.Request, middleware.CurrentUserID(c)); err != nil {
		zap.L().Warn("ws connect failed", zap.Error(err))
	}
}
