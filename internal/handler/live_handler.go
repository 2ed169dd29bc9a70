package handler

import (
	"log"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/quiz-api/internal/handler/helper"
	"github.com/yourusername/quiz-api/internal/service"
	"github.com/yourusername/quiz-api/internal/websocket"
)

// LiveHandler подключает администраторов к ленте записанных попыток
type LiveHandler struct {
	hub      *websocket.Hub
	gate     *service.AccessGate
	upgrader gorillaws.Upgrader
}

// NewLiveHandler создает обработчик ленты
func NewLiveHandler(hub *websocket.Hub, gate *service.AccessGate, allowedOrigins []string) *LiveHandler {
	return &LiveHandler{
		hub:      hub,
		gate:     gate,
		upgrader: websocket.NewUpgrader(allowedOrigins),
	}
}

// Connect проверяет токен из query и переводит соединение в websocket.
// Браузер не может передать заголовок Authorization при upgrade, поэтому токен
// передается параметром access_token.
// GET /api/admin/live?access_token=
func (h *LiveHandler) Connect(c *gin.Context) {
	identity, err := h.gate.Authenticate(c.Request.Context(), c.Query("access_token"))
	if err != nil {
		helper.RespondError(c, "LiveHandler", err)
		return
	}
	if err := h.gate.RequireAdmin(identity); err != nil {
		helper.RespondError(c, "LiveHandler", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже записал ответ с ошибкой
		log.Printf("[LiveHandler] Upgrade failed for account %s: %v", identity.Account.ID, err)
		return
	}

	websocket.NewClient(h.hub, conn, identity.Account.ID).Serve()
}
