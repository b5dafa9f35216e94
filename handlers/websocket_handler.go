package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/fitarena-system/live"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Мобильный клиент ходит без Origin, браузерные подключения
		// фильтруются на уровне CORS.
		return true
	},
}

type WebSocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
	}
}

// ServeWs обрабатывает GET /ws/competitions/{competitionID}: подписывает
// клиента на живые обновления таблицы и выплат соревнования.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade websocket connection",
			slog.Int("competition_id", competitionID),
			slog.Any("error", err))
		return
	}

	client := &live.Client{
		ID:   uuid.NewString(),
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: live.CompetitionRoom(competitionID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
