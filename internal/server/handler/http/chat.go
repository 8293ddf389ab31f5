package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/atinyakov/GophChat/internal/chat"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// inboundFrame is the JSON frame a client sends over the websocket.
type inboundFrame struct {
	Event   string `json:"event"`
	Content string `json:"content"`
}

// ChatHandler upgrades requests to websocket connections and attaches them
// to the chat registry.
type ChatHandler struct {
	Registry *chat.Registry
	Upgrader websocket.Upgrader
	Logger   *zap.Logger
}

// NewChatHandler creates a ChatHandler with default buffer sizes and the
// upgrader's same-origin check.
func NewChatHandler(registry *chat.Registry, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		Registry: registry,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Logger: logger,
	}
}

// Serve handles GET /ws. The session cookie is checked after the upgrade;
// connections that fail the check are closed without a reply.
func (h *ChatHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		h.Logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	peer := newPeer(conn)
	defer peer.Close()
	go peer.writeLoop()

	session := h.Registry.Open(peer)
	defer session.Disconnect()

	cookies := strings.Join(r.Header.Values("Cookie"), "; ")
	if !session.Handshake(r.Context(), cookies) {
		return
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.Logger.Debug("websocket read failed",
					zap.String("user", session.Name()),
					zap.Error(err),
				)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.Logger.Debug("dropping malformed frame", zap.String("user", session.Name()))
			continue
		}
		if frame.Event != chat.EventMessage {
			continue
		}
		session.Receive(frame.Content)
	}
}
