package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	chatService "github.com/zhouzirui/creator-surge/backend/internal/service/chat"
)

const (
	defaultPongWait   = 60 * time.Second
	defaultPingPeriod = 54 * time.Second
	writeWait         = 10 * time.Second
)

// Handler runs chat turns over a websocket bound to one conversation.
type Handler struct {
	chatSvc    *chatService.Service
	logger     *zap.Logger
	upgrader   websocket.Upgrader
	pongWait   time.Duration
	pingPeriod time.Duration
}

func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc:    chatSvc,
		logger:     logger,
		pongWait:   defaultPongWait,
		pingPeriod: defaultPingPeriod,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{conversationID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversationId"`
	Data           json.RawMessage `json:"data"`
}

// ChatMessage is the data of an inbound "chat" frame.
type ChatMessage struct {
	Message   string `json:"message"`
	AgentType string `json:"agentType,omitempty"`
}

type outgoingMessage struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId,omitempty"`
	Data           any    `json:"data,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

// conn serialises writes; gorilla allows a single concurrent writer.
type conn struct {
	ws             *websocket.Conn
	conversationID string
	mu             sync.Mutex
	logger         *zap.Logger
}

func (c *conn) write(msg outgoingMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg.Timestamp = time.Now().Unix()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(msg)
}

func (c *conn) sendResult(data map[string]any) {
	if err := c.write(outgoingMessage{Type: "result", ConversationID: c.conversationID, Data: data}); err != nil {
		c.logger.Debug("websocket write failed", zap.Error(err))
	}
}

func (c *conn) sendError(message string) {
	if err := c.write(outgoingMessage{Type: "error", ConversationID: c.conversationID, Data: map[string]string{"message": message}}); err != nil {
		c.logger.Debug("websocket write failed", zap.Error(err))
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "conversationID is required", http.StatusBadRequest)
		return
	}
	if _, err := h.chatSvc.GetConversation(r.Context(), conversationID); err != nil {
		if errors.Is(err, chatService.ErrConversationNotFound) {
			http.Error(w, "conversation not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	c := &conn{ws: ws, conversationID: conversationID, logger: h.logger}
	h.logger.Info("websocket connected", zap.String("conversation", conversationID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_ = ws.SetReadDeadline(time.Now().Add(h.pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	go pingLoop(ctx, ws, h.pingPeriod)

	c.sendResult(map[string]any{"type": "connected"})

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(h.pongWait))

		if msg.ConversationID != "" && msg.ConversationID != conversationID {
			c.sendError("conversation mismatch")
			continue
		}

		switch msg.Type {
		case "chat":
			h.handleChat(ctx, c, msg.Data)
			// Pongs are not read while a turn runs, so a slow model must not
			// leave the connection with an expired deadline.
			_ = ws.SetReadDeadline(time.Now().Add(h.pongWait))
		default:
			c.sendError("unsupported message type: " + msg.Type)
		}
	}
}

func (h *Handler) handleChat(ctx context.Context, c *conn, raw json.RawMessage) {
	var payload ChatMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.sendError("invalid chat payload")
		return
	}

	req := chatService.Request{
		ConversationID: c.conversationID,
		Message:        payload.Message,
		AgentType:      payload.AgentType,
	}
	result, err := h.chatSvc.ChatStream(ctx, req, func(delta string) error {
		c.sendResult(map[string]any{"type": "ai_delta", "content": delta})
		return nil
	})
	if err != nil {
		if !errors.Is(err, chatService.ErrConversationNotFound) {
			h.logger.Warn("websocket chat failed", zap.String("conversation", c.conversationID), zap.Error(err))
		}
		c.sendError(err.Error())
		return
	}

	c.sendResult(map[string]any{"type": "user", "message": result.UserMessage})
	c.sendResult(map[string]any{"type": "ai", "message": result.AIMessage})
}

func pingLoop(ctx context.Context, ws *websocket.Conn, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
