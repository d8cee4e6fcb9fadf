package stream

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatHandler "github.com/zhouzirui/creator-surge/backend/internal/handler/chat"
	chatService "github.com/zhouzirui/creator-surge/backend/internal/service/chat"
	"github.com/zhouzirui/creator-surge/backend/pkg/utils"
)

// Handler streams chat replies as Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, logger: logger}
}

// Frame is the payload of every event on the stream.
type Frame struct {
	ConversationID string              `json:"conversationId"`
	Content        string              `json:"content,omitempty"`
	Turn           *chatService.Result `json:"turn,omitempty"`
	Error          string              `json:"error,omitempty"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{conversationID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	req := chatService.Request{
		ConversationID: conversationID,
		Message:        r.URL.Query().Get("message"),
		AgentType:      r.URL.Query().Get("agentType"),
	}
	if req.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	send := func(event string, frame Frame) error {
		frame.ConversationID = conversationID
		return utils.SendSSEEvent(w, flusher, event, frame)
	}

	if err := send("start", Frame{}); err != nil {
		return
	}

	result, err := h.chatSvc.ChatStream(r.Context(), req, func(delta string) error {
		return send("delta", Frame{Content: delta})
	})
	if err != nil {
		if chatHandler.StatusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("stream turn failed", zap.String("conversation", conversationID), zap.Error(err))
		}
		_ = send("error", Frame{Error: err.Error()})
		return
	}

	_ = send("message", Frame{Content: result.AIMessage.Content, Turn: &result})
	_ = send("end", Frame{})
	h.logger.Debug("stream completed", zap.String("conversation", conversationID))
}
