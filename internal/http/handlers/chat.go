package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/fintrack-be/internal/http/respond"
	"github.com/hongminglow/fintrack-be/internal/llm"
	"github.com/hongminglow/fintrack-be/internal/logger"
	"github.com/hongminglow/fintrack-be/internal/models/dto"
)

// Replier produces a chat reply for a message.
type Replier interface {
	Reply(ctx context.Context, message string) (string, error)
}

// ChatHandler relays chat messages to the inference endpoint.
type ChatHandler struct {
	relay Replier
}

// NewChatHandler constructs the handler.
func NewChatHandler(relay Replier) *ChatHandler {
	return &ChatHandler{relay: relay}
}

// Register attaches the chat route behind protect.
func (h *ChatHandler) Register(mux *http.ServeMux, protect Middleware) {
	mux.Handle("POST /api/chat", protect(http.HandlerFunc(h.handleChat)))
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reply, err := h.relay.Reply(r.Context(), req.Message)
	if err != nil {
		var upstream *llm.UpstreamError
		switch {
		case errors.Is(err, llm.ErrEmptyMessage):
			respond.Error(w, http.StatusBadRequest, "Message is required.")
		case errors.As(err, &upstream):
			respond.Error(w, http.StatusInternalServerError, upstream.Message)
		default:
			logger.Get().Error("chat relay", zap.Error(err))
			respond.Error(w, http.StatusBadGateway, "inference request failed")
		}
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.ChatResponse{Reply: reply})
}
