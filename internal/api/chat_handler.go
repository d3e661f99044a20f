package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"berean/backend/internal/export"
	"berean/backend/internal/interfaces"
	"berean/backend/internal/model"
	"berean/backend/internal/persona"
	"berean/backend/internal/service"
)

// ChatHandler handles HTTP requests for single-persona conversations.
type ChatHandler struct {
	service  interfaces.ChatService
	registry *persona.Registry
}

func NewChatHandler(svc interfaces.ChatService, registry *persona.Registry) *ChatHandler {
	return &ChatHandler{service: svc, registry: registry}
}

// GetConversations godoc
// @Summary      List conversations
// @Tags         Conversations
// @Produce      json
// @Success      200  {array}   model.Conversation
// @Failure      500  {object}  ErrorResponse
// @Router       /v1/conversations [get]
func (h *ChatHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.service.ListConversations(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	if conversations == nil {
		conversations = []model.Conversation{}
	}
	respondWithJSON(w, http.StatusOK, conversations)
}

// GetConversation godoc
// @Summary      Get one conversation with all messages
// @Tags         Conversations
// @Produce      json
// @Param        conversationID  path  string  true  "Conversation ID"
// @Success      200  {object}  model.Conversation
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID} [get]
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	conversation, err := h.service.GetConversation(r.Context(), conversationID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, conversation)
}

// HandleDeleteConversation godoc
// @Summary      Delete a conversation
// @Tags         Conversations
// @Produce      json
// @Param        conversationID  path  string  true  "Conversation ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID} [delete]
func (h *ChatHandler) HandleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if err := h.service.DeleteConversation(r.Context(), conversationID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleExportConversation godoc
// @Summary      Export a conversation as markdown text
// @Tags         Conversations
// @Produce      text/markdown
// @Param        conversationID  path  string  true  "Conversation ID"
// @Success      200  {string}  string
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/conversations/{conversationID}/export [get]
func (h *ChatHandler) HandleExportConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	conversation, err := h.service.GetConversation(r.Context(), conversationID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	doc := export.Conversation(conversation, h.personaName)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="conversation-`+conversation.ID+`.md"`)
	if _, err := w.Write([]byte(doc)); err != nil {
		slog.Error("Failed to write export", "error", err)
	}
}

// HandleStreamMessage streams one persona's answer to a new message as SSE.
// Validation errors travel inside the stream because the streaming headers
// are committed up front, matching the other streaming endpoints.
func (h *ChatHandler) HandleStreamMessage(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)

	var req service.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendStreamError(w, "Invalid request body")
		return
	}
	if err := validateRequest(&req); err != nil {
		sendStreamError(w, err.Error())
		return
	}

	streamChan := make(chan model.StreamResponse)
	go h.service.HandleNewMessage(r.Context(), &req, streamChan)

	clientGone := false
	for chunk := range streamChan {
		if clientGone || r.Context().Err() != nil {
			clientGone = true
			continue
		}
		if err := writeStreamEvent(w, chunk); err != nil {
			clientGone = true
		}
	}
}

func (h *ChatHandler) personaName(id string) string {
	p, err := h.registry.Get(id)
	if err != nil {
		return id
	}
	return p.Name
}
