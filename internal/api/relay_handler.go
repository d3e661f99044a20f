package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"berean/backend/internal/config"
	"berean/backend/internal/llm"
)

// doneSentinel is the terminal marker closing every relay stream. It is
// always the last frame, exactly once, whatever way the stream ended.
const doneSentinel = "[DONE]"

// RelayHandler exposes the chat-completion relay: one POST in, one normalized
// Server-Sent-Events stream out.
type RelayHandler struct {
	provider llm.Provider
	cfg      *config.Config
}

func NewRelayHandler(provider llm.Provider, cfg *config.Config) *RelayHandler {
	return &RelayHandler{provider: provider, cfg: cfg}
}

// RelayRequest is the relay's inbound body. The credential may come from the
// request or fall back to the server-side default.
type RelayRequest struct {
	APIKey   string        `json:"apiKey"`
	System   string        `json:"system"`
	Messages []llm.Message `json:"messages" validate:"required,min=1"`
	Model    string        `json:"model"`
}

// textFrame is the only success frame shape the relay emits.
type textFrame struct {
	Text string `json:"text"`
}

// HandleRelay godoc
// @Summary      Stream a chat completion
// @Description  Relays one upstream streaming completion as normalized SSE frames.
// @Tags         Relay
// @Accept       json
// @Produce      text/event-stream
// @Param        relayRequest  body  RelayRequest  true  "Completion request"
// @Success      200  {string}  string  "SSE stream of {text} / {error} frames, terminated by [DONE]"
// @Failure      400  {object}  ErrorResponse
// @Router       /chat [post]
func (h *RelayHandler) HandleRelay(w http.ResponseWriter, r *http.Request) {
	var req RelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if err := validateRequest(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	// Fail fast before any upstream call or streaming header: a missing
	// credential is a configuration error, not a stream error.
	key := req.APIKey
	if key == "" {
		key = h.cfg.AnthropicAPIKey
	}
	if key == "" {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "No API key provided. Please add your Anthropic API key in Settings.",
		})
		return
	}

	model := req.Model
	if model == "" {
		model = h.cfg.DefaultModel
	}

	setStreamHeaders(w)

	upstreamReq := &llm.MessagesRequest{
		Model:     model,
		MaxTokens: h.cfg.MaxTokens,
		System:    req.System,
		Messages:  req.Messages,
		Stream:    true,
	}

	chunkChan := make(chan llm.StreamChunk)
	go func() {
		if err := h.provider.StreamMessages(r.Context(), key, upstreamReq, chunkChan); err != nil && r.Context().Err() == nil {
			slog.Warn("Upstream stream ended with error", "error", err)
		}
	}()

	clientGone := false
	for chunk := range chunkChan {
		// Keep draining after a client disconnect so the provider goroutine
		// can finish; just stop writing.
		if clientGone || r.Context().Err() != nil {
			clientGone = true
			continue
		}
		if chunk.Err != "" {
			if err := writeStreamEvent(w, ErrorResponse{Error: chunk.Err}); err != nil {
				clientGone = true
			}
			continue
		}
		if err := writeStreamEvent(w, textFrame{Text: chunk.Text}); err != nil {
			clientGone = true
		}
	}

	if !clientGone && r.Context().Err() == nil {
		writeStreamRaw(w, doneSentinel)
	}
}
