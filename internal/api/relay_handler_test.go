package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"berean/backend/internal/api"
	"berean/backend/internal/config"
	"berean/backend/internal/llm"
)

func relayConfig() *config.Config {
	return &config.Config{
		DefaultModel: "test-model",
		MaxTokens:    4096,
	}
}

// sseFrames extracts every `data:` payload from a recorded SSE body, in order.
func sseFrames(t *testing.T, body string) []string {
	t.Helper()
	var frames []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			frames = append(frames, line[len("data: "):])
		}
	}
	return frames
}

// upstreamFixture is a stub Anthropic endpoint that plays back the given raw
// SSE lines.
func upstreamFixture(t *testing.T, status int, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			_, err := w.Write([]byte(line + "\n\n"))
			assert.NoError(t, err)
		}
	}))
}

func TestRelayHandler_HandleRelay_StreamsNormalizedFrames(t *testing.T) {
	upstream := upstreamFixture(t, http.StatusOK, []string{
		`data: {"type":"message_start","message":{"id":"msg_1"}}`,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Sola"}}`,
		`data: {"type":"ping"}`,
		`data: {"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":" fide"}}`,
		`data: {"type":"message_stop"}`,
	})
	defer upstream.Close()

	handler := api.NewRelayHandler(llm.NewAnthropicProvider(upstream.URL), relayConfig())

	body := `{"apiKey":"sk-test","system":"You are a theologian.","messages":[{"role":"user","content":"Define sola fide."}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.HandleRelay(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))

	frames := sseFrames(t, rr.Body.String())
	// Only the text deltas come through, then the terminal sentinel, last and
	// exactly once.
	require.Equal(t, []string{`{"text":"Sola"}`, `{"text":" fide"}`, `[DONE]`}, frames)
}

func TestRelayHandler_HandleRelay_UpstreamRejectionStaysInStream(t *testing.T) {
	upstream := upstreamFixture(t, http.StatusUnauthorized, nil)
	defer upstream.Close()

	handler := api.NewRelayHandler(llm.NewAnthropicProvider(upstream.URL), relayConfig())

	body := `{"apiKey":"sk-bad","messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.HandleRelay(rr, req)

	// Headers were already committed, so the rejection travels as an error
	// frame followed by the sentinel.
	assert.Equal(t, http.StatusOK, rr.Code)
	frames := sseFrames(t, rr.Body.String())
	require.Len(t, frames, 2)

	var errFrame struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(frames[0]), &errFrame))
	assert.Contains(t, errFrame.Error, "Anthropic API error: 401")
	assert.Equal(t, "[DONE]", frames[1])
}

func TestRelayHandler_HandleRelay_MissingKeyFailsBeforeStreaming(t *testing.T) {
	handler := api.NewRelayHandler(llm.NewAnthropicProvider("http://127.0.0.1:0"), relayConfig())

	body := `{"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.HandleRelay(rr, req)

	// A missing credential is a plain JSON client error, never an SSE stream.
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "No API key provided")
}

func TestRelayHandler_HandleRelay_ServerDefaultCredential(t *testing.T) {
	var capturedKey string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(`data: {"type":"message_stop"}` + "\n\n"))
	}))
	defer upstream.Close()

	cfg := relayConfig()
	cfg.AnthropicAPIKey = "sk-server-default"
	handler := api.NewRelayHandler(llm.NewAnthropicProvider(upstream.URL), cfg)

	body := `{"messages":[{"role":"user","content":"hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.HandleRelay(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "sk-server-default", capturedKey)
}

func TestRelayHandler_HandleRelay_BadRequests(t *testing.T) {
	handler := api.NewRelayHandler(llm.NewAnthropicProvider("http://127.0.0.1:0"), relayConfig())

	t.Run("Invalid JSON body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
		rr := httptest.NewRecorder()
		handler.HandleRelay(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Empty messages", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"apiKey":"sk-test","messages":[]}`))
		rr := httptest.NewRecorder()
		handler.HandleRelay(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var resp struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Contains(t, resp.Error, "Messages")
	})
}
