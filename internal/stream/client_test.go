package stream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"berean/backend/internal/model"
)

// recorder collects every callback invocation so tests can assert on the exact
// sequence and terminal outcome of a stream.
type recorder struct {
	tokens []string
	dones  []string
	errors []string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnToken: func(token string) { r.tokens = append(r.tokens, token) },
		OnDone:  func(full string) { r.dones = append(r.dones, full) },
		OnError: func(message string) { r.errors = append(r.errors, message) },
	}
}

// sseServer builds a stub relay that writes the given pre-encoded SSE lines
// and closes the connection.
func sseServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			_, err := w.Write([]byte(line + "\n\n"))
			assert.NoError(t, err)
		}
	}))
}

func testPersona() model.Persona {
	return model.Persona{ID: "sproul", Name: "R.C. Sproul", SystemPrompt: "You are R.C. Sproul."}
}

func TestClient_Stream_TokensAndDone(t *testing.T) {
	server := sseServer(t, []string{
		`data: {"text":"The "}`,
		`data: {"text":"holiness "}`,
		`data: {"text":"of God"}`,
		`data: [DONE]`,
	})
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	rec := &recorder{}

	client.Stream(context.Background(), testPersona(), nil, "", rec.callbacks())

	// Tokens arrive in order, and the terminal callback carries their exact
	// concatenation.
	assert.Equal(t, []string{"The ", "holiness ", "of God"}, rec.tokens)
	require.Len(t, rec.dones, 1)
	assert.Equal(t, "The holiness of God", rec.dones[0])
	assert.Empty(t, rec.errors)
}

func TestClient_Stream_SkipsMalformedFrames(t *testing.T) {
	server := sseServer(t, []string{
		`data: {"text":"first"}`,
		`data: {not json at all`,
		`: comment line`,
		`data: {"text":"second"}`,
		`data: [DONE]`,
	})
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	rec := &recorder{}

	client.Stream(context.Background(), testPersona(), nil, "", rec.callbacks())

	// A malformed frame is silently skipped and never surfaces as an error.
	assert.Equal(t, []string{"first", "second"}, rec.tokens)
	require.Len(t, rec.dones, 1)
	assert.Equal(t, "firstsecond", rec.dones[0])
	assert.Empty(t, rec.errors)
}

func TestClient_Stream_ErrorFrameTerminates(t *testing.T) {
	server := sseServer(t, []string{
		`data: {"text":"partial"}`,
		`data: {"error":"upstream overloaded"}`,
		`data: {"text":"never delivered"}`,
		`data: [DONE]`,
	})
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	rec := &recorder{}

	client.Stream(context.Background(), testPersona(), nil, "", rec.callbacks())

	// The error frame ends processing: no further tokens, no OnDone.
	assert.Equal(t, []string{"partial"}, rec.tokens)
	assert.Equal(t, []string{"upstream overloaded"}, rec.errors)
	assert.Empty(t, rec.dones)
}

func TestClient_Stream_BareCloseCompletesWithAccumulatedText(t *testing.T) {
	server := sseServer(t, []string{
		`data: {"text":"cut "}`,
		`data: {"text":"short"}`,
		// No terminal sentinel: the connection just closes.
	})
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	rec := &recorder{}

	client.Stream(context.Background(), testPersona(), nil, "", rec.callbacks())

	require.Len(t, rec.dones, 1)
	assert.Equal(t, "cut short", rec.dones[0])
	assert.Empty(t, rec.errors)
}

func TestClient_Stream_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"No API key provided"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model")
	rec := &recorder{}

	client.Stream(context.Background(), testPersona(), nil, "", rec.callbacks())

	require.Len(t, rec.errors, 1)
	assert.True(t, strings.HasPrefix(rec.errors[0], "API Error: "), "got %q", rec.errors[0])
	assert.Empty(t, rec.tokens)
	assert.Empty(t, rec.dones)
}

func TestClient_Stream_CancellationIsSilent(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		// Drain the body so net/http's background reader can observe the
		// client disconnect and cancel the request context.
		_, _ = io.ReadAll(r.Body)
		close(started)
		// Hold the connection open until the client gives up.
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	client := NewClient(server.URL, "test-model")
	rec := &recorder{}

	done := make(chan struct{})
	go func() {
		client.Stream(ctx, testPersona(), nil, "", rec.callbacks())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not return after cancellation")
	}

	// A cancelled stream fires no terminal callback at all.
	assert.Empty(t, rec.dones)
	assert.Empty(t, rec.errors)
}

func TestClient_Stream_ReplayIsDeterministic(t *testing.T) {
	lines := []string{
		`data: {"text":"By "}`,
		`data: {"text":"faith "}`,
		`data: {"text":"alone"}`,
		`data: [DONE]`,
	}
	server := sseServer(t, lines)
	defer server.Close()

	client := NewClient(server.URL, "test-model")

	// Consuming the same stream twice yields identical tokens and the same
	// terminal text.
	first := &recorder{}
	client.Stream(context.Background(), testPersona(), nil, "", first.callbacks())
	second := &recorder{}
	client.Stream(context.Background(), testPersona(), nil, "", second.callbacks())

	assert.Equal(t, first.tokens, second.tokens)
	assert.Equal(t, first.dones, second.dones)
	require.Len(t, second.dones, 1)
	assert.Equal(t, "By faith alone", second.dones[0])
}

func TestClient_Stream_RequestBody(t *testing.T) {
	var captured struct {
		APIKey   string `json:"apiKey"`
		System   string `json:"system"`
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer server.Close()

	p := testPersona()
	history := []model.Message{
		{Role: model.RoleUser, Content: "What does Romans 9 teach?"},
	}

	client := NewClient(server.URL, "test-model")
	client.Stream(context.Background(), p, history, "sk-test", (&recorder{}).callbacks())

	assert.Equal(t, "sk-test", captured.APIKey)
	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "What does Romans 9 teach?", captured.Messages[0].Content)

	// The outbound system prompt is the persona's instruction block with the
	// universal directives appended, in that order.
	assert.Equal(t, SystemPrompt(p), captured.System)
	assert.True(t, strings.HasPrefix(captured.System, p.SystemPrompt+"\n\n"))
	assert.Contains(t, captured.System, "ADDITIONAL INSTRUCTIONS FOR ALL RESPONSES")
}
