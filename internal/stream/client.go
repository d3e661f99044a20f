// Package stream is the client side of the relay: it consumes the normalized
// event stream from /api/chat, reassembles incremental text and reports
// progress through caller-supplied callbacks.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"berean/backend/internal/model"
)

// DoneSentinel is the fixed terminal marker closing every relay stream.
const DoneSentinel = "[DONE]"

// Callbacks carry the three possible outcomes of a stream. Within one stream,
// OnToken fires in byte-arrival order and exactly one of OnDone or OnError
// terminates it; a cancelled stream fires nothing at all.
type Callbacks struct {
	OnToken func(token string)
	OnDone  func(fullText string)
	OnError func(message string)
}

// Streamer is the contract the orchestration layer depends on.
type Streamer interface {
	Stream(ctx context.Context, persona model.Persona, history []model.Message, apiKey string, cb Callbacks)
}

// Client streams one persona's completion through the relay endpoint.
type Client struct {
	client   *http.Client
	relayURL string
	model    string
}

func NewClient(relayURL, defaultModel string) *Client {
	return &Client{
		client:   &http.Client{},
		relayURL: relayURL,
		model:    defaultModel,
	}
}

type relayRequest struct {
	APIKey   string         `json:"apiKey,omitempty"`
	System   string         `json:"system"`
	Messages []relayMessage `json:"messages"`
	Model    string         `json:"model,omitempty"`
}

type relayMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// framePayload is one decoded `data:` line from the relay.
type framePayload struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Stream sends the conversation to the relay and drives cb until the stream
// terminates. The outbound system prompt is the persona's instruction block
// with the universal formatting directives appended.
func (c *Client) Stream(ctx context.Context, persona model.Persona, history []model.Message, apiKey string, cb Callbacks) {
	msgs := make([]relayMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, relayMessage{Role: m.Role, Content: m.Content})
	}

	payload := relayRequest{
		APIKey:   apiKey,
		System:   SystemPrompt(persona),
		Messages: msgs,
		Model:    c.model,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		cb.OnError(fmt.Sprintf("could not encode request: %v", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewBuffer(body))
	if err != nil {
		cb.OnError(fmt.Sprintf("could not create request: %v", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// An aborted transfer is neither success nor error: stay silent.
		if ctx.Err() != nil {
			return
		}
		cb.OnError(err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(resp.Body)
		cb.OnError("API Error: " + string(errBody))
		return
	}

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := line[len("data: "):]
		if data == DoneSentinel {
			cb.OnDone(full.String())
			return
		}

		var payload framePayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			// Mirrors the relay's own best-effort parsing: a single bad frame
			// never kills an otherwise healthy stream.
			continue
		}
		if payload.Text != "" {
			full.WriteString(payload.Text)
			cb.OnToken(payload.Text)
		}
		if payload.Error != "" {
			cb.OnError(payload.Error)
			return
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return
		}
		cb.OnError(err.Error())
		return
	}

	// Connection closed without a terminal sentinel: treated as completion
	// with whatever accumulated.
	cb.OnDone(full.String())
}
