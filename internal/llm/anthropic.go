package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StreamChunk is a LOCAL type for the llm package: one normalized piece of an
// upstream completion stream. Exactly one of Text or Err is set.
type StreamChunk struct {
	Text string
	Err  string
}

// Message is a single turn sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessagesRequest is the body of an Anthropic Messages API call.
type MessagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream"`
}

// Provider defines the interface for the upstream completion provider.
type Provider interface {
	// StreamMessages opens one streaming completion request and pushes
	// normalized chunks into ch. The channel is always closed before
	// returning. Pre-stream rejections and mid-stream transport failures are
	// reported as a single Err chunk; context cancellation produces no chunk.
	StreamMessages(ctx context.Context, apiKey string, req *MessagesRequest, ch chan<- StreamChunk) error
}

const anthropicVersion = "2023-06-01"

type anthropicProvider struct {
	client *http.Client
	url    string
}

func NewAnthropicProvider(url string) Provider {
	return &anthropicProvider{
		// No client timeout: a stream stays open as long as the model talks.
		client: &http.Client{},
		url:    strings.TrimRight(url, "/"),
	}
}

// streamEvent covers the one upstream frame shape we care about. Every other
// frame type (message_start, ping, content_block_stop, ...) is dropped.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

func (p *anthropicProvider) StreamMessages(ctx context.Context, apiKey string, req *MessagesRequest, ch chan<- StreamChunk) error {
	defer close(ch)

	req.Stream = true
	body, err := json.Marshal(req)
	if err != nil {
		ch <- StreamChunk{Err: "could not encode upstream request"}
		return fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/v1/messages", bytes.NewBuffer(body))
	if err != nil {
		ch <- StreamChunk{Err: "could not create upstream request"}
		return fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ch <- StreamChunk{Err: err.Error()}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		msg := fmt.Sprintf("Anthropic API error: %d - %s", resp.StatusCode, string(bodyBytes))
		select {
		case ch <- StreamChunk{Err: msg}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return fmt.Errorf("api returned non-2xx status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	// Upstream frames can outgrow the default 64K token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt streamEvent
		if err := json.Unmarshal([]byte(line[len("data: "):]), &evt); err != nil {
			// Best-effort parsing: a malformed frame never kills the stream.
			continue
		}
		if evt.Type != "content_block_delta" || evt.Delta.Text == "" {
			continue
		}
		select {
		case ch <- StreamChunk{Text: evt.Delta.Text}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case ch <- StreamChunk{Err: err.Error()}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return fmt.Errorf("upstream stream failed: %w", err)
	}
	return nil
}
