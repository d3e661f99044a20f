package model

import "time"

// Persona is a named identity with a fixed instruction block that steers the
// model's response style and claimed positions. Personas are loaded once at
// startup and never mutated.
type Persona struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	ShortName    string   `json:"short_name" yaml:"short_name"`
	Years        string   `json:"years" yaml:"years"`
	Tradition    string   `json:"tradition" yaml:"tradition"`
	Avatar       string   `json:"avatar" yaml:"avatar"`
	Color        string   `json:"color" yaml:"color"`
	Description  string   `json:"description" yaml:"description"`
	KeyWorks     []string `json:"key_works" yaml:"key_works"`
	Distinctives []string `json:"distinctives" yaml:"distinctives"`
	SystemPrompt string   `json:"-" yaml:"system_prompt"`
}

// Message is a single turn in a conversation. Once appended it is never
// edited, only followed by later messages.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	PersonaID string    `json:"persona_id,omitempty"` // assistant messages only
	Timestamp time.Time `json:"timestamp"`

	// Structured annotations. The relay never populates these today; they are
	// carried for exports and future parsing of the closing-notes section.
	ScriptureRefs    []ScriptureRef         `json:"scripture_refs,omitempty"`
	OriginalLanguage []OriginalLanguageNote `json:"original_language,omitempty"`
}

// ScriptureRef is a citation of a passage together with its quoted text.
type ScriptureRef struct {
	Reference string `json:"reference"`
	Text      string `json:"text"`
}

// OriginalLanguageNote is a gloss on a Hebrew or Greek word behind an English
// term in a response.
type OriginalLanguageNote struct {
	Word            string `json:"word"`
	Original        string `json:"original"`
	Language        string `json:"language"` // "hebrew" or "greek"
	Transliteration string `json:"transliteration"`
	Meaning         string `json:"meaning"`
}

// Conversation is a single-persona chat. Messages are append-only and
// chronological; the title is fixed once the first user message arrives.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	PersonaID string    `json:"persona_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComparisonSession pairs one question with several personas' independently
// streamed answers. It is only persisted after every participating stream has
// finished; partial comparisons never reach the store.
type ComparisonSession struct {
	ID         string               `json:"id"`
	Title      string               `json:"title"`
	Question   string               `json:"question"`
	PersonaIDs []string             `json:"persona_ids"`
	Responses  map[string][]Message `json:"responses"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// StreamResponse is a single chunk in a single-chat streaming response.
type StreamResponse struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text,omitempty"`
	Done           bool   `json:"done,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CompareEvent is a single chunk in a comparison stream. Events for different
// personas interleave in arrival order; within one persona they are ordered.
type CompareEvent struct {
	ComparisonID string `json:"comparison_id,omitempty"`
	PersonaID    string `json:"persona_id,omitempty"`
	Text         string `json:"text,omitempty"`
	Done         bool   `json:"done,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Role values used across the API and the upstream provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
