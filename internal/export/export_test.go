package export_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"berean/backend/internal/export"
	"berean/backend/internal/model"
)

func staticNamer(t *testing.T) export.PersonaNamer {
	t.Helper()
	names := map[string]string{
		"sproul": "R.C. Sproul",
		"calvin": "John Calvin",
	}
	return func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return id
	}
}

func TestConversation(t *testing.T) {
	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	conv := &model.Conversation{
		ID:        "conv-1",
		Title:     "On the holiness of God",
		PersonaID: "sproul",
		CreatedAt: created,
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "Why is holiness central?"},
			{
				Role:      model.RoleAssistant,
				PersonaID: "sproul",
				Content:   "Because **holy** (Hebrew: *qadosh*) means set apart.",
				OriginalLanguage: []model.OriginalLanguageNote{{
					Word:            "holy",
					Original:        "קָדוֹשׁ",
					Language:        "hebrew",
					Transliteration: "qadosh",
					Meaning:         "set apart, utterly distinct",
				}},
			},
		},
	}

	doc := export.Conversation(conv, staticNamer(t))

	lines := strings.Split(doc, "\n")
	assert.Equal(t, "# On the holiness of God", lines[0])
	assert.Equal(t, "**Theologian:** R.C. Sproul", lines[1])
	assert.Equal(t, "**Date:** 2026-03-14", lines[2])
	assert.Equal(t, "---", lines[4])

	assert.Contains(t, doc, "**You:** Why is holiness central?")
	assert.Contains(t, doc, "**Response:** Because **holy** (Hebrew: *qadosh*) means set apart.")
	assert.Contains(t, doc, "*Original Language Notes:*")
	assert.Contains(t, doc, "- **holy** — Hebrew: *קָדוֹשׁ* (qadosh) — set apart, utterly distinct")
}

func TestComparison(t *testing.T) {
	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	question := "What does Romans 9 teach about election?"
	session := &model.ComparisonSession{
		ID:         "cmp-1",
		Title:      question,
		Question:   question,
		PersonaIDs: []string{"sproul", "calvin"},
		CreatedAt:  created,
		Responses: map[string][]model.Message{
			"sproul": {
				{Role: model.RoleUser, Content: question},
				{Role: model.RoleAssistant, PersonaID: "sproul", Content: "Paul grounds election in God's freedom."},
			},
			"calvin": {
				{Role: model.RoleUser, Content: question},
				{Role: model.RoleAssistant, PersonaID: "calvin", Content: "Election flows from God's eternal decree."},
			},
		},
	}

	doc := export.Comparison(session, staticNamer(t))

	assert.True(t, strings.HasPrefix(doc, "# "+question))
	assert.Contains(t, doc, "**Question:** "+question)
	assert.Contains(t, doc, "**Date:** 2026-03-14")

	// Sections follow dispatch order, not map order, and hold only the
	// assistant's answer.
	sproulIdx := strings.Index(doc, "## R.C. Sproul")
	calvinIdx := strings.Index(doc, "## John Calvin")
	assert.Greater(t, calvinIdx, sproulIdx)
	assert.Contains(t, doc, "Paul grounds election in God's freedom.")
	assert.Contains(t, doc, "Election flows from God's eternal decree.")
	assert.NotContains(t, doc, "**You:**")
}

func TestConversation_UnknownPersonaFallsBackToID(t *testing.T) {
	conv := &model.Conversation{
		Title:     "Untitled",
		PersonaID: "unknown-id",
		CreatedAt: time.Now(),
	}
	doc := export.Conversation(conv, staticNamer(t))
	assert.Contains(t, doc, "**Theologian:** unknown-id")
}
