// Package export renders conversations and comparison sessions as plain-text
// markdown documents for download.
package export

import (
	"fmt"
	"strings"

	"berean/backend/internal/model"
)

// PersonaNamer resolves a persona id to its display name. Unknown ids fall
// back to the raw id so an export never fails.
type PersonaNamer func(id string) string

// Conversation renders a single-persona chat: title heading, metadata lines,
// a horizontal rule, then each message as a labeled paragraph with any
// annotations as a bulleted sub-list.
func Conversation(conv *model.Conversation, name PersonaNamer) string {
	lines := []string{
		"# " + conv.Title,
		"**Theologian:** " + name(conv.PersonaID),
		"**Date:** " + conv.CreatedAt.Format("2006-01-02"),
		"",
		"---",
		"",
	}

	for _, msg := range conv.Messages {
		if msg.Role == model.RoleUser {
			lines = append(lines, "**You:** "+msg.Content, "")
		} else {
			lines = append(lines, "**Response:** "+msg.Content, "")
		}
		lines = appendNotes(lines, msg.OriginalLanguage)
	}

	return strings.Join(lines, "\n")
}

// Comparison renders a settled comparison session: one section per persona in
// dispatch order, each holding that persona's answer.
func Comparison(session *model.ComparisonSession, name PersonaNamer) string {
	lines := []string{
		"# " + session.Title,
		"**Question:** " + session.Question,
		"**Date:** " + session.CreatedAt.Format("2006-01-02"),
		"",
		"---",
		"",
	}

	for _, personaID := range session.PersonaIDs {
		lines = append(lines, "## "+name(personaID), "")
		for _, msg := range session.Responses[personaID] {
			if msg.Role != model.RoleAssistant {
				continue
			}
			lines = append(lines, msg.Content, "")
			lines = appendNotes(lines, msg.OriginalLanguage)
		}
		lines = append(lines, "---", "")
	}

	return strings.Join(lines, "\n")
}

func appendNotes(lines []string, notes []model.OriginalLanguageNote) []string {
	if len(notes) == 0 {
		return lines
	}
	lines = append(lines, "*Original Language Notes:*")
	for _, note := range notes {
		language := "Greek"
		if note.Language == "hebrew" {
			language = "Hebrew"
		}
		lines = append(lines, fmt.Sprintf("- **%s** — %s: *%s* (%s) — %s",
			note.Word, language, note.Original, note.Transliteration, note.Meaning))
	}
	return append(lines, "")
}
