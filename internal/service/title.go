package service

// titleMaxLen is the fixed width of derived titles.
const titleMaxLen = 60

// deriveTitle turns the first user message (or a comparison question) into a
// session title: verbatim up to 60 characters, otherwise the first 57 plus an
// ellipsis marker, for exactly 60.
func deriveTitle(text string) string {
	if len(text) <= titleMaxLen {
		return text
	}
	return text[:titleMaxLen-3] + "..."
}
