package comms

import (
	"strings"
	"unicode/utf8"
)

// ChunkContent splits text into chunks of at most maxLen bytes,
// preferring to break at newline boundaries and never inside a rune.
func ChunkContent(text string, maxLen int) []string {
	if maxLen <= 0 || len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	remaining := text

	for len(remaining) > 0 {
		if len(remaining) <= maxLen {
			chunks = append(chunks, remaining)
			break
		}

		breakPoint := maxLen
		for breakPoint > 0 && !utf8.RuneStart(remaining[breakPoint]) {
			breakPoint--
		}
		if breakPoint == 0 {
			breakPoint = maxLen
		}
		if idx := strings.LastIndex(remaining[:maxLen], "\n"); idx > maxLen/2 {
			breakPoint = idx + 1
		}

		chunks = append(chunks, strings.TrimSpace(remaining[:breakPoint]))
		remaining = strings.TrimSpace(remaining[breakPoint:])
	}

	return chunks
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
