package comms

import "strings"

const choiceSep = ":"

// EncodeChoice builds a choice token from a slot kind and an identifier.
func EncodeChoice(kind, id string) string {
	return kind + choiceSep + id
}

// ParseChoice splits a choice token. The id may be empty (used for "none").
func ParseChoice(token string) (kind, id string, ok bool) {
	kind, id, ok = strings.Cut(strings.TrimSpace(token), choiceSep)
	if !ok || kind == "" {
		return "", "", false
	}
	return kind, id, true
}
