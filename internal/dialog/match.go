package dialog

import (
	"strings"

	"github.com/alekspetrov/weeekbot/internal/directory"
	"github.com/alekspetrov/weeekbot/internal/logging"
)

// ResolutionKind distinguishes the three outcomes of resolving a hint.
type ResolutionKind int

const (
	NotFound ResolutionKind = iota
	Resolved
	Ambiguous
)

func (k ResolutionKind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_found"
	}
}

// Resolution is the tagged result of matching a hint against a roster.
// Value is set for Resolved, Candidates for Ambiguous.
type Resolution[T any] struct {
	Kind       ResolutionKind
	Value      T
	Candidates []T
}

func resolutionOf[T any](matches []T) Resolution[T] {
	switch len(matches) {
	case 0:
		return Resolution[T]{Kind: NotFound}
	case 1:
		return Resolution[T]{Kind: Resolved, Value: matches[0]}
	default:
		return Resolution[T]{Kind: Ambiguous, Candidates: matches}
	}
}

// MatchMembers returns the members that plausibly match query, in roster
// order, each at most once. A member is included when any of these hold
// (case-insensitive):
//
//  1. query equals the first name
//  2. query equals the last name
//  3. query is a substring of the first or last name
//  4. query equals "first last" or "last first"
//  5. query is a substring of either full-name form
//  6. query equals the email
func MatchMembers(query string, members []directory.Member) []directory.Member {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		logging.WithComponent("dialog").Debug("empty member query, no matches")
		return nil
	}

	var out []directory.Member
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if seen[m.ID] {
			continue
		}
		if matchRule(q, m) == 0 {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}

// matchRule returns the number of the first rule q satisfies for m, or 0.
// q must already be lower-cased and trimmed.
func matchRule(q string, m directory.Member) int {
	first := strings.ToLower(strings.TrimSpace(m.FirstName))
	last := strings.ToLower(strings.TrimSpace(m.LastName))
	firstLast := strings.TrimSpace(first + " " + last)
	lastFirst := strings.TrimSpace(last + " " + first)

	switch {
	case first != "" && q == first:
		return 1
	case last != "" && q == last:
		return 2
	case first != "" && strings.Contains(first, q),
		last != "" && strings.Contains(last, q):
		return 3
	case firstLast != "" && (q == firstLast || q == lastFirst):
		return 4
	case firstLast != "" && (strings.Contains(firstLast, q) || strings.Contains(lastFirst, q)):
		return 5
	case m.Email != "" && q == strings.ToLower(strings.TrimSpace(m.Email)):
		return 6
	}
	return 0
}

// Resolve matches query against members and tags the outcome.
func Resolve(query string, members []directory.Member) Resolution[directory.Member] {
	return resolutionOf(MatchMembers(query, members))
}

// MatchTitle resolves hint against items by case-insensitive exact title.
// Several items sharing the title are reported as Ambiguous.
func MatchTitle[T any](hint string, items []T, title func(T) string) Resolution[T] {
	h := strings.TrimSpace(hint)
	if h == "" {
		return Resolution[T]{Kind: NotFound}
	}
	var matches []T
	for _, it := range items {
		if strings.EqualFold(strings.TrimSpace(title(it)), h) {
			matches = append(matches, it)
		}
	}
	return resolutionOf(matches)
}

func projectTitle(p directory.Project) string { return p.Title }
func boardName(b directory.Board) string      { return b.Name }
