// Package extraction turns free-form task text into a first-draft field set.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedOutput is returned when the model answered but the payload
// cannot be read as a JSON object.
var ErrMalformedOutput = errors.New("extraction: malformed model output")

// Fields is the extracted draft. Empty strings mean "absent".
type Fields struct {
	Title    string
	Deadline string
	Assignee string
	Project  string
	Board    string
}

// Extractor is the text-to-fields oracle.
type Extractor interface {
	Extract(ctx context.Context, text string) (*Fields, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, text string) (*Fields, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, text string) (*Fields, error) {
	return f(ctx, text)
}

// Payload keys, as requested from the model.
const (
	keyTitle    = "title"
	keyDeadline = "deadline"
	keyAssignee = "assignee"
	keyProject  = "project_name"
	keyBoard    = "board_name"
)

// Coerce builds Fields from a decoded JSON object. Missing keys, nulls and
// values that are not strings are treated as absent.
func Coerce(raw map[string]any) Fields {
	return Fields{
		Title:    stringField(raw, keyTitle),
		Deadline: stringField(raw, keyDeadline),
		Assignee: stringField(raw, keyAssignee),
		Project:  stringField(raw, keyProject),
		Board:    stringField(raw, keyBoard),
	}
}

func stringField(raw map[string]any, key string) string {
	s, ok := raw[key].(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") {
		return ""
	}
	return s
}

// ParseFields decodes a model reply. Markdown code fences around the JSON
// object are tolerated.
func ParseFields(content string) (*Fields, error) {
	content = stripFences(content)

	var raw map[string]any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedOutput)
	}

	f := Coerce(raw)
	return &f, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line, e.g. ```json
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
