package extraction

import (
	"errors"
	"testing"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Fields
	}{
		{
			name: "all fields",
			raw: map[string]any{
				"title":        "Prepare report",
				"deadline":     "16.10.2026",
				"assignee":     "Ivan",
				"project_name": "Marketing",
				"board_name":   "Kanban",
			},
			want: Fields{Title: "Prepare report", Deadline: "16.10.2026", Assignee: "Ivan", Project: "Marketing", Board: "Kanban"},
		},
		{
			name: "nulls and missing keys",
			raw:  map[string]any{"title": "Call client", "deadline": nil},
			want: Fields{Title: "Call client"},
		},
		{
			name: "wrong types become absent",
			raw: map[string]any{
				"title":        "Fix bug",
				"assignee":     42.0,
				"project_name": []any{"a", "b"},
				"board_name":   map[string]any{"name": "x"},
				"deadline":     true,
			},
			want: Fields{Title: "Fix bug"},
		},
		{
			name: "string null and whitespace",
			raw:  map[string]any{"title": "  Deploy  ", "assignee": "null", "board_name": "   "},
			want: Fields{Title: "Deploy"},
		},
		{
			name: "nil map",
			raw:  nil,
			want: Fields{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Coerce(tt.raw); got != tt.want {
				t.Errorf("Coerce() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFields(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		f, err := ParseFields(`{"title":"Write tests","assignee":"Anna"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Title != "Write tests" || f.Assignee != "Anna" {
			t.Errorf("unexpected fields: %+v", f)
		}
	})

	t.Run("fenced json", func(t *testing.T) {
		f, err := ParseFields("```json\n{\"title\":\"Write tests\"}\n```")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Title != "Write tests" {
			t.Errorf("Title = %q", f.Title)
		}
	})

	for _, bad := range []string{"not json", "[1,2]", "null", ""} {
		t.Run("malformed "+bad, func(t *testing.T) {
			if _, err := ParseFields(bad); !errors.Is(err, ErrMalformedOutput) {
				t.Errorf("ParseFields(%q) error = %v, want ErrMalformedOutput", bad, err)
			}
		})
	}
}
