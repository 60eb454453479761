package directory

import (
	"errors"
	"fmt"
	"testing"
)

func TestMemberDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		member Member
		want   string
	}{
		{"full name", Member{ID: "u1", FirstName: "Ivan", LastName: "Petrov"}, "Ivan Petrov"},
		{"first only", Member{ID: "u1", FirstName: "Ivan"}, "Ivan"},
		{"last only", Member{ID: "u1", LastName: "Petrov"}, "Petrov"},
		{"email fallback", Member{ID: "u1", Email: "ivan@example.com"}, "ivan@example.com"},
		{"id fallback", Member{ID: "u1"}, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.member.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIErrorUnwrapsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("list projects: %w", &APIError{Status: 503, Message: "maintenance"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As failed to find *APIError")
	}
	if apiErr.Status != 503 || apiErr.Message != "maintenance" {
		t.Errorf("unexpected APIError: %+v", apiErr)
	}
	if got := apiErr.Error(); got != "weeek API error (status 503): maintenance" {
		t.Errorf("Error() = %q", got)
	}
}
