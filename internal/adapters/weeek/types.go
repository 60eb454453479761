// Package weeek provides a client for the Weeek public API.
package weeek

import (
	"time"

	"github.com/alekspetrov/weeekbot/internal/directory"
)

// DefaultBaseURL is the Weeek public API root.
const DefaultBaseURL = "https://api.weeek.net/public/v1"

// Config holds Weeek client configuration
type Config struct {
	BaseURL  string        `yaml:"base_url"`
	APIToken string        `yaml:"api_token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns default Weeek configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: 30 * time.Second,
	}
}

// envelope carries the fields every Weeek response shares.
type envelope struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type membersResponse struct {
	envelope
	Members []directory.Member `json:"members"`
}

type projectsResponse struct {
	envelope
	Projects []directory.Project `json:"projects"`
}

type boardsResponse struct {
	envelope
	Boards []directory.Board `json:"boards"`
}

type columnsResponse struct {
	envelope
	BoardColumns []directory.Column `json:"boardColumns"`
}

type taskResponse struct {
	envelope
	Task *directory.Task `json:"task"`
}
