package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

// Config configures the OpenAI-compatible extractor.
type Config struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// OpenAI extracts fields with the chat completions API in JSON mode.
type OpenAI struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
}

// NewOpenAI returns an extractor backed by the OpenAI (or compatible) chat API.
func NewOpenAI(cfg Config) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &OpenAI{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

const systemPrompt = "You are an assistant that parses task descriptions and answers with JSON only."

// userPromptTmpl takes the current date and the task text.
const userPromptTmpl = `Analyse the task text below and extract the following, keeping in mind that today is %s:
1. title: a short, precise task title.
2. deadline: the deadline if one is given, formatted as DD.MM.YYYY.
3. assignee: the name or username of the person responsible, if given.
4. project_name: the project name, if given (e.g. "in project 'Name'").
5. board_name: the board name, if given (e.g. "on board 'Name'").

Task text: "%s"

Answer with a JSON object with exactly these keys. Use null for anything that is missing.`

// Extract implements Extractor.
func (o *OpenAI) Extract(ctx context.Context, text string) (*Fields, error) {
	body := chatRequest{
		Model: o.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPromptTmpl, o.now().Format("2006-01-02"), text)},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("extraction: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("extraction: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction: http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("extraction: read response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("extraction: decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("extraction: API error (%s): %s", out.Error.Type, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction: unexpected status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformedOutput)
	}

	return ParseFields(out.Choices[0].Message.Content)
}
