package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const whisperAPIURL = "https://api.openai.com/v1/audio/transcriptions"

// WhisperAPI implements transcription using OpenAI's Whisper API
type WhisperAPI struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

// WhisperOption configures WhisperAPI.
type WhisperOption func(*WhisperAPI)

// WithModel sets the transcription model.
func WithModel(model string) WhisperOption {
	return func(w *WhisperAPI) {
		if model != "" {
			w.model = model
		}
	}
}

// WithEndpoint overrides the API endpoint (used by tests and compatible servers).
func WithEndpoint(endpoint string) WhisperOption {
	return func(w *WhisperAPI) {
		w.endpoint = endpoint
	}
}

// NewWhisperAPI creates a new Whisper API transcriber
func NewWhisperAPI(apiKey string, opts ...WhisperOption) *WhisperAPI {
	w := &WhisperAPI{
		apiKey:   apiKey,
		model:    "whisper-1",
		endpoint: whisperAPIURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name returns the transcriber name
func (w *WhisperAPI) Name() string {
	return "whisper-api"
}

// Available checks if Whisper API is available
func (w *WhisperAPI) Available() bool {
	return w.apiKey != ""
}

// Transcribe uploads the recording and returns the recognised text.
func (w *WhisperAPI) Transcribe(ctx context.Context, audio Audio) (*Result, error) {
	if !w.Available() {
		return nil, fmt.Errorf("whisper API not available (no API key)")
	}

	name := audio.Name
	if name == "" {
		name = "voice.ogg"
	}
	// Whisper rejects the Telegram ".oga" extension; the payload is Ogg/Opus.
	if strings.EqualFold(filepath.Ext(name), ".oga") {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".ogg"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio.Data)); err != nil {
		return nil, fmt.Errorf("failed to copy audio to form: %w", err)
	}
	if err := writer.WriteField("model", w.model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("failed to write response_format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp struct {
		Text     string  `json:"text"`
		Language string  `json:"language"`
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse Whisper API response: %w", err)
	}

	return &Result{
		Text:     strings.TrimSpace(apiResp.Text),
		Language: apiResp.Language,
		Duration: apiResp.Duration,
	}, nil
}
