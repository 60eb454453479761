// Package transcription provides speech-to-text backends.
package transcription

import (
	"context"
	"errors"
	"fmt"
)

// Audio is an in-memory voice recording. Name carries the original file
// name so the backend can infer the container format (e.g. "voice.oga").
type Audio struct {
	Name string
	Data []byte
}

// Result is the outcome of a transcription. An empty Text is a valid
// result and means nothing intelligible was said.
type Result struct {
	Text     string
	Language string  // ISO 639-1 code, when the backend reports it
	Duration float64 // seconds
}

// Transcriber is the interface for speech-to-text services
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (*Result, error)
	Name() string
	Available() bool
}

// Config holds transcription configuration
type Config struct {
	Backend      string `yaml:"backend"`        // "whisper-api"
	OpenAIAPIKey string `yaml:"openai_api_key"` // falls back to openai.api_key
	Model        string `yaml:"model"`
}

// DefaultConfig returns default transcription configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: "whisper-api",
		Model:   "whisper-1",
	}
}

// ErrEmptyAudio is returned for recordings without data.
var ErrEmptyAudio = errors.New("transcription: empty audio")

// Service wraps a primary backend and an optional fallback.
type Service struct {
	primary  Transcriber
	fallback Transcriber
}

// NewService creates a transcription service from configuration.
func NewService(config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Backend != "" && config.Backend != "whisper-api" && config.Backend != "auto" {
		return nil, fmt.Errorf("unknown transcription backend %q", config.Backend)
	}
	if config.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OpenAI API key required for transcription (set openai.api_key in config)")
	}
	return NewServiceWith(NewWhisperAPI(config.OpenAIAPIKey, WithModel(config.Model)), nil), nil
}

// NewServiceWith builds a service from explicit backends.
func NewServiceWith(primary, fallback Transcriber) *Service {
	return &Service{primary: primary, fallback: fallback}
}

// Transcribe runs the primary backend and, on failure, the fallback.
func (s *Service) Transcribe(ctx context.Context, audio Audio) (*Result, error) {
	if len(audio.Data) == 0 {
		return nil, ErrEmptyAudio
	}

	result, err := s.primary.Transcribe(ctx, audio)
	if err == nil {
		return result, nil
	}
	if s.fallback == nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	result, ferr := s.fallback.Transcribe(ctx, audio)
	if ferr != nil {
		return nil, fmt.Errorf("transcription failed (primary and fallback): %w", errors.Join(err, ferr))
	}
	return result, nil
}

// Available returns true if at least one backend is usable.
func (s *Service) Available() bool {
	if s.primary != nil && s.primary.Available() {
		return true
	}
	return s.fallback != nil && s.fallback.Available()
}

// BackendName returns the name of the primary backend.
func (s *Service) BackendName() string {
	if s.primary != nil {
		return s.primary.Name()
	}
	return "none"
}
