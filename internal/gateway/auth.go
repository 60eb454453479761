package gateway

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// AuthType defines the authentication method
type AuthType string

const (
	AuthTypeNone     AuthType = "none"
	AuthTypeAPIToken AuthType = "api-token"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	Type  AuthType `yaml:"type"`
	Token string   `yaml:"token,omitempty"`
}

// Authenticator guards the chat endpoint.
type Authenticator struct {
	config *AuthConfig
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(config *AuthConfig) *Authenticator {
	if config == nil {
		config = &AuthConfig{Type: AuthTypeNone}
	}
	return &Authenticator{config: config}
}

// Authenticate validates a request
func (a *Authenticator) Authenticate(r *http.Request) error {
	switch a.config.Type {
	case AuthTypeNone, "":
		return nil
	case AuthTypeAPIToken:
		return a.authenticateAPIToken(r)
	default:
		return errors.New("unknown auth type")
	}
}

func (a *Authenticator) authenticateAPIToken(r *http.Request) error {
	token := extractBearerToken(r)
	if token == "" {
		// Browsers cannot set headers on a websocket handshake.
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return errors.New("missing authorization token")
	}
	if !secureCompare(token, a.config.Token) {
		return errors.New("invalid token")
	}
	return nil
}

// extractBearerToken extracts the bearer token from Authorization header
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) < len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return auth[len(prefix):]
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Middleware returns 401 Unauthorized for requests that fail authentication.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.Authenticate(r); err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
