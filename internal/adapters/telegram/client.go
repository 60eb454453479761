package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	telegramAPIURL = "https://api.telegram.org"
)

// ErrConflict is returned when another process is already polling with the
// same bot token.
var ErrConflict = errors.New("another bot instance is polling with this token")

// APIError is an error reported by the Bot API.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error: %s (code: %d)", e.Description, e.Code)
}

// Client is a Telegram Bot API client
type Client struct {
	botToken   string
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root. Used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new Telegram client
func NewClient(botToken string, opts ...ClientOption) *Client {
	c := &Client{
		botToken: botToken,
		baseURL:  telegramAPIURL,
		httpClient: &http.Client{
			// Must exceed the long-poll timeout.
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

// call posts payload as JSON to a Bot API method and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !result.OK {
		return &APIError{Code: result.ErrorCode, Description: result.Description}
	}

	if out != nil && len(result.Result) > 0 {
		if err := json.Unmarshal(result.Result, out); err != nil {
			return fmt.Errorf("failed to parse %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates retrieves updates using long polling
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]*Update, error) {
	req := map[string]any{
		"offset":          offset,
		"timeout":         timeout,
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []*Update
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// CheckSingleton makes a non-blocking getUpdates call and reports ErrConflict
// if another instance holds the long poll.
func (c *Client) CheckSingleton(ctx context.Context) error {
	_, err := c.GetUpdates(ctx, 0, 0)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		return ErrConflict
	}
	return err
}

// SendMessage sends a message to a chat
func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string) (*Message, error) {
	return c.sendMessage(ctx, SendMessageRequest{ChatID: chatID, Text: text, ParseMode: parseMode})
}

// SendMessageWithKeyboard sends a message with an inline keyboard
func (c *Client) SendMessageWithKeyboard(ctx context.Context, chatID int64, text, parseMode string, keyboard [][]InlineKeyboardButton) (*Message, error) {
	return c.sendMessage(ctx, SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   parseMode,
		ReplyMarkup: &InlineKeyboardMarkup{InlineKeyboard: keyboard},
	})
}

func (c *Client) sendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	var msg Message
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AnswerCallback acknowledges a callback query so the client stops its spinner.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	req := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		req["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", req, nil)
}

// RemoveKeyboard strips the inline keyboard from a sent message.
func (c *Client) RemoveKeyboard(ctx context.Context, chatID, messageID int64) error {
	req := map[string]any{
		"chat_id":      chatID,
		"message_id":   messageID,
		"reply_markup": InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{}},
	}
	return c.call(ctx, "editMessageReplyMarkup", req, nil)
}

// SendChatAction shows a status such as "typing" in the chat.
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return c.call(ctx, "sendChatAction", map[string]any{"chat_id": chatID, "action": action}, nil)
}

// GetFile returns the download path of a file.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var f File
	if err := c.call(ctx, "getFile", map[string]any{"file_id": fileID}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// DownloadFile fetches the content of a file returned by GetFile.
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	url := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.botToken, filePath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
