package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alekspetrov/weeekbot/internal/testutil"
)

// fakeBotAPI records Bot API calls and answers them from a per-method table.
type fakeBotAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	results map[string]any
	errors  map[string]apiResponse
	files   map[string][]byte
}

type apiCall struct {
	Method string
	Body   map[string]any
}

func newFakeBotAPI(t *testing.T) (*fakeBotAPI, *Client) {
	t.Helper()
	api := &fakeBotAPI{
		results: make(map[string]any),
		errors:  make(map[string]apiResponse),
		files:   make(map[string][]byte),
	}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return api, NewClient(testutil.FakeTelegramBotToken, WithBaseURL(server.URL))
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filePrefix := "/file/bot" + testutil.FakeTelegramBotToken + "/"
	if strings.HasPrefix(r.URL.Path, filePrefix) {
		data, ok := f.files[strings.TrimPrefix(r.URL.Path, filePrefix)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
		return
	}

	method := strings.TrimPrefix(r.URL.Path, "/bot"+testutil.FakeTelegramBotToken+"/")
	body, _ := io.ReadAll(r.Body)
	var payload map[string]any
	_ = json.Unmarshal(body, &payload)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Body: payload})
	errResp, failing := f.errors[method]
	result, ok := f.results[method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failing {
		w.WriteHeader(errResp.ErrorCode)
		_ = json.NewEncoder(w).Encode(errResp)
		return
	}
	if !ok {
		result = true
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func (f *fakeBotAPI) callsTo(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func TestGetUpdates(t *testing.T) {
	api, client := newFakeBotAPI(t)
	api.results["getUpdates"] = []map[string]any{
		{"update_id": 7, "message": map[string]any{"message_id": 1, "chat": map[string]any{"id": 42}, "text": "hi"}},
		{"update_id": 8, "callback_query": map[string]any{"id": "cb", "data": "project:1"}},
	}

	updates, err := client.GetUpdates(context.Background(), 5, 30)
	if err != nil {
		t.Fatalf("GetUpdates() error = %v", err)
	}
	if len(updates) != 2 || updates[0].Message.Text != "hi" || updates[1].CallbackQuery.Data != "project:1" {
		t.Errorf("updates = %+v", updates)
	}

	body := api.callsTo("getUpdates")[0].Body
	if body["offset"] != float64(5) || body["timeout"] != float64(30) {
		t.Errorf("request body = %v", body)
	}
}

func TestAPIError(t *testing.T) {
	api, client := newFakeBotAPI(t)
	api.errors["sendMessage"] = apiResponse{ErrorCode: 400, Description: "Bad Request: chat not found"}

	_, err := client.SendMessage(context.Background(), 1, "x", "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("SendMessage() error = %v, want *APIError", err)
	}
	if apiErr.Code != 400 || !strings.Contains(apiErr.Error(), "chat not found") {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestCheckSingleton(t *testing.T) {
	tests := []struct {
		name    string
		errResp *apiResponse
		wantErr error
	}{
		{name: "no conflict - bot is free"},
		{
			name:    "conflict - another instance running",
			errResp: &apiResponse{ErrorCode: 409, Description: "Conflict: terminated by other getUpdates request"},
			wantErr: ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, client := newFakeBotAPI(t)
			api.results["getUpdates"] = []any{}
			if tt.errResp != nil {
				api.errors["getUpdates"] = *tt.errResp
			}

			err := client.CheckSingleton(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckSingleton() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("other API error", func(t *testing.T) {
		api, client := newFakeBotAPI(t)
		api.errors["getUpdates"] = apiResponse{ErrorCode: 401, Description: "Unauthorized"}

		err := client.CheckSingleton(context.Background())
		if err == nil || errors.Is(err, ErrConflict) {
			t.Errorf("CheckSingleton() = %v, want a non-conflict error", err)
		}
	})
}

func TestSendMessageWithKeyboard(t *testing.T) {
	api, client := newFakeBotAPI(t)
	api.results["sendMessage"] = map[string]any{"message_id": 99, "chat": map[string]any{"id": 42}}

	msg, err := client.SendMessageWithKeyboard(context.Background(), 42, "Pick", "", [][]InlineKeyboardButton{
		{{Text: "Marketing", CallbackData: "project:1"}},
	})
	if err != nil {
		t.Fatalf("SendMessageWithKeyboard() error = %v", err)
	}
	if msg.MessageID != 99 {
		t.Errorf("MessageID = %d", msg.MessageID)
	}

	body := api.callsTo("sendMessage")[0].Body
	markup, _ := body["reply_markup"].(map[string]any)
	rows, _ := markup["inline_keyboard"].([]any)
	if len(rows) != 1 {
		t.Fatalf("reply_markup = %v", body["reply_markup"])
	}
	button := rows[0].([]any)[0].(map[string]any)
	if button["callback_data"] != "project:1" || button["text"] != "Marketing" {
		t.Errorf("button = %v", button)
	}
}

func TestGetFileAndDownload(t *testing.T) {
	api, client := newFakeBotAPI(t)
	api.results["getFile"] = map[string]any{"file_id": "f1", "file_path": "voice/file_3.oga"}
	api.files["voice/file_3.oga"] = []byte("OggS-data")

	file, err := client.GetFile(context.Background(), "f1")
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	data, err := client.DownloadFile(context.Background(), file.FilePath)
	if err != nil {
		t.Fatalf("DownloadFile() error = %v", err)
	}
	if string(data) != "OggS-data" {
		t.Errorf("data = %q", data)
	}

	if _, err := client.DownloadFile(context.Background(), "missing.oga"); err == nil {
		t.Error("DownloadFile() of a missing file succeeded")
	}
}
