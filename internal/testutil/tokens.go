// Package testutil provides testing utilities for weeekbot.
package testutil

// Obviously fake credentials so secret scanners never flag test fixtures.
const (
	// FakeTelegramBotToken is a safe test token for the Telegram Bot API.
	FakeTelegramBotToken = "test-telegram-bot-token"

	// FakeWeeekAPIToken is a safe test bearer token for the Weeek API.
	FakeWeeekAPIToken = "test-weeek-api-token"

	// FakeOpenAIKey is a safe test API key for OpenAI.
	FakeOpenAIKey = "test-openai-api-key"
)
