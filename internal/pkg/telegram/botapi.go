package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tutorlink/internal/pkg/httpclient"
)

const apiBase = "https://api.telegram.org/bot"

// BotAPI is a minimal Telegram Bot API client used for admin channel reports.
type BotAPI struct {
	token  string
	client *httpclient.Client
}

// NewBotAPI creates a new direct Telegram Bot API client.
func NewBotAPI(token string) *BotAPI {
	return &BotAPI{
		token: token,
		client: httpclient.New().
			WithTimeout(15*time.Second).
			WithBaseURL(apiBase+token).
			WithHeader("Accept", "application/json"),
	}
}

// WithBaseURL points the client at another API host.
func (b *BotAPI) WithBaseURL(url string) *BotAPI {
	b.client.WithBaseURL(url)
	return b
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Call makes a raw API call to the Telegram Bot API.
func (b *BotAPI) Call(ctx context.Context, method string, params map[string]interface{}) (json.RawMessage, error) {
	body, status, err := b.client.PostJSON(ctx, "/"+method, params)
	if err != nil {
		return nil, fmt.Errorf("telegram API call %s failed: %w", method, err)
	}
	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("telegram API call %s: status %d: decode: %w", method, status, err)
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram API call %s: status %d: %s", method, status, out.Description)
	}
	return out.Result, nil
}

// SendMessage sends an HTML text message.
func (b *BotAPI) SendMessage(ctx context.Context, chatID string, text string) error {
	_, err := b.Call(ctx, "sendMessage", map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	return err
}

// Reporter posts operational reports to one admin chat.
// A nil Reporter, or one without a token or chat, reports nothing.
type Reporter struct {
	api    *BotAPI
	chatID string
}

func NewReporter(api *BotAPI, chatID string) *Reporter {
	return &Reporter{api: api, chatID: chatID}
}

func (r *Reporter) Enabled() bool {
	return r != nil && r.api != nil && r.api.token != "" && r.chatID != ""
}

// Report sends text to the report chat.
func (r *Reporter) Report(ctx context.Context, text string) error {
	if !r.Enabled() {
		return nil
	}
	return r.api.SendMessage(ctx, r.chatID, text)
}
