// Package telegram is the boundary to the Telegram Bot API: outbound
// message delivery, webhook registration, and inbound update parsing.
package telegram

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

const defaultBaseURL = "https://api.telegram.org"

// InlineKeyboardButton is one selectable option in an inline keyboard.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// InlineKeyboardMarkup is an inline keyboard: ordered rows of buttons.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// Client is a thin Bot API client. It only covers what the bot needs:
// sendMessage and setWebhook.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient creates a Bot API client for the given token. An empty token
// yields a client whose calls fail with a "not configured" error; the
// process still starts.
func NewClient(token string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
		token:   token,
	}
}

// SendMessage delivers text (HTML parse mode) and an optional inline
// keyboard to a chat. Delivery is best-effort: callers log and drop errors.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error {
	if c.token == "" {
		return fmt.Errorf("telegram token not set")
	}
	req := sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	}
	return c.call(ctx, "sendMessage", req)
}

// SetWebhook registers the given URL as the bot's webhook endpoint.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	if c.token == "" {
		return fmt.Errorf("telegram token not set")
	}
	return c.call(ctx, "setWebhook", map[string]string{"url": url})
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram %s: http %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if !out.OK {
		return fmt.Errorf("telegram %s: ok=false: %s", method, out.Description)
	}
	return nil
}
