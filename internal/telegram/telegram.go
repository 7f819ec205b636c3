// Package telegram wraps the chat transport: formatted replies with inline
// action controls, in-place edits, callback acknowledgment, and resolution
// of transient file references (voice notes, photos) to raw bytes.
package telegram

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client is a thin wrapper around the Bot API.
type Client struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
	files  *http.Client
}

// NewClient authenticates against the Bot API with the given token.
func NewClient(logger *slog.Logger, token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Authenticated with Telegram.", "username", bot.Self.UserName)
	return &Client{
		bot:    bot,
		logger: logger,
		files:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Send delivers an HTML-formatted message. Link previews are disabled so
// calendar deep links don't expand into cards.
func (c *Client) Send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := c.bot.Send(msg); err != nil {
		c.logger.Error("Failed to send message", "chatID", chatID, "error", err)
	}
}

// SendWithButton delivers an HTML message carrying a single inline button
// whose callback data is an opaque action token.
func (c *Client) SendWithButton(chatID int64, text, buttonText, callbackData string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(buttonText, callbackData),
		),
	)
	if _, err := c.bot.Send(msg); err != nil {
		c.logger.Error("Failed to send message with button", "chatID", chatID, "error", err)
	}
}

// Edit rewrites a previously sent message in place, dropping any inline
// keyboard it carried.
func (c *Client) Edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := c.bot.Send(edit); err != nil {
		c.logger.Error("Failed to edit message", "chatID", chatID, "messageID", messageID, "error", err)
	}
}

// AnswerCallback acknowledges a UI callback so the client stops showing a
// spinner. The transport requires this regardless of business outcome.
func (c *Client) AnswerCallback(callbackID string) {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		c.logger.Error("Failed to answer callback", "error", err)
	}
}

// SendDocument uploads a small in-memory file to the chat.
func (c *Client) SendDocument(chatID int64, name string, data []byte) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	if _, err := c.bot.Send(doc); err != nil {
		c.logger.Error("Failed to send document", "chatID", chatID, "error", err)
	}
}

// FileBytes resolves a transient file reference to its content.
func (c *Client) FileBytes(fileID string) ([]byte, error) {
	url, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file %s: %w", fileID, err)
	}

	res, err := c.files.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file %s: status %d", fileID, res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

// SetWebhook registers url as the inbound webhook for this bot.
func (c *Client) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if _, err := c.bot.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	c.logger.Info("Webhook registered.", "url", url)
	return nil
}

// ParseChatID converts the configured owner chat id to the transport's
// numeric form.
func ParseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q: %w", s, err)
	}
	return id, nil
}
