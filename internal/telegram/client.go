// Package telegram wraps go-telegram-bot-api as the external chat platform
// client shared by the Notification Router (outbound-only sends) and the
// Interaction Engine (full update polling and inline keyboards).
package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
)

// Client wraps a tgbotapi.BotAPI with SmartChill's send/update surface.
type Client struct {
	api    *tgbotapi.BotAPI
	logger logging.Interface
}

// New constructs a Client authenticated with token.
func New(token string, logger logging.Interface) (*Client, error) {
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authenticating: %w", err)
	}
	return &Client{api: api, logger: logger}, nil
}

// SetDescriptions pushes the bot's profile description and short
// description, matching the `telegram.SET_DESCRIPTIONS_ON_START` knob
// (spec §6).
func (c *Client) SetDescriptions(description, shortDescription string) error {
	if _, err := c.api.Request(tgbotapi.NewSetMyDescription(description, "")); err != nil {
		return fmt.Errorf("telegram: setting description: %w", err)
	}
	if _, err := c.api.Request(tgbotapi.NewSetMyShortDescription(shortDescription, "")); err != nil {
		return fmt.Errorf("telegram: setting short description: %w", err)
	}
	return nil
}

// Send delivers a plain text message to chatID, satisfying
// notifier.Sender.
func (c *Client) Send(chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q: %w", chatID, err)
	}
	msg := tgbotapi.NewMessage(id, text)
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: sending message: %w", err)
	}
	return nil
}

// SendWithKeyboard delivers text alongside an inline keyboard, used by the
// Interaction Engine's configuration flow.
func (c *Client) SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("telegram: sending keyboard message: %w", err)
	}
	return sent.MessageID, nil
}

// AnswerCallback acknowledges an inline button press so Telegram stops
// showing the client-side loading spinner.
func (c *Client) AnswerCallback(callbackID, text string) {
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		c.logger.Warn("answering callback failed", "error", err)
	}
}

// Updates returns the long-polling update channel the Interaction Engine's
// input-poll loop consumes (spec §5).
func (c *Client) Updates(offset int) tgbotapi.UpdatesChannel {
	cfg := tgbotapi.NewUpdate(offset)
	cfg.Timeout = 30
	return c.api.GetUpdatesChan(cfg)
}

// StopReceivingUpdates halts the long-polling loop on shutdown.
func (c *Client) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}
