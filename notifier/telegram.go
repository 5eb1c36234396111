package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram API limit for a single message text
const telegramMaxMessageLen = 4096

// Telegram sends digests to one chat through the Bot API
type Telegram struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	authorized bool
}

var _ Notifier = (*Telegram)(nil)

// NewTelegram returns a notifier for chatID. A token Telegram rejects is an error;
// when Telegram cannot be reached the bot is authorized on the first digest instead.
func NewTelegram(token string, chatID int64, client *http.Client) (*Telegram, error) {
	return newTelegram(token, tgbotapi.APIEndpoint, chatID, client)
}

func newTelegram(token, endpoint string, chatID int64, client *http.Client) (*Telegram, error) {
	if client == nil {
		client = &http.Client{}
	}
	bot := &tgbotapi.BotAPI{Token: token, Client: client, Buffer: 100}
	bot.SetAPIEndpoint(endpoint)

	t := &Telegram{bot: bot, chatID: chatID}
	if err := t.authorize(); err != nil {
		if tokenRejected(err) {
			return nil, fmt.Errorf("telegram rejected the bot token: %w", err)
		}
		slog.Warn("Telegram unreachable, will authorize on first digest", "error", err)
	}
	return t, nil
}

func (t *Telegram) authorize() error {
	self, err := t.bot.GetMe()
	if err != nil {
		return err
	}
	t.bot.Self = self
	t.authorized = true
	slog.Info("Authorized Telegram bot", "account", self.UserName, "chat_id", t.chatID)
	return nil
}

// tokenRejected reports whether the Bot API refused the token itself (401, or 404 for a malformed one)
func tokenRejected(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusNotFound
}

func (t *Telegram) Name() string { return "telegram" }

// Notify sends the digest, split into several messages when it exceeds the API limit.
// The Bot API client has no context support, so ctx is only checked between parts.
func (t *Telegram) Notify(ctx context.Context, d Digest) error {
	if !t.authorized {
		if err := t.authorize(); err != nil {
			return &DeliveryError{Notifier: t.Name(), Err: fmt.Errorf("authorize: %w", err)}
		}
	}

	parts := splitMessage(d.Text(), telegramMaxMessageLen)
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return &DeliveryError{Notifier: t.Name(), Err: err}
		}

		msg := tgbotapi.NewMessage(t.chatID, part)
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			return &DeliveryError{Notifier: t.Name(), Err: fmt.Errorf("send part %d/%d: %w", i+1, len(parts), err)}
		}
	}

	slog.Debug("Sent Telegram digest", "items", len(d.Items), "parts", len(parts))
	return nil
}

// splitMessage breaks text on line boundaries into parts no longer than maxLen bytes.
// Lines longer than maxLen are cut without splitting a UTF-8 sequence.
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, strings.TrimSuffix(current.String(), "\n"))
			current.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if current.Len()+len(line)+1 > maxLen {
			flush()
		}
		for len(line) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxLen
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	return parts
}
