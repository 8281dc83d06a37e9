package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkozyrev/cavewatch/internal/config"
	"github.com/dkozyrev/cavewatch/internal/logger"
)

const (
	// updateTimeoutSeconds is the long-poll timeout for the update stream.
	updateTimeoutSeconds = 30

	// sendRetries bounds delivery attempts per destination.
	sendRetries = 3
)

// Telegram implements Notifier on top of the Telegram Bot API.
type Telegram struct {
	// api is the underlying Bot API client.
	api *tgbotapi.BotAPI

	// sendTimeout bounds a single delivery including retries.
	sendTimeout time.Duration
}

// Option configures the Telegram gateway.
type Option func(*Telegram)

// WithSendTimeout bounds a single delivery including retries.
func WithSendTimeout(timeout time.Duration) Option {
	return func(t *Telegram) {
		if timeout > 0 {
			t.sendTimeout = timeout
		}
	}
}

// NewTelegram authorizes the bot and returns a gateway ready to deliver.
func NewTelegram(token string, opts ...Option) (*Telegram, error) {
	t := &Telegram{
		sendTimeout: config.DefaultSendTimeout,
	}

	for _, opt := range opts {
		opt(t)
	}

	// The HTTP client must outlive the long poll, so its timeout stacks the
	// poll window on top of the per-send bound.
	client := &http.Client{
		Timeout: updateTimeoutSeconds*time.Second + t.sendTimeout,
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}

	t.api = api

	return t, nil
}

// Username returns the authorized bot's username.
func (t *Telegram) Username() string {
	return t.api.Self.UserName
}

// Updates starts the long-poll update stream.
func (t *Telegram) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeoutSeconds

	return t.api.GetUpdatesChan(u)
}

// StopUpdates stops the long-poll update stream.
func (t *Telegram) StopUpdates() {
	t.api.StopReceivingUpdates()
}

// Send delivers the text to every destination chat independently. A failed
// destination is logged and excluded from the returned refs; the remaining
// destinations are still attempted.
func (t *Telegram) Send(ctx context.Context, chatIDs []int64, text string, opts ...SendOption) []DeliveryRef {
	options := buildOptions(opts)
	refs := make([]DeliveryRef, 0, len(chatIDs))

	for _, chatID := range chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if options.HTML {
			msg.ParseMode = tgbotapi.ModeHTML
		}

		if replyTo, ok := options.ReplyTo[chatID]; ok {
			msg.ReplyToMessageID = replyTo
		}

		if options.Markup != nil {
			msg.ReplyMarkup = options.Markup
		}

		sent, err := t.deliver(ctx, msg)
		if err != nil {
			logger.ErrorKV(ctx, "Message delivery failed", "chat_id", chatID, "error", err)

			continue
		}

		refs = append(refs, DeliveryRef{ChatID: chatID, MessageID: sent.MessageID})
	}

	return refs
}

// Edit replaces the text of an already delivered message.
func (t *Telegram) Edit(ctx context.Context, ref DeliveryRef, text string, opts ...SendOption) error {
	options := buildOptions(opts)

	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	if options.HTML {
		edit.ParseMode = tgbotapi.ModeHTML
	}

	if _, err := t.deliver(ctx, edit); err != nil {
		return fmt.Errorf("edit message %d in chat %d: %w", ref.MessageID, ref.ChatID, err)
	}

	return nil
}

// SendDocument delivers a file to the chat.
func (t *Telegram) SendDocument(ctx context.Context, chatID int64, doc Document) error {
	cfg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  doc.Name,
		Bytes: doc.Contents,
	})
	cfg.Caption = doc.Caption

	if _, err := t.deliver(ctx, cfg); err != nil {
		return fmt.Errorf("send document to chat %d: %w", chatID, err)
	}

	return nil
}

// deliver performs one API call with bounded retries.
func (t *Telegram) deliver(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	sendCtx, cancel := context.WithTimeout(ctx, t.sendTimeout)
	defer cancel()

	var sent tgbotapi.Message

	operation := func() error {
		msg, err := t.api.Send(c)
		if err != nil {
			return err
		}

		sent = msg

		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), sendRetries), sendCtx)
	if err := backoff.Retry(operation, policy); err != nil {
		return tgbotapi.Message{}, err
	}

	return sent, nil
}
