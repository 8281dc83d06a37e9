package gateway

import "context"

// DeliveryRef identifies one delivered message.
type DeliveryRef struct {
	// ChatID is the destination chat.
	ChatID int64
	// MessageID is the delivered message within that chat.
	MessageID int
}

// Document is a file delivered to a chat.
type Document struct {
	// Name is the filename shown to the recipient.
	Name string
	// Contents is the raw file payload.
	Contents []byte
	// Caption is an optional text attached to the document.
	Caption string
}

// SendOptions collects per-call delivery settings.
type SendOptions struct {
	// HTML enables HTML formatting of the message text.
	HTML bool
	// ReplyTo maps a chat id to the message the text should be threaded under.
	ReplyTo map[int64]int
	// Markup is an optional keyboard attached to the message.
	Markup any
}

// SendOption configures a single delivery.
type SendOption func(*SendOptions)

// WithHTML enables HTML formatting of the message text.
func WithHTML() SendOption {
	return func(o *SendOptions) {
		o.HTML = true
	}
}

// WithReplyTo threads the message under an existing message per chat.
// Chats absent from the map receive the text unthreaded.
func WithReplyTo(replyTo map[int64]int) SendOption {
	return func(o *SendOptions) {
		o.ReplyTo = replyTo
	}
}

// WithMarkup attaches a keyboard to the message.
func WithMarkup(markup any) SendOption {
	return func(o *SendOptions) {
		o.Markup = markup
	}
}

// Notifier delivers text to destination chats.
//
// Send attempts delivery to every destination independently: a failure on one
// chat is logged and excluded from the returned refs, the remaining sends
// still run. Callers tolerate an empty result (all destinations failed)
// without treating it as fatal.
type Notifier interface {
	Send(ctx context.Context, chatIDs []int64, text string, opts ...SendOption) []DeliveryRef
	Edit(ctx context.Context, ref DeliveryRef, text string, opts ...SendOption) error
	SendDocument(ctx context.Context, chatID int64, doc Document) error
}

// buildOptions folds the provided options into a settings struct.
func buildOptions(opts []SendOption) *SendOptions {
	options := new(SendOptions)
	for _, opt := range opts {
		opt(options)
	}

	return options
}
