package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dkozyrev/cavewatch/internal/domain/form"
	"github.com/dkozyrev/cavewatch/internal/export"
	"github.com/dkozyrev/cavewatch/internal/gateway"
	"github.com/dkozyrev/cavewatch/internal/logger"
	"github.com/dkozyrev/cavewatch/internal/service/monitor"
	"github.com/dkozyrev/cavewatch/internal/service/tracker"
)

// Chat commands.
const (
	commandStart         = "start"
	commandTest          = "test"
	commandCount         = "count"
	commandStatus        = "status"
	commandInfo          = "info"
	commandJournal       = "journal"
	commandBroadcastTest = "broadcasttest"
)

// handleUpdate dispatches one inbound update. Every branch is best-effort:
// a handler failure is reported to the chat and logged, never propagated.
func (s *service) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.MyChatMember != nil {
		s.handleMembership(ctx, update.MyChatMember)

		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	switch {
	case msg.WebAppData != nil:
		s.handleSubmission(ctx, msg)
	case msg.IsCommand():
		s.handleCommand(ctx, msg)
	case msg.ReplyToMessage != nil && msg.Text != "":
		s.handleClosure(ctx, msg)
	}
}

func (s *service) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case commandStart:
		s.handleStart(ctx, msg)
	case commandTest:
		s.reply(ctx, msg, fmt.Sprintf("Bot is up. Chat ID: %d ✅", msg.Chat.ID))
	case commandCount:
		s.handleCount(ctx, msg)
	case commandStatus:
		s.handleStatus(ctx, msg)
	case commandInfo:
		s.handleExport(ctx, msg, "active_forms.xlsx", "Active forms", s.tracker.ActiveForms(), export.ActiveWorkbook)
	case commandJournal:
		s.handleExport(ctx, msg, "journal.xlsx", "Submission journal", s.tracker.JournalEntries(), export.JournalWorkbook)
	case commandBroadcastTest:
		s.handleBroadcastTest(ctx, msg)
	}
}

// handleStart greets privately with the web-app keyboard; in a group it
// reports the chat id and records the chat in the directory.
func (s *service) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		s.rememberChat(ctx, msg.Chat.ID, msg.Chat.Title, msg.Chat.Type)

		text := fmt.Sprintf("This chat's ID: %d\nOpen a private chat with me to file a form.", msg.Chat.ID)
		markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Open private chat",
				fmt.Sprintf("https://t.me/%s?start=start", s.tg.Username())),
		))

		s.reply(ctx, msg, text, gateway.WithMarkup(markup))

		return
	}

	if s.cfg.FormURL == "" {
		s.reply(ctx, msg, "Hello! The form URL is not configured yet, ask an admin.")

		return
	}

	keyboard := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.KeyboardButton{
		Text:   "Fill in the form ✍️",
		WebApp: &tgbotapi.WebAppInfo{URL: s.cfg.FormURL},
	}))
	keyboard.ResizeKeyboard = true

	s.reply(ctx, msg, "Hello! Tap the button below to fill in a check-in form.", gateway.WithMarkup(keyboard))
}

// handleSubmission records a web-app form and reports the outcome.
func (s *service) handleSubmission(ctx context.Context, msg *tgbotapi.Message) {
	sub, err := parseSubmission(msg.WebAppData.Data, msg.From)
	if err != nil {
		logger.WarnKV(ctx, "Malformed web-app payload", "user_id", msg.From.ID, "error", err)
		s.reply(ctx, msg, "❌ Could not read the form data, please try again.")

		return
	}

	f, err := s.tracker.Submit(ctx, sub)

	switch {
	case errors.Is(err, tracker.ErrDuplicateActiveForm):
		s.reply(ctx, msg, "❌ You already have an active form. Report back on it before filing a new one.")
	case errors.Is(err, tracker.ErrInvalidSubmission):
		s.reply(ctx, msg, fmt.Sprintf("❌ The form is filled in incorrectly: %v", err))
	case err != nil:
		logger.ErrorKV(ctx, "Submission failed", "user_id", msg.From.ID, "error", err)
		s.reply(ctx, msg, "❌ Something went wrong, please try again.")
	default:
		s.reply(ctx, msg, fmt.Sprintf("✅ Form submitted! Control time: %s.", f.Control))
	}
}

// handleClosure closes the form whose broadcast the user replied to with a
// closure word. Replies that match no broadcast are ignored silently, so
// ordinary chatter under unrelated messages stays unanswered.
func (s *service) handleClosure(ctx context.Context, msg *tgbotapi.Message) {
	if !s.tracker.IsClosureWord(msg.Text) {
		return
	}

	err := s.tracker.Close(ctx, msg.Chat.ID, msg.ReplyToMessage.MessageID, msg.From.ID)

	switch {
	case errors.Is(err, tracker.ErrFormNotFound):
		return
	case errors.Is(err, tracker.ErrNotAllowed):
		s.reply(ctx, msg, "❌ Only the form owner or an admin can close it.")
	case err != nil:
		logger.ErrorKV(ctx, "Closure failed", "chat_id", msg.Chat.ID, "error", err)
	default:
		s.reply(ctx, msg, "👍 Reported back, the form is closed.")
	}
}

// handleCount reports the active total broken down by system.
func (s *service) handleCount(ctx context.Context, msg *tgbotapi.Message) {
	counts := s.tracker.CountBySystem()
	total := s.tracker.ActiveCount()

	if total == 0 {
		s.reply(ctx, msg, "No active forms.")

		return
	}

	systems := make([]string, 0, len(counts))
	for system := range counts {
		systems = append(systems, system)
	}

	sort.Strings(systems)

	lines := make([]string, 0, len(systems)+1)
	lines = append(lines, fmt.Sprintf("Active forms: %d", total))

	for _, system := range systems {
		lines = append(lines, fmt.Sprintf("• %s: %d", system, counts[system]))
	}

	s.reply(ctx, msg, strings.Join(lines, "\n"))
}

// handleStatus reports every active form with its deadlines and deep links.
func (s *service) handleStatus(ctx context.Context, msg *tgbotapi.Message) {
	active := s.tracker.ActiveForms()
	if len(active) == 0 {
		s.reply(ctx, msg, "No active forms.")

		return
	}

	s.reply(ctx, msg, monitor.AggregateSummary(active), gateway.WithHTML())
}

// handleExport renders the given form set as a workbook and sends it back.
// Export commands only work in a private chat.
func (s *service) handleExport(
	ctx context.Context,
	msg *tgbotapi.Message,
	name, caption string,
	rows []*form.Form,
	render func([]*form.Form) ([]byte, error),
) {
	if !msg.Chat.IsPrivate() {
		s.reply(ctx, msg, "This command works only in a private chat.")

		return
	}

	if len(rows) == 0 {
		s.reply(ctx, msg, "Nothing to export.")

		return
	}

	contents, err := render(rows)
	if err != nil {
		logger.ErrorKV(ctx, "Workbook render failed", "name", name, "error", err)
		s.reply(ctx, msg, "❌ Could not build the report.")

		return
	}

	doc := gateway.Document{Name: name, Contents: contents, Caption: caption}
	if err := s.tg.SendDocument(ctx, msg.Chat.ID, doc); err != nil {
		logger.ErrorKV(ctx, "Report delivery failed", "name", name, "error", err)
		s.reply(ctx, msg, "❌ Could not deliver the report.")
	}
}

// handleBroadcastTest sends a probe message to the alarm chat. Admin only.
func (s *service) handleBroadcastTest(ctx context.Context, msg *tgbotapi.Message) {
	if !s.cfg.IsAdmin(msg.From.ID) {
		s.reply(ctx, msg, "❌ Admins only.")

		return
	}

	refs := s.tg.Send(ctx, []int64{s.cfg.AlarmChatID}, "📣 Broadcast test, please ignore.")
	if len(refs) == 0 {
		s.reply(ctx, msg, "❌ The alarm chat did not accept the broadcast.")

		return
	}

	s.reply(ctx, msg, "✅ Broadcast delivered to the alarm chat.")
}

// handleMembership tracks group chats the bot is added to.
func (s *service) handleMembership(ctx context.Context, member *tgbotapi.ChatMemberUpdated) {
	chat := member.Chat
	if !chat.IsGroup() && !chat.IsSuperGroup() {
		return
	}

	s.rememberChat(ctx, chat.ID, chat.Title, chat.Type)
}

// rememberChat records a group chat in the directory, best-effort.
func (s *service) rememberChat(ctx context.Context, chatID int64, title, chatType string) {
	if title == "" {
		title = fmt.Sprintf("%s %d", chatType, chatID)
	}

	if known, ok := s.known[chatID]; ok && known == title {
		return
	}

	s.known[chatID] = title

	if err := s.directory.Save(ctx, s.known); err != nil {
		logger.ErrorKV(ctx, "Failed to persist chat directory", "chat_id", chatID, "error", err)
	}

	logger.InfoKV(ctx, "Chat recorded", "chat_id", chatID, "title", title)
}

// reply sends the text back into the chat the message came from.
func (s *service) reply(ctx context.Context, msg *tgbotapi.Message, text string, opts ...gateway.SendOption) {
	opts = append(opts, gateway.WithReplyTo(map[int64]int{msg.Chat.ID: msg.MessageID}))
	s.tg.Send(ctx, []int64{msg.Chat.ID}, text, opts...)
}
