package gateway

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/dkozyrev/cavewatch/internal/domain/form"
)

// supergroupPrefix is the numeric prefix Telegram gives supergroup chat ids.
const supergroupPrefix = "-100"

// noLink is shown when a delivered message cannot be linked to.
const noLink = "no link"

// MessageLink builds a t.me deep link to a message. Only chats carrying the
// supergroup prefix are addressable; for anything else ok is false.
func MessageLink(chatID int64, messageID int) (string, bool) {
	s := strconv.FormatInt(chatID, 10)
	if !strings.HasPrefix(s, supergroupPrefix) {
		return "", false
	}

	return fmt.Sprintf("https://t.me/c/%s/%d", s[len(supergroupPrefix):], messageID), true
}

// RefLinks renders the deep links of delivered report messages, joined with
// " | ". Refs that cannot be linked render as "no link", and an empty ref
// list renders as a single "no link".
func RefLinks(refs []form.ReportRef) string {
	if len(refs) == 0 {
		return noLink
	}

	links := make([]string, 0, len(refs))

	for _, ref := range refs {
		link, ok := MessageLink(ref.ChatID, ref.MessageID)
		if !ok {
			link = noLink
		}

		links = append(links, link)
	}

	return strings.Join(links, " | ")
}

// Mention renders an HTML mention that notifies the user when delivered.
func Mention(userID int64, name string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, userID, html.EscapeString(name))
}
