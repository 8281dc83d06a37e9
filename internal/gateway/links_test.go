package gateway

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkozyrev/cavewatch/internal/domain/form"
)

// TestMessageLink verifies only supergroup chats produce deep links.
func TestMessageLink(t *testing.T) {
	t.Parallel()

	link, ok := MessageLink(-1001234567890, 42)
	require.True(t, ok)
	require.Equal(t, "https://t.me/c/1234567890/42", link)

	_, ok = MessageLink(-987654321, 42)
	require.False(t, ok)

	_, ok = MessageLink(123456, 42)
	require.False(t, ok)
}

// TestRefLinks verifies joined rendering with fallbacks for unlinkable refs.
func TestRefLinks(t *testing.T) {
	t.Parallel()

	require.Equal(t, "no link", RefLinks(nil))

	refs := []form.ReportRef{
		{ChatID: -1001234567890, MessageID: 42},
		{ChatID: -987654321, MessageID: 43},
	}
	require.Equal(t, "https://t.me/c/1234567890/42 | no link", RefLinks(refs))
}

// TestMention verifies names are escaped inside the mention link.
func TestMention(t *testing.T) {
	t.Parallel()

	got := Mention(7, "A <B> & C")
	require.Equal(t, `<a href="tg://user?id=7">A &lt;B&gt; &amp; C</a>`, got)
}
