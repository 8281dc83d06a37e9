package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TestParseSubmission verifies payload decoding and field trimming.
func TestParseSubmission(t *testing.T) {
	t.Parallel()

	from := &tgbotapi.User{ID: 42, UserName: "maria", FirstName: "Maria"}

	data := `{
		"name": " Maria K. ",
		"system": "North shaft",
		"date_down": "2025-02-28",
		"time_down": "09:00",
		"date_up": "2025-03-01",
		"time_up": "20:00",
		"control": " 23:00 ",
		"participants": "solo",
		"purpose": "survey",
		"phone": "+7 900 000-00-00",
		"additional": ""
	}`

	sub, err := parseSubmission(data, from)
	require.NoError(t, err)

	require.Equal(t, int64(42), sub.SubmitterID)
	require.Equal(t, "Maria K. (@maria)", sub.DisplayName)
	require.Equal(t, "North shaft", sub.System)
	require.Equal(t, "2025-02-28", sub.DepartureDate)
	require.Equal(t, "09:00", sub.DepartureTime)
	require.Equal(t, "2025-03-01", sub.ExitDate)
	require.Equal(t, "20:00", sub.ExitTime)
	require.Equal(t, "23:00", sub.Control)
	require.Equal(t, "solo", sub.Participants)
}

// TestParseSubmission_RejectsGarbage verifies non-JSON payloads error out.
func TestParseSubmission_RejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := parseSubmission("not json", &tgbotapi.User{ID: 1})
	require.Error(t, err)
}

// TestDisplayName walks the handle fallback chain.
func TestDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		reported string
		from     *tgbotapi.User
		want     string
	}{
		{
			name:     "name with username",
			reported: "Maria K.",
			from:     &tgbotapi.User{UserName: "maria"},
			want:     "Maria K. (@maria)",
		},
		{
			name:     "name without username falls back to full name",
			reported: "Maria K.",
			from:     &tgbotapi.User{FirstName: "Maria", LastName: "K"},
			want:     "Maria K. (Maria K)",
		},
		{
			name:     "empty name uses handle alone",
			reported: "",
			from:     &tgbotapi.User{UserName: "maria"},
			want:     "@maria",
		},
		{
			name:     "nothing but a first name",
			reported: "",
			from:     &tgbotapi.User{FirstName: "Maria"},
			want:     "Maria",
		},
		{
			name:     "name only",
			reported: "Maria K.",
			from:     &tgbotapi.User{},
			want:     "Maria K.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, displayName(tt.reported, tt.from))
		})
	}
}

// fakeDirectory records saves in memory.
type fakeDirectory struct {
	saved map[int64]string
	calls int
}

func (f *fakeDirectory) Load(context.Context) (map[int64]string, error) {
	return f.saved, nil
}

func (f *fakeDirectory) Save(_ context.Context, known map[int64]string) error {
	f.saved = make(map[int64]string, len(known))
	for id, title := range known {
		f.saved[id] = title
	}

	f.calls++

	return nil
}

// TestRememberChat verifies the directory gains new chats once and skips
// repeated sightings of an unchanged title.
func TestRememberChat(t *testing.T) {
	t.Parallel()

	dir := new(fakeDirectory)
	s := &service{directory: dir, known: make(map[int64]string)}

	s.rememberChat(context.Background(), -1001234567890, "Rescue HQ", "supergroup")
	s.rememberChat(context.Background(), -1001234567890, "Rescue HQ", "supergroup")
	require.Equal(t, 1, dir.calls)
	require.Equal(t, "Rescue HQ", dir.saved[-1001234567890])

	// Untitled chats fall back to a type/id label.
	s.rememberChat(context.Background(), -42, "", "group")
	require.Equal(t, "group -42", dir.saved[-42])
}
