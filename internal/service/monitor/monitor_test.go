package monitor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkozyrev/cavewatch/internal/domain/form"
	"github.com/dkozyrev/cavewatch/internal/gateway"
)

//nolint:gochecknoglobals // Shared fixture zone for monitor tests.
var testZone = time.FixedZone("UTC+3", 3*60*60)

const testAlarmChat int64 = -1002222222222

// fakeTracker mirrors the flag semantics of the real tracker in memory.
type fakeTracker struct {
	forms map[int64]*form.Form
}

func (f *fakeTracker) ActiveForms() []*form.Form {
	result := make([]*form.Form, 0, len(f.forms))
	for _, fm := range f.forms {
		result = append(result, fm.Clone())
	}

	return result
}

func (f *fakeTracker) MarkNotExited(_ context.Context, submitterID int64) {
	if fm, ok := f.forms[submitterID]; ok {
		fm.NotExitedNotified = true
	}
}

func (f *fakeTracker) MarkAlarmed(_ context.Context, submitterID int64) {
	if fm, ok := f.forms[submitterID]; ok {
		fm.AlarmNotified = true
	}
}

// fakeNotifier records deliveries.
type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Send(_ context.Context, chatIDs []int64, text string, _ ...gateway.SendOption) []gateway.DeliveryRef {
	refs := make([]gateway.DeliveryRef, 0, len(chatIDs))

	for _, chatID := range chatIDs {
		f.sent = append(f.sent, text)
		refs = append(refs, gateway.DeliveryRef{ChatID: chatID, MessageID: len(f.sent)})
	}

	return refs
}

func (f *fakeNotifier) Edit(context.Context, gateway.DeliveryRef, string, ...gateway.SendOption) error {
	return nil
}

func (f *fakeNotifier) SendDocument(context.Context, int64, gateway.Document) error {
	return nil
}

// at parses a UTC instant for test clocks.
func at(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)

	return parsed
}

func testForm() *form.Form {
	return &form.Form{
		SubmitterID: 42,
		DisplayName: "Maria (@maria)",
		ExitDate:    "2025-03-01",
		ExitTime:    "20:00",
		Control:     "2025-03-01 23:00",
		ReportRefs:  []form.ReportRef{{ChatID: testAlarmChat, MessageID: 7}},
		SubmittedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:      form.StatusActive,
	}
}

func newMonitor(tr Tracker, n gateway.Notifier, now time.Time) *Service {
	return NewService(tr, n, testAlarmChat, testZone, WithNow(func() time.Time { return now }))
}

// TestSweep_EscalatesOnceThroughBothStates walks the full scenario: exit
// deadline first, control deadline later, no repeats afterwards.
// Exit 20:00 and control 23:00 local UTC+3 are 17:00 and 20:00 UTC.
func TestSweep_EscalatesOnceThroughBothStates(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{forms: map[int64]*form.Form{42: testForm()}}
	n := new(fakeNotifier)

	// Before any deadline: nothing happens.
	newMonitor(tr, n, at(t, "2025-03-01T16:59:00Z")).Sweep(context.Background())
	require.Empty(t, n.sent)
	require.Equal(t, form.StatePending, tr.forms[42].EscalationState())

	// One minute past the exit deadline: one alert, flag set.
	newMonitor(tr, n, at(t, "2025-03-01T17:01:00Z")).Sweep(context.Background())
	require.Len(t, n.sent, 1)
	require.Contains(t, n.sent[0], "not reported back")
	require.Equal(t, form.StateExitOverdue, tr.forms[42].EscalationState())

	// One minute past the control deadline: one more alert.
	newMonitor(tr, n, at(t, "2025-03-01T20:01:00Z")).Sweep(context.Background())
	require.Len(t, n.sent, 2)
	require.Contains(t, n.sent[1], "Alarm")
	require.Equal(t, form.StateControlOverdue, tr.forms[42].EscalationState())

	// Later sweeps emit nothing further.
	for i := 0; i < 3; i++ {
		newMonitor(tr, n, at(t, "2025-03-02T09:00:00Z")).Sweep(context.Background())
	}

	require.Len(t, n.sent, 2)
}

// TestSweep_BothDeadlinesInOnePass verifies a form checked late escalates
// through both states in a single sweep.
func TestSweep_BothDeadlinesInOnePass(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{forms: map[int64]*form.Form{42: testForm()}}
	n := new(fakeNotifier)

	newMonitor(tr, n, at(t, "2025-03-02T09:00:00Z")).Sweep(context.Background())
	require.Len(t, n.sent, 2)
	require.Equal(t, form.StateControlOverdue, tr.forms[42].EscalationState())
}

// TestSweep_BareControlResolvesLikeSubmission verifies a legacy record with a
// bare time-of-day control escalates at the rolled-over moment.
func TestSweep_BareControlResolvesLikeSubmission(t *testing.T) {
	t.Parallel()

	f := testForm()
	f.ExitTime = "22:00"
	f.Control = "06:00" // next day, 03:00 UTC

	tr := &fakeTracker{forms: map[int64]*form.Form{42: f}}
	n := new(fakeNotifier)

	// Past exit, before the rolled-over control.
	newMonitor(tr, n, at(t, "2025-03-01T20:00:00Z")).Sweep(context.Background())
	require.Len(t, n.sent, 1)
	require.False(t, tr.forms[42].AlarmNotified)

	// Past the rolled-over control.
	newMonitor(tr, n, at(t, "2025-03-02T03:01:00Z")).Sweep(context.Background())
	require.Len(t, n.sent, 2)
	require.True(t, tr.forms[42].AlarmNotified)
}

// TestSweep_IsolatesBrokenForms verifies one unparsable record does not block
// the rest of the set.
func TestSweep_IsolatesBrokenForms(t *testing.T) {
	t.Parallel()

	broken := testForm()
	broken.SubmitterID = 1
	broken.ExitDate = "garbage"

	healthy := testForm()
	healthy.SubmitterID = 2

	tr := &fakeTracker{forms: map[int64]*form.Form{1: broken, 2: healthy}}
	n := new(fakeNotifier)

	newMonitor(tr, n, at(t, "2025-03-02T09:00:00Z")).Sweep(context.Background())

	require.True(t, tr.forms[2].AlarmNotified)
	require.False(t, tr.forms[1].NotExitedNotified)
}

// TestBroadcast_SilentWhenEmpty verifies the aggregate summary sends nothing
// for an empty active set.
func TestBroadcast_SilentWhenEmpty(t *testing.T) {
	t.Parallel()

	n := new(fakeNotifier)
	newMonitor(&fakeTracker{}, n, time.Now()).Broadcast(context.Background())
	require.Empty(t, n.sent)
}

// TestBroadcast_ListsActiveForms verifies the aggregate content.
func TestBroadcast_ListsActiveForms(t *testing.T) {
	t.Parallel()

	tr := &fakeTracker{forms: map[int64]*form.Form{42: testForm()}}
	n := new(fakeNotifier)

	newMonitor(tr, n, time.Now()).Broadcast(context.Background())
	require.Len(t, n.sent, 1)
	require.True(t, strings.HasPrefix(n.sent[0], "📊 Active forms: 1"))
	require.Contains(t, n.sent[0], "https://t.me/c/2222222222/7")
}
