package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dkozyrev/cavewatch/internal/domain/form"
	"github.com/dkozyrev/cavewatch/internal/gateway"
	"github.com/dkozyrev/cavewatch/internal/logger"
)

// Tracker abstracts the lifecycle operations the monitor depends on.
type Tracker interface {
	ActiveForms() []*form.Form
	MarkNotExited(ctx context.Context, submitterID int64)
	MarkAlarmed(ctx context.Context, submitterID int64)
}

// Service runs the periodic deadline sweep and the aggregate summary over the
// active form set. It is the only mutator of the notification flags.
type Service struct {
	// tracker owns the active set.
	tracker Tracker
	// notifier delivers alerts to the alarm chat.
	notifier gateway.Notifier
	// alarmChatID is the alert destination.
	alarmChatID int64
	// loc is the civil clock zone used on forms.
	loc *time.Location
	// now supplies the current time, overridable in tests.
	now func() time.Time
}

// Option configures the monitor.
type Option func(*Service)

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService returns a monitor over the given tracker.
func NewService(tracker Tracker, notifier gateway.Notifier, alarmChatID int64, loc *time.Location, opts ...Option) *Service {
	s := &Service{
		tracker:     tracker,
		notifier:    notifier,
		alarmChatID: alarmChatID,
		loc:         loc,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Sweep advances every active form through its notification state machine.
// Each form is processed independently: one form's failure is logged and the
// remaining forms are still checked. Both deadline conditions are evaluated
// on every pass, so a form checked late can escalate twice in one sweep.
func (s *Service) Sweep(ctx context.Context) {
	now := s.now().UTC()
	logger.DebugKV(ctx, "Deadline sweep", "now", now.Format(time.RFC3339))

	for _, f := range s.tracker.ActiveForms() {
		if err := s.check(ctx, f, now); err != nil {
			logger.ErrorKV(ctx, "Form check failed", "submitter_id", f.SubmitterID, "error", err)
		}
	}
}

// check evaluates one form's deadlines against now.
func (s *Service) check(ctx context.Context, f *form.Form, now time.Time) error {
	exit, err := form.ExitMoment(f.ExitDate, f.ExitTime, s.loc)
	if err != nil {
		return err
	}

	// Bare legacy control values resolve through the same normalization rule
	// as at submission time.
	control, err := form.ControlMoment(f.ExitDate, f.ExitTime, f.Control, s.loc)
	if err != nil {
		return err
	}

	replyTo := make(map[int64]int, len(f.ReportRefs))
	for _, ref := range f.ReportRefs {
		replyTo[ref.ChatID] = ref.MessageID
	}

	if now.After(exit) && !f.NotExitedNotified {
		text := fmt.Sprintf("🚨 %s has not reported back by the promised time (%s %s).",
			gateway.Mention(f.SubmitterID, f.DisplayName), f.ExitDate, f.ExitTime)
		s.notifier.Send(ctx, []int64{s.alarmChatID}, text, gateway.WithHTML(), gateway.WithReplyTo(replyTo))
		s.tracker.MarkNotExited(ctx, f.SubmitterID)

		logger.InfoKV(ctx, "Exit deadline passed", "submitter_id", f.SubmitterID)
	}

	if now.After(control) && !f.AlarmNotified {
		text := fmt.Sprintf("🔥 Alarm! %s is overdue past the control time (%s).",
			gateway.Mention(f.SubmitterID, f.DisplayName), f.Control)
		s.notifier.Send(ctx, []int64{s.alarmChatID}, text, gateway.WithHTML(), gateway.WithReplyTo(replyTo))
		s.tracker.MarkAlarmed(ctx, f.SubmitterID)

		logger.InfoKV(ctx, "Control deadline passed", "submitter_id", f.SubmitterID)
	}

	return nil
}

// Broadcast sends the aggregate active-forms summary to the alarm chat.
// An empty active set sends nothing at all.
func (s *Service) Broadcast(ctx context.Context) {
	active := s.tracker.ActiveForms()
	if len(active) == 0 {
		return
	}

	s.notifier.Send(ctx, []int64{s.alarmChatID}, AggregateSummary(active), gateway.WithHTML())
}

// AggregateSummary renders the active count with per-submitter deep links.
func AggregateSummary(active []*form.Form) string {
	lines := make([]string, 0, len(active)+1)
	lines = append(lines, fmt.Sprintf("📊 Active forms: %d", len(active)))

	for _, f := range active {
		lines = append(lines, fmt.Sprintf("• %s: %s",
			gateway.Mention(f.SubmitterID, f.DisplayName), gateway.RefLinks(f.ReportRefs)))
	}

	return strings.Join(lines, "\n")
}
