package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dkozyrev/cavewatch/internal/config"
	"github.com/dkozyrev/cavewatch/internal/domain/form"
	"github.com/dkozyrev/cavewatch/internal/gateway"
	"github.com/dkozyrev/cavewatch/internal/logger"
	repo "github.com/dkozyrev/cavewatch/internal/repository/forms"
)

var (
	// ErrDuplicateActiveForm is returned when the submitter already has an active form.
	ErrDuplicateActiveForm = errors.New("submitter already has an active form")
	// ErrFormNotFound is returned when no active form matches the acknowledged message.
	ErrFormNotFound = errors.New("no active form matches the message")
	// ErrNotAllowed is returned when the requester is neither the owner nor an admin.
	ErrNotAllowed = errors.New("only the form owner or an admin may close the form")
	// ErrInvalidSubmission is returned when the submission payload fails validation.
	ErrInvalidSubmission = errors.New("invalid submission")
)

// Submission carries the validated fields of an inbound form.
type Submission struct {
	// SubmitterID is the Telegram user id of the person filing the form.
	SubmitterID int64
	// DisplayName is the label frozen on the form.
	DisplayName string
	// System is the activity/site label.
	System string
	// DepartureDate and DepartureTime record when the submitter went in, free text.
	DepartureDate string
	DepartureTime string
	// ExitDate and ExitTime are the promised return moment, local civil values.
	ExitDate string
	ExitTime string
	// Control is the raw control value, either "15:04" or "2006-01-02 15:04".
	Control string
	// Participants, Purpose, Phone, Additional are free-text extras.
	Participants string
	Purpose      string
	Phone        string
	Additional   string
}

// Service owns the active form set and the journal, enforcing the submission
// and closure invariants. At most one active form exists per submitter.
type Service struct {
	// repo handles persistent storage of the active set and the journal.
	repo repo.Repository
	// notifier broadcasts summaries and closure annotations.
	notifier gateway.Notifier
	// formChatID and alarmChatID are the broadcast destinations.
	formChatID  int64
	alarmChatID int64
	// admins may close any form.
	admins map[int64]struct{}
	// loc is the civil clock zone used on forms.
	loc *time.Location
	// closureWords is the lowercase closure acknowledgement vocabulary.
	closureWords map[string]struct{}
	// now supplies the current time, overridable in tests.
	now func() time.Time

	// mu protects the working set and the journal.
	mu sync.Mutex
	// active is the working set keyed by submitter id.
	active map[int64]*form.Form
	// journal is the append-only record of every submission.
	journal []*form.Form
}

// Option configures the service.
type Option func(*Service)

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService loads persisted state and returns a ready tracker.
func NewService(
	ctx context.Context,
	repository repo.Repository,
	notifier gateway.Notifier,
	cfg *config.Config,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		repo:         repository,
		notifier:     notifier,
		formChatID:   cfg.FormChatID,
		alarmChatID:  cfg.AlarmChatID,
		admins:       make(map[int64]struct{}, len(cfg.AdminIDs)),
		loc:          cfg.Location(),
		closureWords: make(map[string]struct{}, len(cfg.ClosureWords)),
		now:          time.Now,
		active:       make(map[int64]*form.Form),
	}

	for _, id := range cfg.AdminIDs {
		s.admins[id] = struct{}{}
	}

	for _, word := range cfg.ClosureWords {
		s.closureWords[strings.ToLower(word)] = struct{}{}
	}

	for _, opt := range opts {
		opt(s)
	}

	active, err := repository.LoadActive(ctx)

	switch {
	case err == nil:
		if active != nil {
			s.active = active
		}
	case errors.Is(err, repo.ErrNotFound):
		// First run, keep the empty set.
	default:
		return nil, fmt.Errorf("load active forms: %w", err)
	}

	journal, err := repository.LoadJournal(ctx)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("load journal: %w", err)
	}

	s.journal = journal

	logger.InfoKV(ctx, "Tracker state loaded", "active_forms", len(s.active), "journal_entries", len(s.journal))

	return s, nil
}

// Submit validates the submission, normalizes the control deadline, broadcasts
// the summary and records the form. The journal entry is a submission-time
// snapshot and is never updated afterwards.
func (s *Service) Submit(ctx context.Context, sub Submission) (*form.Form, error) {
	if err := validate(sub); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.active[sub.SubmitterID]; exists {
		return nil, ErrDuplicateActiveForm
	}

	control := sub.Control

	normalized, err := form.NormalizeControl(sub.ExitDate, sub.ExitTime, sub.Control, s.loc)
	if err != nil {
		// Keep the raw value, the sweep re-normalizes bare times on every pass.
		logger.WarnKV(ctx, "Control deadline normalization failed",
			"submitter_id", sub.SubmitterID, "control", sub.Control, "error", err)
	} else {
		control = normalized
	}

	f := &form.Form{
		SubmitterID:   sub.SubmitterID,
		DisplayName:   sub.DisplayName,
		System:        sub.System,
		DepartureDate: sub.DepartureDate,
		DepartureTime: sub.DepartureTime,
		ExitDate:      sub.ExitDate,
		ExitTime:      sub.ExitTime,
		Control:       control,
		Participants:  sub.Participants,
		Purpose:       sub.Purpose,
		Phone:         sub.Phone,
		Additional:    sub.Additional,
		SubmittedAt:   s.now().UTC(),
		Status:        form.StatusActive,
	}

	refs := s.notifier.Send(ctx, []int64{s.formChatID, s.alarmChatID}, Summary(f), gateway.WithHTML())
	for _, ref := range refs {
		f.ReportRefs = append(f.ReportRefs, form.ReportRef{ChatID: ref.ChatID, MessageID: ref.MessageID})
	}

	s.active[f.SubmitterID] = f
	s.journal = append(s.journal, f.Clone())

	s.persistActive(ctx)
	s.persistJournal(ctx)

	logger.InfoKV(ctx, "Form submitted",
		"submitter_id", f.SubmitterID, "control", f.Control, "deliveries", len(f.ReportRefs))

	return f.Clone(), nil
}

// Close retires the active form whose report refs contain the acknowledged
// message. Only the owner or an admin may close it. The original broadcast is
// annotated best-effort; the journal entry is left untouched.
func (s *Service) Close(ctx context.Context, chatID int64, messageID int, requesterID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *form.Form

	for _, f := range s.active {
		if f.HasReportRef(chatID, messageID) {
			target = f

			break
		}
	}

	if target == nil {
		return ErrFormNotFound
	}

	if requesterID != target.SubmitterID {
		if _, isAdmin := s.admins[requesterID]; !isAdmin {
			return ErrNotAllowed
		}
	}

	target.Status = form.StatusClosed
	delete(s.active, target.SubmitterID)
	s.persistActive(ctx)

	logger.InfoKV(ctx, "Form closed", "submitter_id", target.SubmitterID, "requester_id", requesterID)

	// Annotation failure must not fail the closure.
	annotated := Summary(target) + "\n\n✅ Reported back."
	if err := s.notifier.Edit(ctx, gateway.DeliveryRef{ChatID: chatID, MessageID: messageID}, annotated, gateway.WithHTML()); err != nil {
		logger.WarnKV(ctx, "Closure annotation failed",
			"chat_id", chatID, "message_id", messageID, "error", err)
	}

	return nil
}

// MarkNotExited sets the one-way "not returned" flag and persists the set.
// Called only by the escalation monitor.
func (s *Service) MarkNotExited(ctx context.Context, submitterID int64) {
	s.markFlag(ctx, submitterID, func(f *form.Form) {
		f.NotExitedNotified = true
	})
}

// MarkAlarmed sets the one-way alarm flag and persists the set.
// Called only by the escalation monitor.
func (s *Service) MarkAlarmed(ctx context.Context, submitterID int64) {
	s.markFlag(ctx, submitterID, func(f *form.Form) {
		f.AlarmNotified = true
	})
}

// markFlag applies a flag mutation to an active form and persists the set.
func (s *Service) markFlag(ctx context.Context, submitterID int64, mutate func(*form.Form)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.active[submitterID]
	if !ok {
		// Closed between the sweep read and the mark, nothing to do.
		return
	}

	mutate(f)
	s.persistActive(ctx)
}

// ActiveForms returns clones of the working set ordered by submitter id.
func (s *Service) ActiveForms() []*form.Form {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*form.Form, 0, len(s.active))
	for _, f := range s.active {
		result = append(result, f.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmitterID < result[j].SubmitterID
	})

	return result
}

// ActiveCount returns the size of the working set.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.active)
}

// JournalEntries returns clones of every journal snapshot in submission order.
func (s *Service) JournalEntries() []*form.Form {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*form.Form, 0, len(s.journal))
	for _, f := range s.journal {
		result = append(result, f.Clone())
	}

	return result
}

// CountBySystem aggregates active forms per system label.
func (s *Service) CountBySystem() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)

	for _, f := range s.active {
		if f.System != "" {
			counts[f.System]++
		}
	}

	return counts
}

// IsClosureWord reports whether the reply text is a closure acknowledgement.
func (s *Service) IsClosureWord(text string) bool {
	_, ok := s.closureWords[strings.ToLower(strings.TrimSpace(text))]

	return ok
}

// persistActive writes the working set. A failed write is logged and the
// in-memory state stays authoritative until a later successful write.
func (s *Service) persistActive(ctx context.Context) {
	if err := s.repo.SaveActive(ctx, s.active); err != nil {
		logger.ErrorKV(ctx, "Failed to persist active forms", "error", err)
	}
}

// persistJournal writes the journal, same best-effort policy as persistActive.
func (s *Service) persistJournal(ctx context.Context) {
	if err := s.repo.SaveJournal(ctx, s.journal); err != nil {
		logger.ErrorKV(ctx, "Failed to persist journal", "error", err)
	}
}

// validate rejects malformed submissions before any state mutation.
func validate(sub Submission) error {
	if sub.SubmitterID == 0 {
		return fmt.Errorf("%w: submitter id is required", ErrInvalidSubmission)
	}

	if sub.DisplayName == "" {
		return fmt.Errorf("%w: display name is required", ErrInvalidSubmission)
	}

	if _, err := time.Parse(form.DateLayout, sub.ExitDate); err != nil {
		return fmt.Errorf("%w: exit date %q", ErrInvalidSubmission, sub.ExitDate)
	}

	if _, err := time.Parse(form.TimeLayout, sub.ExitTime); err != nil {
		return fmt.Errorf("%w: exit time %q", ErrInvalidSubmission, sub.ExitTime)
	}

	if sub.Control == "" {
		return fmt.Errorf("%w: control value is required", ErrInvalidSubmission)
	}

	return nil
}
