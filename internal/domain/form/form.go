package form

import "time"

// Status marks whether a form is still tracked in the working set.
type Status string

const (
	// StatusActive marks a form awaiting the submitter's return.
	StatusActive Status = "active"
	// StatusClosed marks a form retired by a closure acknowledgement.
	StatusClosed Status = "closed"
)

// EscalationState is the derived position of a form in the notification
// state machine. It is computed from the two one-way flags, never stored.
type EscalationState string

const (
	// StatePending means no deadline has passed yet.
	StatePending EscalationState = "pending"
	// StateExitOverdue means the promised return time has passed.
	StateExitOverdue EscalationState = "exit_overdue"
	// StateControlOverdue means the control deadline has passed.
	StateControlOverdue EscalationState = "control_overdue"
)

// ReportRef points at one delivered copy of the form summary.
type ReportRef struct {
	// ChatID is the destination chat the summary was delivered to.
	ChatID int64 `json:"chat_id"`
	// MessageID is the delivered message within that chat.
	MessageID int `json:"message_id"`
}

// Form is one submitted departure/return plan.
type Form struct {
	// SubmitterID is the Telegram user id of the person who filed the form.
	SubmitterID int64 `json:"submitter_id"`
	// DisplayName is the human-readable label frozen at submission time.
	DisplayName string `json:"display_name"`
	// System is the activity/site label, used only for aggregate counts.
	System string `json:"system,omitempty"`
	// DepartureDate and DepartureTime record when the submitter went in.
	// Frozen free text, shown on the summary only, never validated.
	DepartureDate string `json:"departure_date,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	// ExitDate is the local calendar date the submitter commits to return by ("2006-01-02").
	ExitDate string `json:"exit_date"`
	// ExitTime is the local clock time of the promised return ("15:04").
	ExitTime string `json:"exit_time"`
	// Control is the control deadline, normalized to "2006-01-02 15:04" local
	// when normalization succeeded, otherwise the raw submitted value.
	Control string `json:"control"`
	// Participants, Purpose, Phone and Additional are free-text fields
	// carried only for the summary and the exported reports.
	Participants string `json:"participants,omitempty"`
	Purpose      string `json:"purpose,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Additional   string `json:"additional,omitempty"`
	// ReportRefs are the delivered summary messages, in broadcast order.
	ReportRefs []ReportRef `json:"report_refs"`
	// NotExitedNotified is set once the "not returned" alert has been sent.
	// One-way: never reset.
	NotExitedNotified bool `json:"not_exited_notified"`
	// AlarmNotified is set once the control-deadline alarm has been sent.
	// One-way: never reset.
	AlarmNotified bool `json:"alarm_notified"`
	// SubmittedAt is the creation timestamp in UTC.
	SubmittedAt time.Time `json:"submitted_at"`
	// Status is the lifecycle state of the form.
	Status Status `json:"status"`
}

// Clone returns a deep copy of the form to avoid leaking internal references.
func (f *Form) Clone() *Form {
	if f == nil {
		return nil
	}

	cloned := *f
	cloned.ReportRefs = append([]ReportRef(nil), f.ReportRefs...)

	return &cloned
}

// EscalationState derives the notification state from the one-way flags.
func (f *Form) EscalationState() EscalationState {
	switch {
	case f.AlarmNotified:
		return StateControlOverdue
	case f.NotExitedNotified:
		return StateExitOverdue
	default:
		return StatePending
	}
}

// HasReportRef reports whether the given delivered message belongs to this form.
func (f *Form) HasReportRef(chatID int64, messageID int) bool {
	for _, ref := range f.ReportRefs {
		if ref.ChatID == chatID && ref.MessageID == messageID {
			return true
		}
	}

	return false
}
