// Package monitor implements the escalation sweep over active forms and the
// periodic aggregate summary.
//
// The sweep derives each form's position in the Pending -> ExitOverdue ->
// ControlOverdue state machine from its one-way flags, sends each alert
// exactly once and isolates per-form failures so one broken record never
// blocks the rest of the set.
package monitor
