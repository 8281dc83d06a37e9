// Package tracker implements the form lifecycle: submission with the
// one-active-form-per-submitter invariant, control-deadline normalization,
// summary broadcast, closure with ownership checks, and the one-way
// notification flags mutated by the escalation monitor.
//
// The service owns the in-memory working set and the append-only journal and
// persists both through the forms repository. Persistence is best-effort:
// a failed write is logged, the in-memory state stays authoritative.
package tracker
