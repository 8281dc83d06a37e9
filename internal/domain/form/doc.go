// Package form contains the core domain model for tracked check-in forms.
//
// It defines the Form record with its one-way notification flags, the derived
// escalation state machine (pending, exit overdue, control overdue) and the
// control-deadline normalization rule shared by the submission path and the
// periodic deadline sweep.
package form
