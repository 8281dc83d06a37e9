// Package export renders the active form set and the journal as xlsx
// workbooks for the /info and /journal commands.
package export
