// Package forms implements persistence for the active form set and the
// append-only journal.
//
// The FileRepository stores both collections as JSON files on disk and
// exposes a Repository interface that the tracker service depends on.
package forms
