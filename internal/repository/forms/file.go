package forms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dkozyrev/cavewatch/internal/config"
	"github.com/dkozyrev/cavewatch/internal/domain/form"
)

// Repository defines persistence operations for the active set and the journal.
type Repository interface {
	LoadActive(ctx context.Context) (map[int64]*form.Form, error)
	SaveActive(ctx context.Context, active map[int64]*form.Form) error
	LoadJournal(ctx context.Context) ([]*form.Form, error)
	SaveJournal(ctx context.Context, journal []*form.Form) error
}

// ErrNotFound is returned when a data file does not exist yet.
var ErrNotFound = errors.New("state not found")

// FileRepository persists the active set and the journal as JSON files on
// disk. The two files are written independently; there is no cross-file
// transaction (a crash between writes leaves them inconsistent, accepted).
type FileRepository struct {
	// activePath is the filesystem location of the active forms file.
	activePath string
	// journalPath is the filesystem location of the journal file.
	journalPath string
	// mu protects concurrent access to the files.
	mu sync.Mutex
}

// NewFileRepository creates a repository reading and writing JSON at the provided paths.
func NewFileRepository(activePath, journalPath string) *FileRepository {
	return &FileRepository{
		activePath:  filepath.Clean(activePath),
		journalPath: filepath.Clean(journalPath),
	}
}

// LoadActive reads the active forms map keyed by submitter id.
func (r *FileRepository) LoadActive(_ context.Context) (map[int64]*form.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var active map[int64]*form.Form
	if err := readJSON(r.activePath, &active); err != nil {
		return nil, fmt.Errorf("active forms: %w", err)
	}

	return active, nil
}

// SaveActive writes the active forms map, flushing before returning.
func (r *FileRepository) SaveActive(_ context.Context, active map[int64]*form.Form) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeJSON(r.activePath, active); err != nil {
		return fmt.Errorf("active forms: %w", err)
	}

	return nil
}

// LoadJournal reads the append-only journal of submission-time snapshots.
func (r *FileRepository) LoadJournal(_ context.Context) ([]*form.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var journal []*form.Form
	if err := readJSON(r.journalPath, &journal); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	return journal, nil
}

// SaveJournal writes the journal, flushing before returning.
func (r *FileRepository) SaveJournal(_ context.Context, journal []*form.Form) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := writeJSON(r.journalPath, journal); err != nil {
		return fmt.Errorf("journal: %w", err)
	}

	return nil
}

// readJSON decodes the file at path into v, mapping a missing file to ErrNotFound.
func readJSON(path string, v any) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}

		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := json.Unmarshal(contents, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

// writeJSON encodes v and writes it to path.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
