package chats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dkozyrev/cavewatch/internal/config"
)

// Directory defines persistence for the chats the bot has seen.
type Directory interface {
	Load(ctx context.Context) (map[int64]string, error)
	Save(ctx context.Context, known map[int64]string) error
}

// ErrNotFound is returned when the directory file does not exist yet.
var ErrNotFound = errors.New("chat directory not found")

// FileDirectory persists the known chats map as a JSON file on disk.
type FileDirectory struct {
	// path is the filesystem location of the directory file.
	path string
	// mu protects concurrent access to the file.
	mu sync.Mutex
}

// NewFileDirectory creates a directory store at the provided path.
func NewFileDirectory(path string) *FileDirectory {
	return &FileDirectory{path: filepath.Clean(path)}
}

// Load reads the known chats map keyed by chat id.
func (d *FileDirectory) Load(_ context.Context) (map[int64]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	contents, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read chat directory: %w", err)
	}

	var known map[int64]string
	if err := json.Unmarshal(contents, &known); err != nil {
		return nil, fmt.Errorf("decode chat directory: %w", err)
	}

	// A file holding JSON null decodes to a nil map with no error.
	if known == nil {
		known = make(map[int64]string)
	}

	return known, nil
}

// Save writes the known chats map.
func (d *FileDirectory) Save(_ context.Context, known map[int64]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := json.MarshalIndent(known, "", "    ")
	if err != nil {
		return fmt.Errorf("encode chat directory: %w", err)
	}

	if err := os.WriteFile(d.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write chat directory: %w", err)
	}

	return nil
}
