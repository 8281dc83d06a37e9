package chats

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFileDirectory_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileDirectory_NotFound(t *testing.T) {
	t.Parallel()

	d := NewFileDirectory(filepath.Join(t.TempDir(), "missing.json"))
	known, err := d.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, known)
}

// TestFileDirectory_NullFile verifies a file holding JSON null loads as an
// empty writable map rather than nil.
func TestFileDirectory_NullFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chats.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o600))

	d := NewFileDirectory(path)
	known, err := d.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, known)
	require.Empty(t, known)

	// The loaded map must accept writes.
	known[-1001234567890] = "Dispatch"
	require.NoError(t, d.Save(context.Background(), known))
}

// TestFileDirectory_Roundtrip ensures Save followed by Load returns an equal map.
func TestFileDirectory_Roundtrip(t *testing.T) {
	t.Parallel()

	d := NewFileDirectory(filepath.Join(t.TempDir(), "chats.json"))

	want := map[int64]string{
		-1001234567890: "Dispatch",
		-987654321:     "group -987654321",
	}

	require.NoError(t, d.Save(context.Background(), want))

	got, err := d.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, got)
}
