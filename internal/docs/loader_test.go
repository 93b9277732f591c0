package docs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("Marie Curie discovered polonium."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# Title"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89, 0x50}, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	documents := LoadDirectory(dir, log.New(io.Discard))
	require.Len(t, documents, 2)

	byName := map[string]Document{}
	for _, d := range documents {
		byName[d.Metadata["source"]] = d
	}

	notes, ok := byName["notes.txt"]
	require.True(t, ok)
	assert.Equal(t, "Marie Curie discovered polonium.", notes.Text)
	assert.Equal(t, ".txt", notes.Metadata["file_type"])
	assert.Equal(t, filepath.Join(dir, "notes.txt"), notes.Metadata["file_path"])
	assert.Equal(t, "notes.txt", notes.Source())

	_, ok = byName["image.png"]
	assert.False(t, ok)
}

func TestLoadDirectoryMissing(t *testing.T) {
	documents := LoadDirectory(filepath.Join(t.TempDir(), "absent"), log.New(io.Discard))
	assert.Empty(t, documents)
}

func TestDocumentSourceFallback(t *testing.T) {
	d := Document{Text: "x", Metadata: map[string]string{}}
	assert.Equal(t, "unknown", d.Source())
}
