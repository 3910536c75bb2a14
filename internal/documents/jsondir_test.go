package documents

import (
	"os"
	"path/filepath"
	"testing"

	"os-presenter/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONDir_SaveGetList(t *testing.T) {
	d := NewJSONDir[Library](filepath.Join(t.TempDir(), "libraries"), logger.Discard())

	docs, err := d.List()
	require.NoError(t, err)
	assert.Empty(t, docs, "missing directory lists as empty")
	assert.NotNil(t, docs)

	lib := Library{ID: "lib-1", Name: "Sunday", SlideGroups: []SlideGroup{}}
	require.NoError(t, d.Save(lib.ID, lib))

	got, err := d.Get("lib-1")
	require.NoError(t, err)
	assert.Equal(t, "Sunday", got.Name)

	lib.Name = "Sunday AM"
	require.NoError(t, d.Save(lib.ID, lib))

	docs, err = d.List()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Sunday AM", docs[0].Name)
}

func TestJSONDir_GetMissing(t *testing.T) {
	d := NewJSONDir[Library](t.TempDir(), logger.Discard())

	_, err := d.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONDir_DeleteIsIdempotent(t *testing.T) {
	d := NewJSONDir[Playlist](t.TempDir(), logger.Discard())
	require.NoError(t, d.Save("p1", Playlist{ID: "p1", Items: []PlaylistItem{}}))

	require.NoError(t, d.Delete("p1"))
	require.NoError(t, d.Delete("p1"))

	_, err := d.Get("p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJSONDir_ListSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	d := NewJSONDir[Library](dir, logger.Discard())
	require.NoError(t, d.Save("good", Library{ID: "good"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	docs, err := d.List()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "good", docs[0].ID)
}

func TestJSONDir_RejectsPathIDs(t *testing.T) {
	d := NewJSONDir[Library](t.TempDir(), logger.Discard())

	for _, id := range []string{"", ".", "..", "../escape", `a\b`, "a/b"} {
		assert.ErrorIs(t, d.Save(id, Library{}), ErrInvalidID, "id %q", id)
		_, err := d.Get(id)
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
		assert.ErrorIs(t, d.Delete(id), ErrInvalidID, "id %q", id)
	}
}

func TestJSONDir_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	d := NewJSONDir[Library](dir, logger.Discard())
	require.NoError(t, d.Save("a", Library{ID: "a"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.json", entries[0].Name())
}
