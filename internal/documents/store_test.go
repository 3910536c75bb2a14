package documents

import (
	"os"
	"path/filepath"
	"testing"

	"os-presenter/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), logger.Discard())
	require.NoError(t, err)
	require.NoError(t, s.EnsureDirectories())
	return s
}

func TestStore_EnsureDirectories(t *testing.T) {
	s := newTestStore(t)

	for _, rel := range []string{
		"libraries",
		"playlists",
		filepath.Join("media", "files"),
		filepath.Join("media", "metadata"),
		"media-playlists",
		"settings",
	} {
		info, err := os.Stat(filepath.Join(s.Root(), rel))
		require.NoError(t, err, rel)
		assert.True(t, info.IsDir(), rel)
	}

	// Idempotent.
	require.NoError(t, s.EnsureDirectories())
}

func TestStore_TagGroups(t *testing.T) {
	s := newTestStore(t)

	groups, err := s.LoadTagGroups()
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)

	want := []SlideTagGroup{
		{ID: "t1", Name: "Verse", Color: "#ff0000"},
		{ID: "t2", Name: "Chorus", Color: "#00ff00"},
	}
	require.NoError(t, s.SaveTagGroups(want))

	groups, err = s.LoadTagGroups()
	require.NoError(t, err)
	assert.Equal(t, want, groups)

	require.NoError(t, s.SaveTagGroups(nil))
	groups, err = s.LoadTagGroups()
	require.NoError(t, err)
	assert.Empty(t, groups)
}
