package documents

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store is the on-disk document layout under one data directory:
//
//	libraries/<id>.json
//	playlists/<id>.json
//	media/files/<file>
//	media/metadata/<id>.json
//	media-playlists/<id>.json
//	settings/tag-groups.json
type Store struct {
	root string

	Libraries      *JSONDir[Library]
	Playlists      *JSONDir[Playlist]
	MediaPlaylists *JSONDir[MediaPlaylist]
	Media          *MediaLibrary

	settingsDir string
}

// NewStore returns a Store rooted at dataDir. Call EnsureDirectories before
// first use.
func NewStore(dataDir string, log *slog.Logger) (*Store, error) {
	root, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	log = log.With(slog.String("component", "documents"))

	return &Store{
		root:           root,
		Libraries:      NewJSONDir[Library](filepath.Join(root, "libraries"), log),
		Playlists:      NewJSONDir[Playlist](filepath.Join(root, "playlists"), log),
		MediaPlaylists: NewJSONDir[MediaPlaylist](filepath.Join(root, "media-playlists"), log),
		Media: NewMediaLibrary(
			filepath.Join(root, "media", "files"),
			NewJSONDir[MediaItem](filepath.Join(root, "media", "metadata"), log),
			log,
		),
		settingsDir: filepath.Join(root, "settings"),
	}, nil
}

// Root returns the absolute data directory.
func (s *Store) Root() string { return s.root }

// EnsureDirectories creates every directory of the layout.
func (s *Store) EnsureDirectories() error {
	dirs := []string{
		s.Libraries.Dir(),
		s.Playlists.Dir(),
		s.Media.FilesDir(),
		s.Media.meta.Dir(),
		s.MediaPlaylists.Dir(),
		s.settingsDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (s *Store) tagGroupsFile() string {
	return filepath.Join(s.settingsDir, "tag-groups.json")
}

// LoadTagGroups returns the saved tag groups, or an empty list if none were
// ever saved.
func (s *Store) LoadTagGroups() ([]SlideTagGroup, error) {
	groups := make([]SlideTagGroup, 0)
	if err := readJSONFile(s.tagGroupsFile(), &groups); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return groups, nil
		}
		return nil, err
	}
	if groups == nil {
		groups = make([]SlideTagGroup, 0)
	}
	return groups, nil
}

// SaveTagGroups replaces the whole tag group list.
func (s *Store) SaveTagGroups(groups []SlideTagGroup) error {
	if groups == nil {
		groups = make([]SlideTagGroup, 0)
	}
	return writeJSONFile(s.tagGroupsFile(), groups)
}
