package documents

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var (
	// ErrUnsupportedMedia is returned for files that are neither a known
	// image nor a known video format.
	ErrUnsupportedMedia = errors.New("unsupported media format")

	// ErrSourceNotFound is returned when an import source does not exist.
	ErrSourceNotFound = errors.New("source file does not exist")

	// ErrInvalidThumbnail is returned for thumbnail data that is not a
	// decodable image.
	ErrInvalidThumbnail = errors.New("thumbnail is not a decodable image")
)

// Thumbnails are scaled down to fit this box, keeping the aspect ratio.
const (
	thumbnailMaxWidth  = 480
	thumbnailMaxHeight = 270
)

var mediaTypesByExt = map[string]string{
	"jpg":  MediaTypeImage,
	"jpeg": MediaTypeImage,
	"png":  MediaTypeImage,
	"gif":  MediaTypeImage,
	"webp": MediaTypeImage,
	"bmp":  MediaTypeImage,
	"mp4":  MediaTypeVideo,
	"webm": MediaTypeVideo,
	"mov":  MediaTypeVideo,
	"avi":  MediaTypeVideo,
	"mkv":  MediaTypeVideo,
}

// MediaLibrary manages imported media files and their metadata documents.
type MediaLibrary struct {
	filesDir string
	meta     *JSONDir[MediaItem]
	log      *slog.Logger
	now      func() time.Time
}

// NewMediaLibrary returns a MediaLibrary storing files in filesDir and
// metadata in meta.
func NewMediaLibrary(filesDir string, meta *JSONDir[MediaItem], log *slog.Logger) *MediaLibrary {
	return &MediaLibrary{
		filesDir: filesDir,
		meta:     meta,
		log:      log,
		now:      time.Now,
	}
}

// FilesDir returns the directory holding media files and thumbnails.
func (m *MediaLibrary) FilesDir() string { return m.filesDir }

// List returns every media item.
func (m *MediaLibrary) List() ([]MediaItem, error) {
	return m.meta.List()
}

// Get returns one media item.
func (m *MediaLibrary) Get(id string) (MediaItem, error) {
	return m.meta.Get(id)
}

// Import copies sourcePath into the library. Files are deduplicated by
// content: if an item with the same SHA-256 already exists it is returned
// with created == false and nothing is copied.
func (m *MediaLibrary) Import(sourcePath string) (item MediaItem, created bool, err error) {
	info, err := os.Stat(sourcePath)
	if err != nil || info.IsDir() {
		return MediaItem{}, false, fmt.Errorf("%w: %s", ErrSourceNotFound, sourcePath)
	}

	hash, err := hashFile(sourcePath)
	if err != nil {
		return MediaItem{}, false, err
	}

	existing, err := m.meta.List()
	if err != nil {
		return MediaItem{}, false, err
	}
	for _, it := range existing {
		if it.Hash == hash {
			m.log.Info("media already imported", slog.String("hash", hash), slog.String("id", it.ID))
			return it, false, nil
		}
	}

	ext := strings.TrimPrefix(filepath.Ext(sourcePath), ".")
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	if ext == "" || stem == "" {
		return MediaItem{}, false, fmt.Errorf("%w: cannot determine file name or extension of %s", ErrUnsupportedMedia, sourcePath)
	}
	mediaType, ok := mediaTypesByExt[strings.ToLower(ext)]
	if !ok {
		return MediaItem{}, false, fmt.Errorf("%w: .%s", ErrUnsupportedMedia, ext)
	}

	id := uuid.NewString()
	fileName := id + "." + ext
	if err := copyFile(sourcePath, filepath.Join(m.filesDir, fileName)); err != nil {
		return MediaItem{}, false, err
	}

	now := m.timestamp()
	item = MediaItem{
		ID:        id,
		Name:      stem,
		Type:      mediaType,
		Source:    fileName,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  json.RawMessage("null"),
		Hash:      hash,
	}
	if mediaType == MediaTypeImage {
		if name, err := m.generateThumbnail(id, filepath.Join(m.filesDir, fileName)); err != nil {
			m.log.Warn("thumbnail generation skipped",
				slog.String("id", id),
				slog.String("error", err.Error()))
		} else {
			item.Thumbnail = &name
		}
	}
	if err := m.meta.Save(id, item); err != nil {
		os.Remove(filepath.Join(m.filesDir, fileName))
		if item.Thumbnail != nil {
			m.removeFile(*item.Thumbnail)
		}
		return MediaItem{}, false, err
	}

	m.log.Info("media imported",
		slog.String("id", id),
		slog.String("type", mediaType),
		slog.Int64("size", info.Size()))
	return item, true, nil
}

// Delete removes a media item, its file and its thumbnail. Missing files
// are ignored.
func (m *MediaLibrary) Delete(id string) error {
	item, err := m.meta.Get(id)
	if err == nil {
		m.removeFile(item.Source)
		if item.Thumbnail != nil {
			m.removeFile(*item.Thumbnail)
		}
	} else if !errors.Is(err, ErrNotFound) {
		m.log.Warn("deleting media with unreadable metadata",
			slog.String("id", id),
			slog.String("error", err.Error()))
	}
	return m.meta.Delete(id)
}

// SaveThumbnail stores image data as the PNG thumbnail of media id and
// returns the file name. Large images are scaled down. The metadata is not
// touched; see SetThumbnail.
func (m *MediaLibrary) SaveThumbnail(id string, data []byte) (string, error) {
	if err := validateName(id); err != nil {
		return "", err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidThumbnail, err)
	}
	return m.writeThumbnail(id, img)
}

// generateThumbnail renders the thumbnail of an imported image file.
func (m *MediaLibrary) generateThumbnail(id, path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return m.writeThumbnail(id, img)
}

func (m *MediaLibrary) writeThumbnail(id string, img image.Image) (string, error) {
	b := img.Bounds()
	if b.Dx() > thumbnailMaxWidth || b.Dy() > thumbnailMaxHeight {
		img = imaging.Fit(img, thumbnailMaxWidth, thumbnailMaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}

	name := id + "_thumb.png"
	if err := writeFileAtomic(filepath.Join(m.filesDir, name), buf.Bytes()); err != nil {
		return "", err
	}
	return name, nil
}

// SetThumbnail records thumbnail as the thumbnail file of media id.
func (m *MediaLibrary) SetThumbnail(id, thumbnail string) (MediaItem, error) {
	if err := validateName(thumbnail); err != nil {
		return MediaItem{}, err
	}
	item, err := m.meta.Get(id)
	if err != nil {
		return MediaItem{}, err
	}
	item.Thumbnail = &thumbnail
	item.UpdatedAt = m.timestamp()
	if err := m.meta.Save(id, item); err != nil {
		return MediaItem{}, err
	}
	return item, nil
}

// FilePath returns the absolute path of a file in the media directory.
func (m *MediaLibrary) FilePath(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(m.filesDir, name), nil
}

func (m *MediaLibrary) removeFile(name string) {
	path, err := m.FilePath(name)
	if err != nil {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.log.Warn("remove media file failed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func (m *MediaLibrary) timestamp() string {
	return m.now().UTC().Format(time.RFC3339Nano)
}

// hashFile returns the hex SHA-256 of the file at path.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return out.Close()
}
