package documents

import "encoding/json"

// SlideTagGroup categorises slides.
type SlideTagGroup struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CanvasSize is the authoring resolution of a slide group.
type CanvasSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SlideGroupMeta records where a slide group copy came from.
type SlideGroupMeta struct {
	PlaylistID         string `json:"playlistId,omitempty"`
	OriginLibraryID    string `json:"originLibraryId,omitempty"`
	OriginSlideGroupID string `json:"originSlideGroupId,omitempty"`
	LibraryID          string `json:"libraryId,omitempty"`
}

// SlideGroup is an ordered set of slides. Slides are kept as raw JSON; their
// object model belongs to the editor.
type SlideGroup struct {
	ID         string            `json:"id"`
	Meta       *SlideGroupMeta   `json:"meta,omitempty"`
	Title      string            `json:"title"`
	Slides     []json.RawMessage `json:"slides"`
	CanvasSize CanvasSize        `json:"canvasSize"`
	CreatedAt  string            `json:"createdAt"`
	UpdatedAt  string            `json:"updatedAt"`
}

// Library is a named collection of slide groups.
type Library struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	SlideGroups []SlideGroup `json:"slideGroups"`
	Order       *int         `json:"order"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
}

// PlaylistItem holds a deep copy of a slide group.
type PlaylistItem struct {
	ID         string     `json:"id"`
	SlideGroup SlideGroup `json:"slideGroup"`
	Order      int        `json:"order"`
}

// Playlist is an ordered run of slide groups prepared for a service.
type Playlist struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Items     []PlaylistItem `json:"items"`
	Order     *int           `json:"order"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

// Media types.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// MediaItem describes an imported image or video. Source and Thumbnail are
// file names inside the media files directory.
type MediaItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Thumbnail *string         `json:"thumbnail"`
	Duration  *float64        `json:"duration"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
	Metadata  json.RawMessage `json:"metadata"`
	Hash      string          `json:"hash,omitempty"` // hex SHA-256 of the file
}

// MediaPlaylist is an ordered set of media items.
type MediaPlaylist struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	MediaItems []MediaItem `json:"mediaItems"`
	Order      int         `json:"order"`
	CreatedAt  string      `json:"createdAt"`
	UpdatedAt  string      `json:"updatedAt"`
}
