package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gagsync/pkg/models"
	"gagsync/pkg/storage"
)

// ItemMetadata describes one cached item next to its asset files
type ItemMetadata struct {
	// Core identifiers
	ID  string `json:"id"`
	URL string `json:"url"`

	// Content
	Title string   `json:"title"`
	Tags  []string `json:"tags"`

	// Assets
	CoverURL  string `json:"cover_url"`
	MediaURL  string `json:"media_url,omitempty"`
	CoverFile string `json:"cover_file,omitempty"`
	MediaFile string `json:"media_file,omitempty"`
	CoverSize int64  `json:"cover_size,omitempty"`
	MediaSize int64  `json:"media_size,omitempty"`
	IsVideo   bool   `json:"is_video"`

	DownloadedAt time.Time `json:"downloaded_at"`
}

// FromItem converts a feed item to its metadata record
func FromItem(item models.Item) *ItemMetadata {
	return &ItemMetadata{
		ID:           item.ID,
		URL:          item.URL,
		Title:        item.Title,
		Tags:         append([]string(nil), item.Tags...),
		CoverURL:     item.CoverURL,
		MediaURL:     item.MediaURL,
		IsVideo:      IsVideoURL(item.MediaURL),
		DownloadedAt: time.Now().UTC(),
	}
}

// IsVideoURL reports whether the asset URL points to a video file
func IsVideoURL(rawURL string) bool {
	switch strings.ToLower(path.Ext(strings.SplitN(rawURL, "?", 2)[0])) {
	case ".mp4", ".webm", ".mov":
		return true
	}
	return false
}

// Path returns the sidecar path for id inside dir
func Path(dir, id string) string {
	return filepath.Join(dir, id+".json")
}

// Save writes the metadata to "<dir>/<id>.json"
func (m *ItemMetadata) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := storage.WriteFileAtomic(Path(dir, m.ID), bytes.NewReader(data), 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// Load reads the metadata of id from dir
func Load(dir, id string) (*ItemMetadata, error) {
	data, err := os.ReadFile(Path(dir, id))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var meta ItemMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &meta, nil
}

// MetadataExists checks if a sidecar exists for id
func MetadataExists(dir, id string) bool {
	_, err := os.Stat(Path(dir, id))
	return err == nil
}
