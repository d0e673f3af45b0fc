// Package cache is the local file sink: one cover file and one media file
// per item, named by item id with the source extension, or one sniffed from
// the content when the URL has none.
package cache

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"gagsync/pkg/config"
	errs "gagsync/pkg/errors"
	"gagsync/pkg/logger"
	"gagsync/pkg/metadata"
	"gagsync/pkg/models"
	"gagsync/pkg/storage"
)

// Downloader fetches a complete asset body
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Sink stores item assets on the local filesystem.
type Sink struct {
	covers      *storage.Dir
	media       *storage.Dir
	metadataDir string
	downloader  Downloader
	logger      logger.Logger
}

// New creates the asset directories. An empty metadata dir disables sidecars.
func New(cfg config.CacheConfig, downloader Downloader, log logger.Logger) (*Sink, error) {
	covers, err := storage.NewDir(cfg.CoversDir)
	if err != nil {
		return nil, err
	}
	media, err := storage.NewDir(cfg.MediaDir)
	if err != nil {
		return nil, err
	}

	return &Sink{
		covers:      covers,
		media:       media,
		metadataDir: cfg.MetadataDir,
		downloader:  downloader,
		logger:      logger.Component(log, "cache"),
	}, nil
}

// Name identifies the sink in logs and the run journal
func (s *Sink) Name() string {
	return "local"
}

// Exists reports whether both asset files of the item are on disk. Items
// without a media URL only need the cover: catalog records carry no media
// link, so a replayed item can never have a media file.
func (s *Sink) Exists(_ context.Context, item models.Item) (bool, error) {
	cover, err := s.covers.Has(item.ID)
	if err != nil || !cover {
		return false, err
	}
	if !item.HasMedia() {
		return true, nil
	}
	return s.media.Has(item.ID)
}

type asset struct {
	dir  *storage.Dir
	url  string
	data []byte
}

// Save downloads the cover and, when present, the media asset. Nothing is
// written until every download has completed.
func (s *Sink) Save(ctx context.Context, item models.Item) error {
	if item.ID == "" {
		return errs.New(errs.ErrorTypeExtraction, "item without id")
	}

	assets := []*asset{{dir: s.covers, url: item.CoverURL}}
	if item.HasMedia() {
		assets = append(assets, &asset{dir: s.media, url: item.MediaURL})
	}

	for _, a := range assets {
		if a.url == "" {
			return errs.New(errs.ErrorTypeDownload, "item %s has no cover url", item.ID)
		}
		data, err := s.downloader.Download(ctx, a.url)
		if err != nil {
			return err
		}
		a.data = data
	}

	meta := metadata.FromItem(item)
	for i, a := range assets {
		written, err := a.dir.Save(item.ID, assetExtension(a.url, a.data), bytes.NewReader(a.data))
		if err != nil {
			return err
		}
		if i == 0 {
			meta.CoverFile, meta.CoverSize = filepath.Base(written), int64(len(a.data))
		} else {
			meta.MediaFile, meta.MediaSize = filepath.Base(written), int64(len(a.data))
		}
	}

	if s.metadataDir != "" {
		if err := meta.Save(s.metadataDir); err != nil {
			return err
		}
	}

	s.logger.DebugWithFields("cached item", map[string]interface{}{
		"id":         item.ID,
		"cover_size": meta.CoverSize,
		"media_size": meta.MediaSize,
	})
	return nil
}

// Count returns the number of cached covers and media files
func (s *Sink) Count() (covers, media int, err error) {
	if covers, err = s.covers.Count(); err != nil {
		return 0, 0, err
	}
	if media, err = s.media.Count(); err != nil {
		return 0, 0, err
	}
	return covers, media, nil
}

// Extension returns the file extension of the URL path, including the dot.
func Extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(u.Path)
	if strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}

// preferred extensions for sniffed types whose mime table entry is ambiguous
var sniffedExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",

	"application/octet-stream": ".bin",
}

// assetExtension names the file of a downloaded asset. The URL extension
// wins; otherwise the type is sniffed from the body, falling back to ".bin".
// An asset is never stored without an extension, since lookups match "<id>.*".
func assetExtension(rawURL string, data []byte) string {
	if ext := Extension(rawURL); ext != "" && ext != "." {
		return ext
	}

	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return ".bin"
	}
	if ext, ok := sniffedExtensions[mediaType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mediaType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
