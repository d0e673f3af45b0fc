package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagsync/pkg/config"
	errs "gagsync/pkg/errors"
	"gagsync/pkg/logger"
	"gagsync/pkg/metadata"
	"gagsync/pkg/models"
)

type fakeDownloader struct {
	bodies map[string][]byte
	errors map[string]error
	calls  []string
}

func (f *fakeDownloader) Download(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	if err := f.errors[url]; err != nil {
		return nil, err
	}
	return f.bodies[url], nil
}

func newSink(t *testing.T, dl Downloader) (*Sink, config.CacheConfig) {
	t.Helper()
	root := t.TempDir()
	cfg := config.CacheConfig{
		CoversDir:   filepath.Join(root, "covers"),
		MediaDir:    filepath.Join(root, "memes"),
		MetadataDir: filepath.Join(root, "meta"),
	}
	sink, err := New(cfg, dl, logger.NewTestLogger())
	require.NoError(t, err)
	return sink, cfg
}

var item = models.Item{
	ID:       "aOBmnq2",
	Title:    "title",
	URL:      "https://9gag.com/gag/aOBmnq2",
	CoverURL: "https://img.example/photo/aOBmnq2_460s.jpg",
	MediaURL: "https://img.example/photo/aOBmnq2_460sv.mp4",
}

func TestExistsRequiresBothFiles(t *testing.T) {
	sink, cfg := newSink(t, &fakeDownloader{})
	ctx := context.Background()

	ok, err := sink.Exists(ctx, item)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(cfg.CoversDir, "aOBmnq2.webp"), []byte("c"), 0644))
	ok, err = sink.Exists(ctx, item)
	require.NoError(t, err)
	assert.False(t, ok, "cover alone is not enough")

	require.NoError(t, os.WriteFile(filepath.Join(cfg.MediaDir, "aOBmnq2.gif"), []byte("m"), 0644))
	ok, err = sink.Exists(ctx, item)
	require.NoError(t, err)
	assert.True(t, ok, "extension does not matter")
}

func TestExistsWithoutMediaNeedsCoverOnly(t *testing.T) {
	sink, cfg := newSink(t, &fakeDownloader{})
	replayed := item
	replayed.MediaURL = ""

	require.NoError(t, os.WriteFile(filepath.Join(cfg.CoversDir, "aOBmnq2.jpg"), []byte("c"), 0644))
	ok, err := sink.Exists(context.Background(), replayed)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveWritesBothAssets(t *testing.T) {
	dl := &fakeDownloader{bodies: map[string][]byte{
		item.CoverURL: []byte("cover-bytes"),
		item.MediaURL: []byte("media-bytes"),
	}}
	sink, cfg := newSink(t, dl)
	ctx := context.Background()

	require.NoError(t, sink.Save(ctx, item))
	assert.Equal(t, []string{item.CoverURL, item.MediaURL}, dl.calls)

	cover, err := os.ReadFile(filepath.Join(cfg.CoversDir, "aOBmnq2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "cover-bytes", string(cover))

	media, err := os.ReadFile(filepath.Join(cfg.MediaDir, "aOBmnq2.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "media-bytes", string(media))

	meta, err := metadata.Load(cfg.MetadataDir, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "aOBmnq2.mp4", meta.MediaFile)
	assert.Equal(t, int64(len("cover-bytes")), meta.CoverSize)

	ok, err := sink.Exists(ctx, item)
	require.NoError(t, err)
	assert.True(t, ok)

	covers, mediaCount, err := sink.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, covers)
	assert.Equal(t, 1, mediaCount)
}

func TestSaveDownloadFailureWritesNothing(t *testing.T) {
	dl := &fakeDownloader{
		bodies: map[string][]byte{item.CoverURL: []byte("cover")},
		errors: map[string]error{item.MediaURL: errs.New(errs.ErrorTypeDownload, "GET failed").WithCode(403)},
	}
	sink, cfg := newSink(t, dl)

	err := sink.Save(context.Background(), item)
	assert.ErrorIs(t, err, errs.ErrDownload)

	entries, err := os.ReadDir(cfg.CoversDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial item on disk")
	assert.False(t, metadata.MetadataExists(cfg.MetadataDir, item.ID))
}

func TestSaveWithoutMedia(t *testing.T) {
	dl := &fakeDownloader{bodies: map[string][]byte{item.CoverURL: []byte("cover")}}
	sink, cfg := newSink(t, dl)

	replayed := item
	replayed.MediaURL = ""
	require.NoError(t, sink.Save(context.Background(), replayed))
	assert.Len(t, dl.calls, 1)

	entries, err := os.ReadDir(cfg.MediaDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveWithoutCoverURL(t *testing.T) {
	sink, _ := newSink(t, &fakeDownloader{})
	broken := item
	broken.CoverURL = ""
	assert.Error(t, sink.Save(context.Background(), broken))

	broken.ID = ""
	assert.False(t, errors.Is(sink.Save(context.Background(), broken), errs.ErrDownload))
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"https://img.example/a_460s.jpg":          ".jpg",
		"https://img.example/a_460sv.mp4?ver=2":   ".mp4",
		"https://img.example/a_460svvp9.webm#top": ".webm",
		"https://img.example/noext":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Extension(in), in)
	}
}

func TestSaveWithoutURLExtension(t *testing.T) {
	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	mp4 := append([]byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), make([]byte, 8)...)

	tests := []struct {
		name      string
		cover     []byte
		media     []byte
		wantCover string
		wantMedia string
	}{
		{"sniffed", jpeg, mp4, "aNoExt1.jpg", "aNoExt1.mp4"},
		{"unknown", []byte{0x00, 0x01, 0x02}, []byte{0x00, 0x03}, "aNoExt1.bin", "aNoExt1.bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			noExt := models.Item{
				ID:       "aNoExt1",
				URL:      "https://9gag.com/gag/aNoExt1",
				CoverURL: "https://img.example/cover/aNoExt1",
				MediaURL: "https://img.example/media/aNoExt1?format=mp4",
			}
			dl := &fakeDownloader{bodies: map[string][]byte{
				noExt.CoverURL: tt.cover,
				noExt.MediaURL: tt.media,
			}}
			sink, cfg := newSink(t, dl)
			ctx := context.Background()

			require.NoError(t, sink.Save(ctx, noExt))

			ok, err := sink.Exists(ctx, noExt)
			require.NoError(t, err)
			assert.True(t, ok, "a stored item must be found again")

			assert.FileExists(t, filepath.Join(cfg.CoversDir, tt.wantCover))
			assert.FileExists(t, filepath.Join(cfg.MediaDir, tt.wantMedia))
		})
	}
}

func TestAssetExtension(t *testing.T) {
	assert.Equal(t, ".webm", assetExtension("https://img.example/a.webm", []byte("\xff\xd8\xff")))
	assert.Equal(t, ".png", assetExtension("https://img.example/a", []byte("\x89PNG\r\n\x1a\n")))
	assert.Equal(t, ".bin", assetExtension("https://img.example/a", []byte{0x00}))
}
