package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gagsync/pkg/models"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	item := models.Item{
		ID:       "aOBmnq2",
		Title:    "When the build passes",
		URL:      "https://9gag.com/gag/aOBmnq2",
		Tags:     []string{"Funny"},
		CoverURL: "https://img.example/aOBmnq2_460s.jpg",
		MediaURL: "https://img.example/aOBmnq2_460sv.mp4?x=1",
	}

	meta := FromItem(item)
	assert.True(t, meta.IsVideo)
	meta.CoverFile = "aOBmnq2.jpg"

	assert.False(t, MetadataExists(dir, item.ID))
	require.NoError(t, meta.Save(dir))
	assert.True(t, MetadataExists(dir, item.ID))

	loaded, err := Load(dir, item.ID)
	require.NoError(t, err)
	assert.Equal(t, meta.Title, loaded.Title)
	assert.Equal(t, meta.Tags, loaded.Tags)
	assert.Equal(t, "aOBmnq2.jpg", loaded.CoverFile)
	assert.True(t, meta.DownloadedAt.Equal(loaded.DownloadedAt))

	_, err = Load(dir, "missing")
	assert.Error(t, err)
}

func TestIsVideoURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://img.example/a.mp4", true},
		{"https://img.example/a.WEBM", true},
		{"https://img.example/a.jpg", false},
		{"https://img.example/a.webp?v=mp4", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsVideoURL(tt.url), tt.url)
	}
}
