package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"absolute", "https://9gag.com/gag/aOBmnq2", "aOBmnq2", false},
		{"trailing slash", "https://9gag.com/gag/aOBmnq2/", "aOBmnq2", false},
		{"query ignored", "https://9gag.com/gag/aOBmnq2?ref=home", "aOBmnq2", false},
		{"relative", "/gag/a1b2c3", "a1b2c3", false},
		{"no path", "https://9gag.com", "", true},
		{"root path", "https://9gag.com/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IDFromURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIDFromURLIsStable(t *testing.T) {
	const u = "https://9gag.com/gag/aXyZ123"

	first, err := IDFromURL(u)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := IDFromURL(u)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Funny ", "Cats, Dogs", "Funny", "", "Animals", "Cats Dogs"})
	assert.Equal(t, []string{"Funny", "Cats Dogs", "Animals"}, got)
	assert.Empty(t, NormalizeTags(nil))
}

func TestIsPromoted(t *testing.T) {
	assert.True(t, IsPromoted([]string{"Funny", "Promoted"}))
	assert.False(t, IsPromoted([]string{"Funny", "Promotion"}))
	assert.False(t, IsPromoted(nil))
}

func TestHasMedia(t *testing.T) {
	assert.True(t, Item{MediaURL: "https://img/x.mp4"}.HasMedia())
	assert.False(t, Item{}.HasMedia())
}
