package models

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// PromotedTag marks sponsored feed entries. They never leave the extractor.
const PromotedTag = "Promoted"

// Item is one feed entry as it travels between the feed, the catalog and the cache.
type Item struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Tags     []string `json:"tags"`
	CoverURL string   `json:"cover_url"`
	// MediaURL is empty for items read back from the catalog.
	MediaURL string `json:"media_url,omitempty"`
}

// HasMedia reports whether the item carries a media asset.
func (i Item) HasMedia() bool {
	return i.MediaURL != ""
}

// IsPromoted reports whether the tag list marks a sponsored entry.
func IsPromoted(tags []string) bool {
	for _, tag := range tags {
		if strings.TrimSpace(tag) == PromotedTag {
			return true
		}
	}
	return false
}

// IDFromURL derives the item id from the last path segment of its canonical URL.
func IDFromURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse item url %q: %w", rawURL, err)
	}

	id := path.Base(strings.TrimRight(u.Path, "/"))
	if id == "" || id == "." || id == "/" {
		return "", fmt.Errorf("item url %q has no id segment", rawURL)
	}
	return id, nil
}

// NormalizeTags trims tags, strips commas and drops empty and repeated entries,
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(strings.ReplaceAll(tag, ",", ""))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	return out
}
