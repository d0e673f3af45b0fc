package catalog

import (
	"fmt"
	"strings"

	"github.com/jomei/notionapi"

	"gagsync/pkg/models"
)

// maxTextLength is the API limit for one rich text object.
const maxTextLength = 2000

func richText(s string) []notionapi.RichText {
	if r := []rune(s); len(r) > maxTextLength {
		s = string(r[:maxTextLength])
	}
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}

func plainText(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range parts {
		switch {
		case rt.PlainText != "":
			b.WriteString(rt.PlainText)
		case rt.Text != nil:
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

func multiSelect(tags []string) *notionapi.MultiSelectProperty {
	options := make([]notionapi.Option, 0, len(tags))
	for _, tag := range tags {
		options = append(options, notionapi.Option{Name: tag})
	}
	return &notionapi.MultiSelectProperty{MultiSelect: options}
}

// properties encodes the item fields with the configured property names.
func (c *Catalog) properties(item models.Item) notionapi.Properties {
	return notionapi.Properties{
		c.props.Title:      &notionapi.TitleProperty{Title: richText(item.Title)},
		c.props.URL:        &notionapi.URLProperty{URL: item.URL},
		c.props.ExternalID: &notionapi.RichTextProperty{RichText: richText(item.ID)},
		c.props.Tags:       multiSelect(models.NormalizeTags(item.Tags)),
	}
}

// cover sets the item cover image as the page cover.
func cover(item models.Item) *notionapi.Image {
	if item.CoverURL == "" {
		return nil
	}
	return &notionapi.Image{
		Type:     notionapi.FileTypeExternal,
		External: &notionapi.FileObject{URL: item.CoverURL},
	}
}

func coverURL(img *notionapi.Image) string {
	switch {
	case img == nil:
		return ""
	case img.External != nil:
		return img.External.URL
	case img.File != nil:
		return img.File.URL
	}
	return ""
}

// itemFromPage decodes a catalog page. Catalog items carry no media URL.
func (c *Catalog) itemFromPage(page notionapi.Page) (models.Item, error) {
	item := models.Item{CoverURL: coverURL(page.Cover)}

	if p, ok := page.Properties[c.props.Title].(*notionapi.TitleProperty); ok {
		item.Title = plainText(p.Title)
	}
	if p, ok := page.Properties[c.props.URL].(*notionapi.URLProperty); ok {
		item.URL = p.URL
	}
	if p, ok := page.Properties[c.props.ExternalID].(*notionapi.RichTextProperty); ok {
		item.ID = strings.TrimSpace(plainText(p.RichText))
	}
	if p, ok := page.Properties[c.props.Tags].(*notionapi.MultiSelectProperty); ok {
		for _, opt := range p.MultiSelect {
			item.Tags = append(item.Tags, opt.Name)
		}
	}

	if item.ID == "" {
		return item, fmt.Errorf("page %s has no %q value", page.ID, c.props.ExternalID)
	}
	return item, nil
}
