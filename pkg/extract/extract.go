// Package extract turns feed markup into models.Item values.
//
// Stream fragments come from the feed page (one "#stream-N" container per
// batch); single post pages carry one article under "#individual-post".
// Extraction never touches the browser: callers hand over outerHTML.
package extract

import (
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "gagsync/pkg/errors"
	"gagsync/pkg/models"
)

// ErrPromoted is returned for sponsored entries. Callers drop them silently.
var ErrPromoted = errors.New("promoted item")

// Extractor resolves relative links against the feed origin.
type Extractor struct {
	base *url.URL
}

// New creates an extractor for pages served from base
func New(base string) (*Extractor, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, err, "invalid feed url %q", base)
	}
	if !u.IsAbs() {
		return nil, errs.New(errs.ErrorTypeConfig, "feed url %q is not absolute", base)
	}
	return &Extractor{base: u}, nil
}

// Articles parses a stream fragment and returns its article elements.
func Articles(fragment string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeExtraction, err, "failed to parse stream markup")
	}
	return doc.Find("article"), nil
}

// Stream extracts an item from a feed article, where the title is the
// header link.
func (e *Extractor) Stream(article *goquery.Selection) (models.Item, error) {
	tags, err := e.tags(article)
	if err != nil {
		return models.Item{}, err
	}

	link := article.ChildrenFiltered("header").ChildrenFiltered("a").First()
	if link.Length() == 0 {
		return models.Item{}, errs.New(errs.ErrorTypeExtraction, "article has no header link")
	}
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return models.Item{}, errs.New(errs.ErrorTypeExtraction, "article header link has no href")
	}
	canonical, err := e.resolve(href)
	if err != nil {
		return models.Item{}, err
	}

	return e.complete(article, models.Item{
		Title: strings.TrimSpace(link.Text()),
		URL:   canonical,
		Tags:  tags,
	})
}

// Single extracts the article of a post page. The page URL is canonical.
func (e *Extractor) Single(article *goquery.Selection, pageURL string) (models.Item, error) {
	tags, err := e.tags(article)
	if err != nil {
		return models.Item{}, err
	}

	heading := article.ChildrenFiltered("header").ChildrenFiltered("h1").First()
	if heading.Length() == 0 {
		return models.Item{}, errs.New(errs.ErrorTypeExtraction, "post has no title heading")
	}
	canonical, err := e.resolve(pageURL)
	if err != nil {
		return models.Item{}, err
	}

	return e.complete(article, models.Item{
		Title: strings.TrimSpace(heading.Text()),
		URL:   canonical,
		Tags:  tags,
	})
}

// Page extracts the post from the full markup of a single post page.
// The site's 404 page yields a not_found error.
func (e *Extractor) Page(html, pageURL string) (models.Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.Item{}, errs.Wrap(errs.ErrorTypeExtraction, err, "failed to parse post page")
	}

	article := doc.Find("#individual-post article").First()
	if article.Length() == 0 {
		if strings.TrimSpace(doc.Find("div.message > h1").First().Text()) == "404" {
			return models.Item{}, errs.New(errs.ErrorTypeNotFound, "post %s not found", pageURL)
		}
		return models.Item{}, errs.New(errs.ErrorTypeExtraction, "no post article on %s", pageURL)
	}
	return e.Single(article, pageURL)
}

// tags reads the tag links. The promoted check runs on the raw labels.
func (e *Extractor) tags(article *goquery.Selection) ([]string, error) {
	container := article.ChildrenFiltered("div.post-tags")
	if container.Length() == 0 {
		return nil, errs.New(errs.ErrorTypeExtraction, "article has no tag container")
	}

	raw := container.ChildrenFiltered("a").Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})
	if models.IsPromoted(raw) {
		return nil, ErrPromoted
	}
	return models.NormalizeTags(raw), nil
}

// complete fills the id and the asset URLs shared by both article shapes.
func (e *Extractor) complete(article *goquery.Selection, item models.Item) (models.Item, error) {
	id, err := models.IDFromURL(item.URL)
	if err != nil {
		return models.Item{}, errs.Wrap(errs.ErrorTypeExtraction, err, "cannot derive item id")
	}
	item.ID = id

	if item.CoverURL, err = e.cover(article); err != nil {
		return models.Item{}, err
	}
	if item.MediaURL, err = e.media(article); err != nil {
		return models.Item{}, err
	}
	return item, nil
}

// cover prefers a video poster over a picture source.
func (e *Extractor) cover(article *goquery.Selection) (string, error) {
	var cover string
	if src, ok := article.Find(".post-container * > picture > img").First().Attr("src"); ok {
		cover = src
	}
	if poster, ok := article.Find(".post-container * > video").First().Attr("poster"); ok && poster != "" {
		cover = poster
	}
	if strings.TrimSpace(cover) == "" {
		return "", errs.New(errs.ErrorTypeExtraction, "article has no cover image")
	}
	return e.resolve(cover)
}

// media picks the single asset of the post view: an mp4 video or a picture.
func (e *Extractor) media(article *goquery.Selection) (string, error) {
	view := article.Find(".post-view").First()
	if view.Length() == 0 {
		return "", errs.New(errs.ErrorTypeExtraction, "article has no post view")
	}

	video, _ := view.ChildrenFiltered("video").ChildrenFiltered(`source[type="video/mp4"]`).First().Attr("src")
	image, _ := view.ChildrenFiltered("picture").ChildrenFiltered("img").First().Attr("src")

	switch {
	case video != "" && image != "":
		return "", errs.New(errs.ErrorTypeExtraction, "post view holds both a video and an image")
	case video != "":
		return e.resolve(video)
	case image != "":
		return e.resolve(image)
	default:
		return "", errs.New(errs.ErrorTypeExtraction, "post view holds neither a video nor an image")
	}
}

func (e *Extractor) resolve(ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeExtraction, err, "invalid link %q", ref)
	}
	return e.base.ResolveReference(u).String(), nil
}
