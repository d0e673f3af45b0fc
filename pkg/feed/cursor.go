// Package feed walks the infinite-scroll feed page in batches.
//
// The page renders items into sequentially numbered stream containers and
// keeps a loader link at the bottom whose class tells whether more content
// is coming ("spin") or the feed is exhausted ("end"). Cursor turns that
// into a finite, forward-only sequence; Batches wraps it as an iterator.
package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gagsync/pkg/browser"
	"gagsync/pkg/config"
	errs "gagsync/pkg/errors"
	"gagsync/pkg/extract"
	"gagsync/pkg/logger"
	"gagsync/pkg/models"
	"gagsync/pkg/retry"
)

// Feed page selectors
const (
	ListViewSelector = "#list-view-2"
	LoaderSelector   = "#list-view-2 div.loading > a"

	loaderMore = "spin"
	loaderEnd  = "end"
)

// StreamSelector addresses the stream container of a cursor position.
func StreamSelector(position int) string {
	return fmt.Sprintf("%s #stream-%d", ListViewSelector, position)
}

// State of a feed cursor
type State int

const (
	NotStarted State = iota
	Ready
	AtEnd
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Ready:
		return "ready"
	case AtEnd:
		return "at_end"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures a cursor
type Options struct {
	URL         string
	ScrollDelay time.Duration
}

// OptionsFromConfig builds cursor options from the feed section
func OptionsFromConfig(cfg config.FeedConfig) Options {
	return Options{URL: cfg.URL, ScrollDelay: cfg.ScrollDelay}
}

// Cursor tracks the traversal position. AtEnd is terminal.
type Cursor struct {
	page      browser.Page
	extractor *extract.Extractor
	opts      Options
	logger    logger.Logger

	position int
	state    State

	// Sleep waits for lazy-loaded content after scrolling; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewCursor creates a cursor over an authenticated page.
func NewCursor(page browser.Page, opts Options, log logger.Logger) (*Cursor, error) {
	extractor, err := extract.New(opts.URL)
	if err != nil {
		return nil, err
	}
	return &Cursor{
		page:      page,
		extractor: extractor,
		opts:      opts,
		logger:    logger.Component(log, "feed"),
		Sleep:     retry.Wait,
	}, nil
}

// State returns the cursor state
func (c *Cursor) State() State {
	return c.state
}

// AtEnd reports whether the feed is exhausted
func (c *Cursor) AtEnd() bool {
	return c.state == AtEnd
}

// Open loads the feed page at position 0.
func (c *Cursor) Open(ctx context.Context) error {
	if c.state != NotStarted {
		return errs.New(errs.ErrorTypeFeedState, "feed cursor already opened (state %s)", c.state)
	}

	c.logger.InfoWithFields("opening feed", map[string]interface{}{"url": c.opts.URL})
	if err := c.page.Navigate(ctx, c.opts.URL); err != nil {
		return err
	}

	found, err := c.page.Exists(ctx, ListViewSelector)
	if err != nil {
		return err
	}
	if !found {
		return errs.New(errs.ErrorTypeFeedState, "feed list %s not found on %s", ListViewSelector, c.opts.URL)
	}

	c.position = 0
	c.state = Ready
	return nil
}

// GetBatch extracts the items of the current stream container. Malformed
// articles are logged and skipped; promoted ones are dropped. At the end
// of the feed it returns an empty batch.
func (c *Cursor) GetBatch(ctx context.Context) ([]models.Item, error) {
	switch c.state {
	case AtEnd:
		c.logger.Debug("feed exhausted, empty batch")
		return nil, nil
	case NotStarted:
		return nil, errs.New(errs.ErrorTypeFeedState, "feed cursor not opened")
	}

	selector := StreamSelector(c.position)
	html, err := c.page.OuterHTML(ctx, selector)
	if errors.Is(err, browser.ErrNoElement) {
		return nil, errs.Wrap(errs.ErrorTypeFeedState, err, "stream %d missing", c.position)
	}
	if err != nil {
		return nil, err
	}

	articles, err := extract.Articles(html)
	if err != nil {
		return nil, err
	}

	log := c.logger.WithField("position", c.position)
	items := make([]models.Item, 0, articles.Length())
	var promoted, malformed int

	for i := range articles.Nodes {
		item, err := c.extractor.Stream(articles.Eq(i))
		switch {
		case errors.Is(err, extract.ErrPromoted):
			promoted++
			continue
		case err != nil:
			malformed++
			log.WithError(err).WarnWithFields("skipping article", map[string]interface{}{"index": i})
			continue
		}
		items = append(items, item)
	}

	log.DebugWithFields("batch extracted", map[string]interface{}{
		"items":     len(items),
		"promoted":  promoted,
		"malformed": malformed,
	})
	return items, nil
}

// Advance moves to the next stream container by scrolling the loader into
// view, then reads the loader state. It is a no-op once the feed is at its end.
func (c *Cursor) Advance(ctx context.Context) error {
	switch c.state {
	case AtEnd:
		return nil
	case NotStarted:
		return errs.New(errs.ErrorTypeFeedState, "feed cursor not opened")
	}

	c.position++

	if err := c.page.ScrollIntoView(ctx, LoaderSelector); err != nil {
		if errors.Is(err, browser.ErrNoElement) {
			return errs.Wrap(errs.ErrorTypeFeedState, err, "feed loader missing")
		}
		return err
	}
	if err := c.Sleep(ctx, c.opts.ScrollDelay); err != nil {
		return err
	}

	class, _, err := c.page.Attribute(ctx, LoaderSelector, "class")
	if errors.Is(err, browser.ErrNoElement) {
		return errs.Wrap(errs.ErrorTypeFeedState, err, "feed loader missing")
	}
	if err != nil {
		return err
	}

	classes := strings.Fields(class)
	switch {
	case contains(classes, loaderMore):
		c.logger.DebugWithFields("advanced", map[string]interface{}{"position": c.position})
	case contains(classes, loaderEnd):
		c.state = AtEnd
		c.logger.InfoWithFields("reached end of feed", map[string]interface{}{"position": c.position})
	default:
		return errs.New(errs.ErrorTypeFeedState, "unrecognized loader state %q", class)
	}
	return nil
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
