package feed

import (
	"context"

	"gagsync/pkg/browser"
	"gagsync/pkg/extract"
	"gagsync/pkg/models"
)

// Batches is a forward-only iterator over a cursor. The first Next returns
// the batch at the opening position; each later call advances first. Once
// the cursor reaches the end, Next keeps reporting exhaustion.
type Batches struct {
	cursor  *Cursor
	started bool
}

// NewBatches wraps cursor. An unopened cursor is opened on the first Next.
func NewBatches(cursor *Cursor) *Batches {
	return &Batches{cursor: cursor}
}

// Next returns the next batch and false when the feed is exhausted.
func (b *Batches) Next(ctx context.Context) ([]models.Item, bool, error) {
	if !b.started {
		if b.cursor.State() == NotStarted {
			if err := b.cursor.Open(ctx); err != nil {
				return nil, false, err
			}
		}
		b.started = true
		return b.batch(ctx)
	}

	if b.cursor.AtEnd() {
		return nil, false, nil
	}
	if err := b.cursor.Advance(ctx); err != nil {
		return nil, false, err
	}
	if b.cursor.AtEnd() {
		return nil, false, nil
	}
	return b.batch(ctx)
}

func (b *Batches) batch(ctx context.Context) ([]models.Item, bool, error) {
	items, err := b.cursor.GetBatch(ctx)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// FetchPost loads a single post page and extracts its item.
func FetchPost(ctx context.Context, page browser.Page, extractor *extract.Extractor, url string) (models.Item, error) {
	if err := page.Navigate(ctx, url); err != nil {
		return models.Item{}, err
	}
	html, err := page.OuterHTML(ctx, "html")
	if err != nil {
		return models.Item{}, err
	}
	return extractor.Page(html, url)
}
