package catalog

import (
	"context"

	"github.com/jomei/notionapi"

	"gagsync/pkg/models"
)

// Pages iterates over every record of the catalog, one API page per batch.
// Records without an external id are logged and skipped.
type Pages struct {
	catalog *Catalog
	cursor  notionapi.Cursor
	done    bool
}

// Pages starts a replay of the whole database
func (c *Catalog) Pages() *Pages {
	return &Pages{catalog: c}
}

// Next returns the next batch of items and false once the database is exhausted.
func (p *Pages) Next(ctx context.Context) ([]models.Item, bool, error) {
	if p.done {
		return nil, false, nil
	}

	c := p.catalog
	req := &notionapi.DatabaseQueryRequest{
		StartCursor: p.cursor,
		PageSize:    c.pageSize,
	}

	resp, err := c.query(ctx, "query page", req)
	if err != nil {
		return nil, false, err
	}

	items := make([]models.Item, 0, len(resp.Results))
	for _, page := range resp.Results {
		item, err := c.itemFromPage(page)
		if err != nil {
			c.logger.WithError(err).Warn("skipping catalog record")
			continue
		}
		items = append(items, item)
	}

	if resp.HasMore && resp.NextCursor != "" {
		p.cursor = resp.NextCursor
	} else {
		p.done = true
	}

	c.logger.DebugWithFields("catalog page read", map[string]interface{}{
		"items":    len(items),
		"has_more": !p.done,
	})
	return items, true, nil
}
