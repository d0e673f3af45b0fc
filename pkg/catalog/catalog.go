// Package catalog is the remote sink: one Notion database page per item,
// looked up by the item id stored in a rich text property.
//
// Every API call is throttled by a token bucket and wrapped in the retry
// policy. Only transient failures (conflicts, rate limiting, server errors
// and transport errors) are retried; schema and duplicate faults are not.
package catalog

import (
	"context"
	"errors"

	"github.com/jomei/notionapi"

	"gagsync/pkg/config"
	errs "gagsync/pkg/errors"
	"gagsync/pkg/logger"
	"gagsync/pkg/models"
	"gagsync/pkg/ratelimit"
	"gagsync/pkg/retry"
)

// DatabaseAPI is the subset of notionapi.DatabaseService the catalog uses.
type DatabaseAPI interface {
	Get(ctx context.Context, id notionapi.DatabaseID) (*notionapi.Database, error)
	Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// PageAPI is the subset of notionapi.PageService the catalog uses.
type PageAPI interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	Update(ctx context.Context, id notionapi.PageID, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// Record is a catalog page matched to an item.
type Record struct {
	PageID notionapi.PageID
	Item   models.Item
}

// Options tune a catalog. Zero values get defaults.
type Options struct {
	DatabaseID string
	Properties config.CatalogPropertyMap
	PageSize   int
	Limiter    ratelimit.Limiter
	Retry      *retry.Policy
}

// Catalog reads and writes item records in one database.
type Catalog struct {
	db         DatabaseAPI
	pages      PageAPI
	databaseID notionapi.DatabaseID
	props      config.CatalogPropertyMap
	pageSize   int
	limiter    ratelimit.Limiter
	retry      *retry.Policy
	logger     logger.Logger
}

// NewClient builds a Notion API client for token
func NewClient(token string) *notionapi.Client {
	return notionapi.NewClient(notionapi.Token(token))
}

// FromConfig connects to the configured database and validates its schema.
func FromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (*Catalog, error) {
	client := NewClient(cfg.Catalog.Token)
	return New(ctx, client.Database, client.Page, Options{
		DatabaseID: cfg.Catalog.DatabaseID,
		Properties: cfg.Catalog.Properties,
		PageSize:   cfg.Catalog.PageSize,
		Limiter:    ratelimit.FromConfig(cfg.RateLimit),
		Retry:      retry.FromConfig(cfg.Retry, log),
	}, log)
}

// New validates the database schema once. A mismatch is a schema error
// and is never retried.
func New(ctx context.Context, db DatabaseAPI, pages PageAPI, opts Options, log logger.Logger) (*Catalog, error) {
	if opts.DatabaseID == "" {
		return nil, errs.New(errs.ErrorTypeConfig, "catalog database id is required")
	}
	if opts.PageSize <= 0 || opts.PageSize > 100 {
		opts.PageSize = 100
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	if opts.Retry == nil {
		opts.Retry = retry.DefaultPolicy()
	}

	c := &Catalog{
		db:         db,
		pages:      pages,
		databaseID: notionapi.DatabaseID(opts.DatabaseID),
		props:      withDefaultProperties(opts.Properties),
		pageSize:   opts.PageSize,
		limiter:    opts.Limiter,
		retry:      opts.Retry,
		logger:     logger.Component(log, "catalog"),
	}

	if err := c.validateSchema(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func withDefaultProperties(p config.CatalogPropertyMap) config.CatalogPropertyMap {
	def := config.DefaultConfig().Catalog.Properties
	if p.Title == "" {
		p.Title = def.Title
	}
	if p.URL == "" {
		p.URL = def.URL
	}
	if p.ExternalID == "" {
		p.ExternalID = def.ExternalID
	}
	if p.Tags == "" {
		p.Tags = def.Tags
	}
	return p
}

func (c *Catalog) validateSchema(ctx context.Context) error {
	var db *notionapi.Database
	err := c.call(ctx, "get database", func(ctx context.Context) error {
		var err error
		db, err = c.db.Get(ctx, c.databaseID)
		return err
	})
	if err != nil {
		return err
	}

	required := []struct {
		name string
		kind notionapi.PropertyConfigType
	}{
		{c.props.Title, notionapi.PropertyConfigTypeTitle},
		{c.props.URL, notionapi.PropertyConfigTypeURL},
		{c.props.ExternalID, notionapi.PropertyConfigTypeRichText},
		{c.props.Tags, notionapi.PropertyConfigTypeMultiSelect},
	}

	var problems []error
	for _, r := range required {
		prop, ok := db.Properties[r.name]
		if !ok {
			problems = append(problems, errs.New(errs.ErrorTypeSchema, "property %q missing", r.name))
			continue
		}
		if prop.GetType() != r.kind {
			problems = append(problems, errs.New(errs.ErrorTypeSchema,
				"property %q is %s, want %s", r.name, prop.GetType(), r.kind))
		}
	}
	if len(problems) > 0 {
		return errs.Wrap(errs.ErrorTypeSchema, errors.Join(problems...), "catalog database %s does not match the item schema", c.databaseID)
	}

	c.logger.DebugWithFields("catalog schema validated", map[string]interface{}{
		"database": string(c.databaseID),
	})
	return nil
}

// call throttles and retries one API operation.
func (c *Catalog) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return c.retry.Do(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return classify(op, fn(ctx))
	})
}

// query throttles and retries one database query.
func (c *Catalog) query(ctx context.Context, op string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return retry.DoValue(ctx, c.retry, func(ctx context.Context) (*notionapi.DatabaseQueryResponse, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := c.db.Query(ctx, c.databaseID, req)
		return resp, classify(op, err)
	})
}

// classify marks retryable API failures as transient.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Status != 0 && errs.IsRetryableStatusCode(apiErr.Status) {
			return errs.Wrap(errs.ErrorTypeTransient, err, "%s", op).WithCode(apiErr.Status)
		}
		if apiErr.Status == 404 {
			return errs.Wrap(errs.ErrorTypeNotFound, err, "%s", op).WithCode(apiErr.Status)
		}
		return errs.Wrap(errs.ErrorTypeUnknown, err, "%s", op).WithCode(apiErr.Status)
	}

	// Transport failures never reached the API.
	return errs.Wrap(errs.ErrorTypeTransient, err, "%s", op)
}

// Exists looks the item up by its external id. More than one match is a
// duplicate record fault.
func (c *Catalog) Exists(ctx context.Context, item models.Item) (*Record, error) {
	return c.find(ctx, item.ID)
}

func (c *Catalog) find(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, errs.New(errs.ErrorTypeExtraction, "item without id")
	}

	req := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: c.props.ExternalID,
			RichText: &notionapi.TextFilterCondition{Equals: id},
		},
		PageSize: 2,
	}

	resp, err := c.query(ctx, "query by id", req)
	if err != nil {
		return nil, err
	}

	switch n := len(resp.Results); {
	case n == 0:
		return nil, nil
	case n > 1 || resp.HasMore:
		return nil, errs.New(errs.ErrorTypeDuplicate, "catalog holds several records for item %s", id)
	}

	page := resp.Results[0]
	item, _ := c.itemFromPage(page)
	return &Record{PageID: notionapi.PageID(page.ID), Item: item}, nil
}

// Save creates the record, or overwrites an existing one when update is
// set. Without update an existing record is left untouched.
func (c *Catalog) Save(ctx context.Context, item models.Item, update bool) error {
	existing, err := c.Exists(ctx, item)
	if err != nil {
		return err
	}

	log := c.logger.WithField("id", item.ID)

	if existing == nil {
		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: c.databaseID,
			},
			Properties: c.properties(item),
			Cover:      cover(item),
		}
		err := c.call(ctx, "create page", func(ctx context.Context) error {
			_, err := c.pages.Create(ctx, req)
			return err
		})
		if err != nil {
			return err
		}
		log.Debug("catalog record created")
		return nil
	}

	if !update {
		log.Debug("catalog record exists, not updating")
		return nil
	}

	req := &notionapi.PageUpdateRequest{
		Properties: c.properties(item),
		Cover:      cover(item),
	}
	err = c.call(ctx, "update page", func(ctx context.Context) error {
		_, err := c.pages.Update(ctx, existing.PageID, req)
		return err
	})
	if err != nil {
		return err
	}
	log.Debug("catalog record updated")
	return nil
}

// UpdateTags replaces the tag set of the record for id.
func (c *Catalog) UpdateTags(ctx context.Context, id string, tags []string) error {
	existing, err := c.find(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errs.New(errs.ErrorTypeNotFound, "no catalog record for item %s", id)
	}

	req := &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			c.props.Tags: multiSelect(models.NormalizeTags(tags)),
		},
	}
	return c.call(ctx, "update tags", func(ctx context.Context) error {
		_, err := c.pages.Update(ctx, existing.PageID, req)
		return err
	})
}

// Sink adapts the catalog to the orchestrator. Writes update on conflict.
func (c *Catalog) Sink() *Sink {
	return &Sink{catalog: c}
}

// Sink is the remote catalog seen as an orchestrator sink
type Sink struct {
	catalog *Catalog
}

func (s *Sink) Name() string {
	return "remote"
}

func (s *Sink) Exists(ctx context.Context, item models.Item) (bool, error) {
	rec, err := s.catalog.Exists(ctx, item)
	return rec != nil, err
}

func (s *Sink) Save(ctx context.Context, item models.Item) error {
	return s.catalog.Save(ctx, item, true)
}
