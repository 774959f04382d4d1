package cms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"listing-sync/core/batch"
	"listing-sync/core/httpclient"
	"listing-sync/core/reconcile"

	"go.uber.org/zap"
)

const (
	fieldArchived = "_archived"
	fieldDraft    = "_draft"
)

// item is the wire representation of a collection item.
type item struct {
	ID         string         `json:"id,omitempty"`
	IsArchived bool           `json:"isArchived"`
	IsDraft    bool           `json:"isDraft"`
	FieldData  map[string]any `json:"fieldData"`
}

type itemPage struct {
	Items      []item `json:"items"`
	Pagination struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Total  int `json:"total"`
	} `json:"pagination"`
}

// Client is the Webflow collection store.
type Client struct {
	cfg    Config
	http   *httpclient.Client
	logger *zap.Logger
}

// NewClient creates a collection store client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.PublishChunk <= 0 {
		cfg.PublishChunk = 100
	}

	return &Client{
		cfg: cfg,
		http: httpclient.New(httpclient.Config{
			BaseURL:    cfg.BaseURL,
			Auth:       httpclient.BearerToken{Token: cfg.Token},
			Timeout:    cfg.Timeout,
			RateLimit:  cfg.RateLimit,
			RateBurst:  cfg.RateBurst,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
		}),
		logger: logger,
	}
}

func (c *Client) itemsPath() string {
	return "collections/" + url.PathEscape(c.cfg.CollectionID) + "/items"
}

// ListItems returns every item of the collection. A failed page fails the
// whole listing with reconcile.ErrFetchCollection.
func (c *Client) ListItems(ctx context.Context) ([]reconcile.Item, error) {
	var all []reconcile.Item
	offset := 0

	for {
		resp, err := c.http.Get(ctx, c.itemsPath(), url.Values{
			"offset": {strconv.Itoa(offset)},
			"limit":  {strconv.Itoa(c.cfg.PageSize)},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: offset %d: %v", reconcile.ErrFetchCollection, offset, err)
		}

		var page itemPage
		if err := resp.JSON(&page); err != nil {
			return nil, fmt.Errorf("%w: offset %d: decode: %v", reconcile.ErrFetchCollection, offset, err)
		}
		for _, it := range page.Items {
			all = append(all, toItem(it))
		}

		offset += len(page.Items)
		if len(page.Items) == 0 || (page.Pagination.Total > 0 && offset >= page.Pagination.Total) {
			break
		}
	}

	c.logger.Debug("Fetched collection items", zap.Int("items", len(all)))
	return all, nil
}

// CreateItem creates a live item with the caller-assigned id.
func (c *Client) CreateItem(ctx context.Context, fields reconcile.FieldSet, id string) (reconcile.Item, error) {
	body := toWire(fields)
	body.ID = id

	resp, err := c.write(ctx, http.MethodPost, c.itemsPath(), body)
	if err != nil {
		return reconcile.Item{}, err
	}

	var created item
	if err := resp.JSON(&created); err != nil {
		return reconcile.Item{}, fmt.Errorf("decode created item: %w", err)
	}
	if created.ID == "" {
		created.ID = id
	}
	return toItem(created), nil
}

// UpdateItem patches the fields of an existing item.
func (c *Client) UpdateItem(ctx context.Context, id string, fields reconcile.FieldSet) (reconcile.Item, error) {
	resp, err := c.write(ctx, http.MethodPatch, c.itemsPath()+"/"+url.PathEscape(id), toWire(fields))
	if err != nil {
		return reconcile.Item{}, err
	}

	var updated item
	if err := resp.JSON(&updated); err != nil {
		return reconcile.Item{}, fmt.Errorf("decode updated item: %w", err)
	}
	if updated.ID == "" {
		updated.ID = id
	}
	return toItem(updated), nil
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	_, err := c.write(ctx, http.MethodDelete, c.itemsPath()+"/"+url.PathEscape(id), nil)
	return err
}

// write sends an item mutation. Only rate-limited responses are retried.
func (c *Client) write(ctx context.Context, method, path string, body any) (*httpclient.Response, error) {
	req, err := httpclient.NewJSONRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	req.Retry = httpclient.RetryRateLimited
	return c.http.Do(ctx, req)
}

// PublishItems publishes the given items in chunks. It returns the first error
// after attempting every chunk.
func (c *Client) PublishItems(ctx context.Context, ids []string) error {
	var firstErr error
	for _, chunk := range batch.Partition(ids, c.cfg.PublishChunk) {
		_, err := c.http.Post(ctx, c.itemsPath()+"/publish", map[string]any{"itemIds": chunk})
		if err != nil {
			c.logger.Warn("Item publish failed", zap.Int("items", len(chunk)), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// PublishSite publishes the site to domains.
func (c *Client) PublishSite(ctx context.Context, domains []string) error {
	if domains == nil {
		domains = []string{}
	}
	_, err := c.http.Post(ctx, "sites/"+url.PathEscape(c.cfg.SiteID)+"/publish", map[string]any{
		"customDomains":             domains,
		"publishToWebflowSubdomain": c.cfg.PublishSubdomain,
	})
	return err
}

func toWire(fields reconcile.FieldSet) item {
	data := make(map[string]any, len(fields))
	out := item{}
	for k, v := range fields {
		switch k {
		case fieldArchived:
			out.IsArchived, _ = v.(bool)
		case fieldDraft:
			out.IsDraft, _ = v.(bool)
		default:
			data[k] = v
		}
	}
	out.FieldData = data
	return out
}

func toItem(it item) reconcile.Item {
	fields := reconcile.FieldSet(it.FieldData)
	if fields == nil {
		fields = reconcile.FieldSet{}
	}
	slug, _ := fields[reconcile.FieldSlug].(string)
	name, _ := fields[reconcile.FieldName].(string)
	return reconcile.Item{ID: it.ID, Slug: slug, Name: name, FieldData: fields}
}
