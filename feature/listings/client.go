package listings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"listing-sync/core/httpclient"
	"listing-sync/core/reconcile"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Client talks to the CREA identity provider and the DDF OData API.
type Client struct {
	cfg      Config
	api      *httpclient.Client
	identity *httpclient.Client
	logger   *zap.Logger
	now      func() time.Time
}

// NewClient creates a DDF client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = 8
	}

	return &Client{
		cfg: cfg,
		api: httpclient.New(httpclient.Config{
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			RateLimit:  cfg.RateLimit,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
		}),
		identity: httpclient.New(httpclient.Config{
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
		}),
		logger: logger,
		now:    time.Now,
	}
}

// FetchToken exchanges the feed's client credentials for an access token.
// Any failure, including an empty token, is reported as reconcile.ErrNoCredential.
func (c *Client) FetchToken(ctx context.Context, kind FeedKind) (Token, error) {
	id, secret := c.cfg.Credentials(kind)
	if id == "" || secret == "" {
		return Token{}, fmt.Errorf("%w: %s feed credentials are not configured", reconcile.ErrNoCredential, kind)
	}

	resp, err := c.identity.PostForm(ctx, c.cfg.TokenURL, url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {id},
		"client_secret": {secret},
		"scope":         {c.cfg.Scope},
	})
	if err != nil {
		return Token{}, fmt.Errorf("%w: %s token request: %v", reconcile.ErrNoCredential, kind, err)
	}

	var tok Token
	if err := resp.JSON(&tok); err != nil {
		return Token{}, fmt.Errorf("%w: %s token response: %v", reconcile.ErrNoCredential, kind, err)
	}
	if !tok.Valid() {
		return Token{}, fmt.Errorf("%w: %s token response has no access token", reconcile.ErrNoCredential, kind)
	}
	tok.IssuedAt = c.now()

	c.logger.Debug("Access token granted",
		zap.String("feed", string(kind)),
		zap.Int("expires_in", tok.ExpiresIn),
	)
	return tok, nil
}

// FetchAll pages through every Property record visible to token and resolves
// the listing and co-listing agents. A failed page fails the whole fetch with
// reconcile.ErrFetchListings; a failed agent lookup only leaves the agent nil.
func (c *Client) FetchAll(ctx context.Context, token Token) ([]Listing, error) {
	query := url.Values{"$count": {"true"}}
	if c.cfg.Filter != "" {
		query.Set("$filter", c.cfg.Filter)
	}

	var (
		all   []Listing
		total = -1
		next  = "Property"
		page  = 0
	)
	for next != "" {
		page++
		resp, err := c.api.Do(ctx, &httpclient.Request{
			Method: http.MethodGet,
			Path:   next,
			Query:  query,
			Auth:   token,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", reconcile.ErrFetchListings, page, err)
		}

		var body propertyPage
		if err := resp.JSON(&body); err != nil {
			return nil, fmt.Errorf("%w: page %d: decode: %v", reconcile.ErrFetchListings, page, err)
		}
		if body.Count != nil {
			total = *body.Count
		}
		all = append(all, body.Value...)

		c.logger.Debug("Fetched listing page",
			zap.Int("page", page),
			zap.Int("fetched", len(all)),
			zap.Int("total", total),
		)

		if total >= 0 && len(all) >= total {
			break
		}
		// nextLink already carries the query
		next = body.NextLink
		query = nil
	}

	if total >= 0 && len(all) < total {
		c.logger.Warn("Listing feed ended before the announced count",
			zap.Int("fetched", len(all)),
			zap.Int("total", total),
		)
	}

	if err := c.resolveAgents(ctx, token, all); err != nil {
		return nil, fmt.Errorf("%w: %v", reconcile.ErrFetchListings, err)
	}
	return all, nil
}

// resolveAgents attaches member and office records to every listing.
// Each distinct member is fetched once.
func (c *Client) resolveAgents(ctx context.Context, token Token, listings []Listing) error {
	var (
		group   singleflight.Group
		mu      sync.Mutex
		members = map[string]*Member{}
	)

	lookup := func(key string) *Member {
		if key == "" {
			return nil
		}
		mu.Lock()
		m, ok := members[key]
		mu.Unlock()
		if ok {
			return m
		}

		v, _, _ := group.Do(key, func() (any, error) {
			mu.Lock()
			cached, ok := members[key]
			mu.Unlock()
			if ok {
				return cached, nil
			}

			m, err := c.FetchMember(ctx, token, key)
			if err != nil {
				c.logger.Warn("Member lookup failed",
					zap.String("member_key", key),
					zap.Error(err),
				)
				m = nil
			}
			mu.Lock()
			members[key] = m
			mu.Unlock()
			return m, nil
		})
		return v.(*Member)
	}

	iter.Iterator[Listing]{MaxGoroutines: c.cfg.LookupConcurrency}.ForEach(listings, func(l *Listing) {
		l.Agent = lookup(l.ListAgentKey)
		l.CoAgent = lookup(l.CoListAgentKey)
	})
	return ctx.Err()
}

// FetchMember loads one member and its office. A failed office lookup is logged
// and leaves Office nil.
func (c *Client) FetchMember(ctx context.Context, token Token, key string) (*Member, error) {
	var m Member
	if err := c.getEntity(ctx, token, "Member", key, &m); err != nil {
		return nil, err
	}

	if m.OfficeKey != "" {
		office, err := c.FetchOffice(ctx, token, m.OfficeKey)
		if err != nil {
			c.logger.Warn("Office lookup failed",
				zap.String("office_key", m.OfficeKey),
				zap.Error(err),
			)
		}
		m.Office = office
	}
	return &m, nil
}

// FetchOffice loads one office.
func (c *Client) FetchOffice(ctx context.Context, token Token, key string) (*Office, error) {
	var o Office
	if err := c.getEntity(ctx, token, "Office", key, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

var errEmptyKey = errors.New("empty key")

func (c *Client) getEntity(ctx context.Context, token Token, entity, key string, target any) error {
	if key == "" {
		return errEmptyKey
	}
	resp, err := c.api.Do(ctx, &httpclient.Request{
		Method: http.MethodGet,
		Path:   entity + "/" + url.PathEscape(key),
		Auth:   token,
	})
	if err != nil {
		return err
	}
	if err := resp.JSON(target); err != nil {
		return fmt.Errorf("decode %s %s: %w", entity, key, err)
	}
	return nil
}
