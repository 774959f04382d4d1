package listings

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// expiryLeeway renews tokens slightly before the provider rejects them.
const expiryLeeway = 30 * time.Second

// Token is an OAuth2 client-credentials access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	Scope       string    `json:"scope"`
	IssuedAt    time.Time `json:"-"`
}

// Valid reports whether the token carries an access token.
func (t Token) Valid() bool {
	return t.AccessToken != ""
}

// Expired reports whether the token must be renewed at now.
// Tokens without a lifetime are always considered expired.
func (t Token) Expired(now time.Time) bool {
	if !t.Valid() || t.ExpiresIn <= 0 {
		return true
	}
	expiry := t.IssuedAt.Add(time.Duration(t.ExpiresIn)*time.Second - expiryLeeway)
	return !now.Before(expiry)
}

// Apply sets the Authorization header as "<token_type> <access_token>".
func (t Token) Apply(req *http.Request) {
	if !t.Valid() {
		return
	}
	kind := t.TokenType
	if kind == "" {
		kind = "Bearer"
	}
	req.Header.Set("Authorization", kind+" "+t.AccessToken)
}

// TokenFetcher obtains a fresh token for a feed.
type TokenFetcher func(ctx context.Context, kind FeedKind) (Token, error)

// TokenCache keeps one token per feed and renews it on expiry.
// Concurrent callers share a single in-flight renewal.
type TokenCache struct {
	mu     sync.RWMutex
	tokens map[FeedKind]Token
	sf     singleflight.Group
	fetch  TokenFetcher
	now    func() time.Time
}

// NewTokenCache creates a cache backed by fetch.
func NewTokenCache(fetch TokenFetcher) *TokenCache {
	return &TokenCache{
		tokens: make(map[FeedKind]Token),
		fetch:  fetch,
		now:    time.Now,
	}
}

// Get returns a valid token for kind, fetching one if needed.
func (c *TokenCache) Get(ctx context.Context, kind FeedKind) (Token, error) {
	c.mu.RLock()
	tok, ok := c.tokens[kind]
	c.mu.RUnlock()
	if ok && !tok.Expired(c.now()) {
		return tok, nil
	}

	v, err, _ := c.sf.Do(string(kind), func() (any, error) {
		// Another caller may have refreshed while we waited
		c.mu.RLock()
		tok, ok := c.tokens[kind]
		c.mu.RUnlock()
		if ok && !tok.Expired(c.now()) {
			return tok, nil
		}

		fresh, err := c.fetch(ctx, kind)
		if err != nil {
			return Token{}, err
		}

		c.mu.Lock()
		c.tokens[kind] = fresh
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

// Invalidate drops the cached token for kind.
func (c *TokenCache) Invalidate(kind FeedKind) {
	c.mu.Lock()
	delete(c.tokens, kind)
	c.mu.Unlock()
}
