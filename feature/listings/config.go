package listings

import "time"

// Config holds configuration for the CREA DDF listing source.
type Config struct {
	// TokenURL is the OAuth2 token endpoint of the identity provider.
	TokenURL string `mapstructure:"token_url" default:"https://identity.crea.ca/connect/token"`
	// BaseURL is the OData root of the DDF API.
	BaseURL string `mapstructure:"base_url" default:"https://ddfapi.realtor.ca/odata/v1"`
	// Scope is requested with every token.
	Scope string `mapstructure:"scope" default:"DDFApi_Read"`
	// MemberClientID authenticates the member feed.
	MemberClientID string `mapstructure:"member_client_id" default:""`
	// MemberClientSecret authenticates the member feed.
	MemberClientSecret string `mapstructure:"member_client_secret" default:""`
	// NationalEnabled adds the national pool feed to every run.
	NationalEnabled bool `mapstructure:"national_enabled" default:"false"`
	// NationalClientID authenticates the national pool feed.
	NationalClientID string `mapstructure:"national_client_id" default:""`
	// NationalClientSecret authenticates the national pool feed.
	NationalClientSecret string `mapstructure:"national_client_secret" default:""`
	// Filter is an optional OData $filter expression applied to Property queries.
	Filter string `mapstructure:"filter" default:""`
	// LookupConcurrency bounds parallel member and office lookups.
	LookupConcurrency int `mapstructure:"lookup_concurrency" default:"8"`
	// Timeout bounds a single HTTP request.
	Timeout time.Duration `mapstructure:"timeout" default:"30s"`
	// RateLimit in requests per second against the DDF API.
	RateLimit float64 `mapstructure:"rate_limit" default:"5"`
	// MaxRetries for 429 and 5xx responses. Zero disables retries.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
}

// Credentials returns the client id and secret for a feed.
func (c Config) Credentials(kind FeedKind) (id, secret string) {
	if kind == FeedNational {
		return c.NationalClientID, c.NationalClientSecret
	}
	return c.MemberClientID, c.MemberClientSecret
}

// Feeds returns the feeds fetched by a run, member first.
func (c Config) Feeds() []FeedKind {
	if c.NationalEnabled {
		return []FeedKind{FeedMember, FeedNational}
	}
	return []FeedKind{FeedMember}
}
