package cms

import (
	"strings"
	"time"
)

// Config holds configuration for the Webflow collection store.
type Config struct {
	// BaseURL is the root of the Webflow Data API.
	BaseURL string `mapstructure:"base_url" default:"https://api.webflow.com/v2"`
	// Token is the site API token.
	Token string `mapstructure:"token" default:""`
	// SiteID identifies the site to publish.
	SiteID string `mapstructure:"site_id" default:""`
	// CollectionID identifies the listing collection.
	CollectionID string `mapstructure:"collection_id" default:""`
	// Domains is a comma separated list of custom domain ids to publish.
	Domains string `mapstructure:"domains" default:""`
	// PublishSubdomain also publishes the webflow.io subdomain.
	PublishSubdomain bool `mapstructure:"publish_subdomain" default:"false"`
	// PageSize is the item page size when listing the collection.
	PageSize int `mapstructure:"page_size" default:"100"`
	// PublishChunk is the maximum number of item ids per publish call.
	PublishChunk int `mapstructure:"publish_chunk" default:"100"`
	// Timeout bounds a single HTTP request.
	Timeout time.Duration `mapstructure:"timeout" default:"30s"`
	// RateLimit in requests per second.
	RateLimit float64 `mapstructure:"rate_limit" default:"2"`
	// RateBurst is the maximum burst size.
	RateBurst int `mapstructure:"rate_burst" default:"10"`
	// MaxRetries for 429 and 5xx responses. Item writes retry 429 only.
	// Zero disables retries.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
}

// DomainList returns the configured domains without blanks.
func (c Config) DomainList() []string {
	var out []string
	for _, d := range strings.Split(c.Domains, ",") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}
