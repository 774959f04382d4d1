package listings

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Source fetches the complete listing set for a run across the configured feeds.
type Source struct {
	client *Client
	tokens *TokenCache
	feeds  []FeedKind
	logger *zap.Logger
}

// NewSource creates a source with its own token cache.
func NewSource(client *Client, cfg Config, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		client: client,
		tokens: NewTokenCache(client.FetchToken),
		feeds:  cfg.Feeds(),
		logger: logger,
	}
}

// Fetch returns every listing of every enabled feed. With more than one feed the
// national pool wins on duplicate keys and member listings fill the gaps.
func (s *Source) Fetch(ctx context.Context) ([]Listing, error) {
	byFeed := make(map[FeedKind][]Listing, len(s.feeds))

	for _, kind := range s.feeds {
		token, err := s.tokens.Get(ctx, kind)
		if err != nil {
			return nil, err
		}

		items, err := s.client.FetchAll(ctx, token)
		if err != nil {
			// A rejected token is not reused by the next run
			s.tokens.Invalidate(kind)
			return nil, fmt.Errorf("%s feed: %w", kind, err)
		}

		s.logger.Info("Fetched listing feed",
			zap.String("feed", string(kind)),
			zap.Int("listings", len(items)),
		)
		byFeed[kind] = items
	}

	if len(s.feeds) == 1 {
		return byFeed[s.feeds[0]], nil
	}
	return Merge(byFeed[FeedNational], byFeed[FeedMember]), nil
}

// Merge returns primary followed by every secondary listing whose key is not in primary.
func Merge(primary, secondary []Listing) []Listing {
	seen := make(map[string]struct{}, len(primary))
	out := make([]Listing, 0, len(primary)+len(secondary))
	for _, l := range primary {
		seen[l.ListingKey] = struct{}{}
		out = append(out, l)
	}
	for _, l := range secondary {
		if _, dup := seen[l.ListingKey]; dup {
			continue
		}
		out = append(out, l)
	}
	return out
}
