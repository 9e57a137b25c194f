// Package reddit researches themes from the top posts of a category's
// subreddits with the read-only Reddit API.
package reddit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"github.com/papercomputeco/scout/pkg/candidates"
)

const (
	// DefaultLimit is the number of posts fetched per category.
	DefaultLimit = 25

	// timeFilter restricts top posts to the last year.
	timeFilter = "year"
)

// Config holds configuration for the Reddit source.
type Config struct {
	UserAgent string

	// Limit is split evenly across the category's subreddits.
	Limit int

	// BaseURL overrides the Reddit endpoint, used in tests.
	BaseURL string
}

// Source fetches post titles to brainstorm from.
type Source struct {
	client *reddit.Client
	limit  int
	logger *slog.Logger
}

// NewSource creates a read-only Reddit client. No credentials are needed.
func NewSource(c Config, logger *slog.Logger) (*Source, error) {
	opts := []reddit.Opt{}
	if c.UserAgent != "" {
		opts = append(opts, reddit.WithUserAgent(c.UserAgent))
	}
	if c.BaseURL != "" {
		opts = append(opts, reddit.WithBaseURL(c.BaseURL))
	}

	client, err := reddit.NewReadonlyClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating reddit client: %w", err)
	}

	limit := c.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Source{
		client: client,
		limit:  limit,
		logger: logger,
	}, nil
}

// Themes returns the unique titles of the year's top posts across the
// category's subreddits. A failing subreddit is logged and skipped, so the
// result may be empty without an error.
func (s *Source) Themes(ctx context.Context, category candidates.Category) []string {
	if len(category.Subreddits) == 0 {
		return nil
	}

	perSub := max(s.limit/len(category.Subreddits), 1)

	s.logger.Info("researching category",
		"category", category.Name,
		"subreddits", strings.Join(category.Subreddits, ","),
		"per_subreddit", perSub,
	)

	seen := map[string]bool{}
	var themes []string
	for _, sub := range category.Subreddits {
		if ctx.Err() != nil {
			break
		}

		posts, _, err := s.client.Subreddit.TopPosts(ctx, sub, &reddit.ListPostOptions{
			ListOptions: reddit.ListOptions{Limit: perSub},
			Time:        timeFilter,
		})
		if err != nil {
			s.logger.Warn("could not fetch subreddit", "subreddit", sub, "error", err)
			continue
		}

		for _, p := range posts {
			title := strings.TrimSpace(p.Title)
			if title == "" || seen[title] {
				continue
			}
			seen[title] = true
			themes = append(themes, title)
		}
	}

	s.logger.Info("found themes", "category", category.Name, "count", len(themes))
	return themes
}
