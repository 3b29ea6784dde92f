// Package ingest downloads recent abstracts from the arXiv API into the raw
// downloads folder.
package ingest

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/frontpage/pkg/utils"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const (
	retryTries = 5
	retryDelay = time.Second
)

// Article is one parsed arXiv feed entry.
type Article struct {
	ID              string
	Title           string
	Abstract        string
	Published       time.Time
	PrimaryCategory string
}

// Client fetches the newest submissions from the arXiv API.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an arXiv client.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, logger: logger}
}

// Latest fetches up to maxResults of the newest submissions across all of
// arXiv, newest first. The query term "and" appears in nearly every abstract,
// so combined with submittedDate sorting it acts as a match-all; results are
// filtered by category downstream. Transient failures are retried with
// exponential backoff.
func (c *Client) Latest(ctx context.Context, maxResults int) ([]Article, error) {
	if maxResults <= 0 {
		maxResults = 200
	}
	url := fmt.Sprintf("%s?search_query=all:and&start=0&max_results=%d&sortBy=submittedDate&sortOrder=descending",
		arxivAPIBase, maxResults)

	var lastErr error
	delay := retryDelay
	for attempt := 1; attempt <= retryTries; attempt++ {
		articles, err := c.fetch(ctx, url)
		if err == nil {
			return articles, nil
		}
		lastErr = err
		c.logger.Warn("arxiv fetch failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt == retryTries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, fmt.Errorf("arxiv fetch failed after %d attempts: %w", retryTries, lastErr)
}

func (c *Client) fetch(ctx context.Context, url string) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv API request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arxiv response: %w", err)
	}

	articles := make([]Article, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		a := Article{
			ID:              strings.TrimSpace(entry.ID),
			Title:           utils.CollapseWhitespace(entry.Title),
			Abstract:        utils.CollapseWhitespace(entry.Summary),
			PrimaryCategory: entry.PrimaryCategory.Term,
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			a.Published = t
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// AgeDays returns the article age relative to now, in days.
func (a Article) AgeDays(now time.Time) float64 {
	return now.Sub(a.Published).Hours() / 24
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID              string        `xml:"id"`
	Title           string        `xml:"title"`
	Summary         string        `xml:"summary"`
	Published       string        `xml:"published"`
	PrimaryCategory arxivCategory `xml:"primary_category"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}
