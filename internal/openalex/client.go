// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex implements the bibliographic work source against the
// OpenAlex API. The client rate-limits requests, retries throttled
// responses with exponential backoff, and optionally caches GET responses
// with a TTL. All payloads are normalized into types.Work at this
// boundary; callers never see raw API shapes.
package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/citation-snowball/internal/httputil"
	"github.com/pdiddy/citation-snowball/pkg/types"
)

// apiBase is the OpenAlex API root. Declared as a var so tests can
// substitute an httptest server.
var apiBase = "https://api.openalex.org"

const (
	defaultPerPage = 50
	maxBatchSize   = 50
)

// ErrNotFound is returned when OpenAlex has no record for the requested id.
var ErrNotFound = errors.New("work not found")

// Cache stores raw API responses with an expiry. The store's api_cache
// table satisfies this; a nil cache disables caching.
type Cache interface {
	CacheGet(ctx context.Context, key string) ([]byte, bool, error)
	CacheSet(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// Client queries the OpenAlex API.
type Client struct {
	client  *http.Client
	cfg     types.OpenAlexConfig
	limiter *rate.Limiter
	cache   Cache
	ttl     time.Duration
}

// NewClient builds a client from explicit configuration. Credentials and
// rate limits are injected here, never read from process-wide state.
func NewClient(cfg types.OpenAlexConfig, cache Cache) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &Client{
		client:  &http.Client{Timeout: timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
	if cache != nil && cfg.CacheTTLDays > 0 {
		c.cache = cache
		c.ttl = time.Duration(cfg.CacheTTLDays) * 24 * time.Hour
	}
	return c
}

// GetWork fetches a single work by OpenAlex ID.
func (c *Client) GetWork(ctx context.Context, workID string) (types.Work, error) {
	payload, err := c.fetch(ctx, "/works/"+CleanWorkID(workID), nil)
	if err != nil {
		return types.Work{}, err
	}

	var raw workJSON
	if err := json.Unmarshal(payload, &raw); err != nil {
		return types.Work{}, fmt.Errorf("parsing work %s: %w", workID, err)
	}
	return normalizeWork(raw), nil
}

// GetCitingWorks returns up to limit works that cite workID.
func (c *Client) GetCitingWorks(ctx context.Context, workID string, limit int) ([]types.Work, error) {
	params := url.Values{
		"filter":   {"cites:" + CleanWorkID(workID)},
		"per_page": {fmt.Sprintf("%d", clampPerPage(limit))},
	}
	return c.fetchWorksList(ctx, params)
}

// GetReferences resolves up to limit of workID's referenced works to full
// records via batch fetch.
func (c *Client) GetReferences(ctx context.Context, workID string, limit int) ([]types.Work, error) {
	work, err := c.GetWork(ctx, workID)
	if err != nil {
		return nil, err
	}
	refs := work.ReferencedWorks
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return c.GetWorksBatch(ctx, refs)
}

// GetAuthorWorks returns recent works by the given author, optionally
// bounded to publications from fromYear onward, newest first.
func (c *Client) GetAuthorWorks(ctx context.Context, authorID string, fromYear, limit int) ([]types.Work, error) {
	filter := "author.id:" + CleanWorkID(authorID)
	if fromYear > 0 {
		filter += fmt.Sprintf(",from_publication_date:%d-01-01", fromYear)
	}
	params := url.Values{
		"filter":   {filter},
		"per_page": {fmt.Sprintf("%d", clampPerPage(limit))},
		"sort":     {"publication_date:desc"},
	}
	return c.fetchWorksList(ctx, params)
}

// SearchByTitle runs a full-text search and returns candidate works.
func (c *Client) SearchByTitle(ctx context.Context, title string) ([]types.Work, error) {
	params := url.Values{
		"search":   {title},
		"per_page": {"5"},
	}
	return c.fetchWorksList(ctx, params)
}

// SearchByDOI resolves a DOI to a work, or ErrNotFound.
func (c *Client) SearchByDOI(ctx context.Context, doi string) (types.Work, error) {
	doiURL := doi
	if !strings.HasPrefix(doiURL, "http") {
		doiURL = "https://doi.org/" + doi
	}
	payload, err := c.fetch(ctx, "/works/"+url.PathEscape(doiURL), nil)
	if err != nil {
		return types.Work{}, err
	}

	var raw workJSON
	if err := json.Unmarshal(payload, &raw); err != nil {
		return types.Work{}, fmt.Errorf("parsing work for DOI %s: %w", doi, err)
	}
	return normalizeWork(raw), nil
}

// GetWorksBatch fetches many works by id using the ids.openalex filter,
// chunked to the API's batch limit. A failing chunk falls back to per-id
// fetches so one bad id does not lose the rest.
func (c *Client) GetWorksBatch(ctx context.Context, workIDs []string) ([]types.Work, error) {
	if len(workIDs) == 0 {
		return nil, nil
	}

	clean := make([]string, len(workIDs))
	for i, id := range workIDs {
		clean[i] = CleanWorkID(id)
	}

	var works []types.Work
	for start := 0; start < len(clean); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(clean) {
			end = len(clean)
		}
		batch := clean[start:end]

		urls := make([]string, len(batch))
		for i, id := range batch {
			urls[i] = "https://openalex.org/" + id
		}
		params := url.Values{
			"filter":   {"ids.openalex:" + strings.Join(urls, "|")},
			"per_page": {fmt.Sprintf("%d", len(batch))},
		}

		results, err := c.fetchWorksList(ctx, params)
		if err != nil {
			// Fall back to individual fetches for this chunk.
			for _, id := range batch {
				w, fetchErr := c.GetWork(ctx, id)
				if fetchErr != nil {
					continue
				}
				works = append(works, w)
			}
			continue
		}
		works = append(works, results...)
	}
	return works, nil
}

func (c *Client) fetchWorksList(ctx context.Context, params url.Values) ([]types.Work, error) {
	payload, err := c.fetch(ctx, "/works", params)
	if err != nil {
		return nil, err
	}

	var resp worksResponseJSON
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("parsing works response: %w", err)
	}

	works := make([]types.Work, 0, len(resp.Results))
	for _, raw := range resp.Results {
		works = append(works, normalizeWork(raw))
	}
	return works, nil
}

// fetch performs a GET against the API with rate limiting, retry, and
// caching. The request identity (mailto or api_key) is appended here.
func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	cacheKey := path + "?" + params.Encode()

	if c.cache != nil {
		if payload, ok, err := c.cache.CacheGet(ctx, cacheKey); err == nil && ok {
			return payload, nil
		}
	}

	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	} else if c.cfg.Email != "" {
		params.Set("mailto", c.cfg.Email)
	}

	reqURL := apiBase + path
	if encoded := params.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading OpenAlex response: %w", err)
	}

	if c.cache != nil {
		c.cache.CacheSet(ctx, cacheKey, payload, c.ttl)
	}
	return payload, nil
}

func clampPerPage(limit int) int {
	if limit <= 0 {
		return defaultPerPage
	}
	if limit > 200 {
		return 200
	}
	return limit
}
