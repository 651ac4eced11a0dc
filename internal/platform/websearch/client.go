package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/lifeline-backend/internal/observability"
	"github.com/yungbote/lifeline-backend/internal/platform/httpx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

// Kind selects which search vertical a query runs against.
type Kind string

const (
	KindWeb   Kind = "web"
	KindVideo Kind = "video"
)

// Query is a single search request against the provider.
type Query struct {
	Query       string
	Kind        Kind
	MaxResults  int
	IncludeText bool   // ask the provider for extra snippet text when supported
	SiteFilter  string // restrict to a domain, e.g. "wikipedia.org"
}

// Result is one normalized hit from either vertical.
type Result struct {
	Title       string
	URL         string
	Snippet     string
	SiteName    string
	PublishedAt string
	Kind        Kind
}

// Client runs web and video searches. A client without credentials is still
// valid: it returns empty result sets so discovery can fall back to seeds.
type Client interface {
	Search(ctx context.Context, q Query) ([]Result, error)
	Enabled() bool
}

// Config is supplied by the caller; the client never reads the environment.
type Config struct {
	APIKey  string
	BaseURL string // default https://api.search.brave.com
	Timeout time.Duration
}

type client struct {
	log        *logger.Logger
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.search.brave.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		log.Warn("Web search API key not configured; searches will return empty results")
	}
	return &client{
		log:        log.With("service", "WebSearchClient"),
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *client) Enabled() bool {
	return c.apiKey != ""
}

type webSearchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			PageAge     string `json:"page_age"`
			Profile     struct {
				Name string `json:"name"`
			} `json:"profile"`
			ExtraSnippets []string `json:"extra_snippets"`
		} `json:"results"`
	} `json:"web"`
}

type videoSearchResponse struct {
	Results []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Age         string `json:"age"`
		Video       struct {
			Creator string `json:"creator"`
		} `json:"video"`
	} `json:"results"`
}

func (c *client) Search(ctx context.Context, q Query) ([]Result, error) {
	if !c.Enabled() {
		return []Result{}, nil
	}
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return []Result{}, nil
	}
	if q.SiteFilter != "" {
		query = query + " site:" + q.SiteFilter
	}
	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 20 {
		maxResults = 20
	}

	path := "/res/v1/web/search"
	if q.Kind == KindVideo {
		path = "/res/v1/videos/search"
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(maxResults))
	if q.IncludeText && q.Kind != KindVideo {
		params.Set("extra_snippets", "true")
	}

	raw, err := c.doWithRetry(ctx, path, params)
	if err != nil {
		if metrics := observability.Current(); metrics != nil {
			metrics.ObserveSearchRequest(string(kindOrWeb(q.Kind)), "error")
		}
		return nil, err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.ObserveSearchRequest(string(kindOrWeb(q.Kind)), "ok")
	}

	if q.Kind == KindVideo {
		return parseVideoResults(raw, maxResults)
	}
	return parseWebResults(raw, maxResults)
}

func kindOrWeb(k Kind) Kind {
	if k == KindVideo {
		return KindVideo
	}
	return KindWeb
}

func (c *client) doWithRetry(ctx context.Context, path string, params url.Values) ([]byte, error) {
	backoff := 1 * time.Second
	const backoffCap = 8 * time.Second
	const maxRetries = 3

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, raw, err := c.doOnce(ctx, path, params)
		if err == nil {
			return raw, nil
		}
		if !httpx.IsRetryableError(err) || attempt == maxRetries {
			return nil, err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, backoffCap))
		c.log.Warn("Search request retrying",
			"path", path,
			"attempt", attempt+1,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
		if backoff > backoffCap {
			backoff = backoffCap
		}
	}
	return nil, fmt.Errorf("unreachable retry loop")
}

type searchHTTPError struct {
	StatusCode int
	Body       string
}

func (e *searchHTTPError) Error() string {
	return fmt.Sprintf("websearch http %d: %s", e.StatusCode, e.Body)
}

func (e *searchHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, path string, params url.Values) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &searchHTTPError{StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}
	return resp, raw, nil
}

func truncateBody(raw []byte) string {
	const limit = 512
	if len(raw) > limit {
		return string(raw[:limit])
	}
	return string(raw)
}

func parseWebResults(raw []byte, maxResults int) ([]Result, error) {
	var payload webSearchResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("websearch decode error: %w", err)
	}
	out := make([]Result, 0, len(payload.Web.Results))
	for _, r := range payload.Web.Results {
		if len(out) >= maxResults {
			break
		}
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		snippet := r.Description
		if len(r.ExtraSnippets) > 0 {
			snippet = snippet + " " + strings.Join(r.ExtraSnippets, " ")
		}
		out = append(out, Result{
			Title:       strings.TrimSpace(r.Title),
			URL:         strings.TrimSpace(r.URL),
			Snippet:     strings.TrimSpace(snippet),
			SiteName:    strings.TrimSpace(r.Profile.Name),
			PublishedAt: strings.TrimSpace(r.PageAge),
			Kind:        KindWeb,
		})
	}
	return out, nil
}

func parseVideoResults(raw []byte, maxResults int) ([]Result, error) {
	var payload videoSearchResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("websearch decode error: %w", err)
	}
	out := make([]Result, 0, len(payload.Results))
	for _, r := range payload.Results {
		if len(out) >= maxResults {
			break
		}
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		out = append(out, Result{
			Title:       strings.TrimSpace(r.Title),
			URL:         strings.TrimSpace(r.URL),
			Snippet:     strings.TrimSpace(r.Description),
			SiteName:    strings.TrimSpace(r.Video.Creator),
			PublishedAt: strings.TrimSpace(r.Age),
			Kind:        KindVideo,
		})
	}
	return out, nil
}
