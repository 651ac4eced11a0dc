package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/lifeline-backend/internal/platform/httpx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

// Page is the raw fetch result for one URL before any normalization.
type Page struct {
	URL         string
	ContentType string
	Body        string
	StatusCode  int
}

// Fetcher retrieves page bodies for the extraction phase.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

type Config struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

type fetcher struct {
	log          *logger.Logger
	httpClient   *http.Client
	userAgent    string
	maxBodyBytes int64
}

func NewFetcher(log *logger.Logger, cfg Config) (Fetcher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = "lifeline-backend/1.0"
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 4 << 20
	}
	return &fetcher{
		log:          log.With("service", "PageFetcher"),
		httpClient:   &http.Client{Timeout: timeout},
		userAgent:    ua,
		maxBodyBytes: maxBody,
	}, nil
}

type fetchHTTPError struct {
	StatusCode int
	URL        string
}

func (e *fetchHTTPError) Error() string {
	return fmt.Sprintf("fetch http %d: %s", e.StatusCode, e.URL)
}

func (e *fetchHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (f *fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, fmt.Errorf("empty url")
	}

	backoff := 1 * time.Second
	const backoffCap = 8 * time.Second
	const maxRetries = 3

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		page, resp, err := f.fetchOnce(ctx, pageURL)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !httpx.IsRetryableError(err) || attempt == maxRetries {
			return nil, err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, backoffCap))
		f.log.Debug("Page fetch retrying",
			"url", pageURL,
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
	return nil, lastErr
}

func (f *fetcher) fetchOnce(ctx context.Context, pageURL string) (*Page, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp, &fetchHTTPError{StatusCode: resp.StatusCode, URL: pageURL}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
	if err != nil {
		return nil, resp, err
	}

	return &Page{
		URL:         pageURL,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(raw),
		StatusCode:  resp.StatusCode,
	}, resp, nil
}
