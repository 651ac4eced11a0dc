package steps

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/websearch"
)

// SourceCandidate is a discovered result before persistence and vetting.
type SourceCandidate struct {
	URL         string
	Title       string
	Snippet     string
	Type        string
	PublishedAt string
	Vetted      bool
	VetReason   string
}

type ExecuteSearchPlanDeps struct {
	Log    *logger.Logger
	Search websearch.Client
}

var videoHosts = []string{"youtube.com", "youtu.be", "vimeo.com", "dailymotion.com"}

var socialHosts = []string{
	"twitter.com", "x.com", "facebook.com", "instagram.com",
	"reddit.com", "linkedin.com", "tiktok.com", "threads.net",
}

// ClassifySourceType buckets a result by URL pattern. Video hosts win over
// everything; social hosts map to post; an "interview" substring in the URL
// or title marks an interview; everything else is an article.
func ClassifySourceType(rawURL, title string) string {
	host := hostOf(rawURL)
	for _, h := range videoHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return "video"
		}
	}
	for _, h := range socialHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return "post"
		}
	}
	if strings.Contains(strings.ToLower(rawURL), "interview") ||
		strings.Contains(strings.ToLower(title), "interview") {
		return "interview"
	}
	return "article"
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// ExecuteSearchPlan runs every planned query sequentially and deduplicates by
// URL across the whole plan; the first occurrence wins, including its type
// classification. Queries run one at a time to bound load on the rate-limited
// search provider.
func ExecuteSearchPlan(ctx context.Context, deps ExecuteSearchPlanDeps, plan []PlannedQuery) ([]SourceCandidate, error) {
	if deps.Log == nil || deps.Search == nil {
		return nil, fmt.Errorf("execute_search_plan: missing deps")
	}

	seen := map[string]bool{}
	var out []SourceCandidate
	for _, pq := range plan {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		q := websearch.Query{Query: pq.Query, Kind: pq.Kind}
		if pq.Kind == websearch.KindVideo {
			q.MaxResults = 5
			q.IncludeText = false
			q.SiteFilter = "youtube.com"
		} else {
			q.MaxResults = 8
			q.IncludeText = true
		}

		results, err := deps.Search.Search(ctx, q)
		if err != nil {
			deps.Log.Warn("Search query failed; continuing plan", "query", pq.Query, "error", err.Error())
			continue
		}
		for _, r := range results {
			u := strings.TrimSpace(r.URL)
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, SourceCandidate{
				URL:         u,
				Title:       firstNonEmpty(r.Title, u),
				Snippet:     r.Snippet,
				Type:        ClassifySourceType(u, r.Title),
				PublishedAt: r.PublishedAt,
			})
		}
	}
	return out, nil
}

// FallbackCandidates is the deterministic 6-item seed used when search yields
// nothing at all: a Wikipedia page guess, a YouTube search, three
// search-engine query URLs, and a news-archive search. Discovery always
// produces at least one usable placeholder source.
func FallbackCandidates(personName string) []SourceCandidate {
	name := strings.TrimSpace(personName)
	slug := strings.Join(strings.Fields(name), "-")
	escaped := url.QueryEscape(name)
	return []SourceCandidate{
		{
			URL:   "https://en.wikipedia.org/wiki/" + slug,
			Title: name + " - Wikipedia",
			Type:  "article",
		},
		{
			URL:   "https://www.youtube.com/results?search_query=" + url.QueryEscape(name+" interview"),
			Title: name + " - YouTube search",
			Type:  "video",
		},
		{
			URL:   "https://www.google.com/search?q=" + url.QueryEscape(name+" biography"),
			Title: name + " - Google search",
			Type:  "article",
		},
		{
			URL:   "https://www.bing.com/search?q=" + url.QueryEscape(name+" life story"),
			Title: name + " - Bing search",
			Type:  "article",
		},
		{
			URL:   "https://duckduckgo.com/?q=" + url.QueryEscape(name+" profile"),
			Title: name + " - DuckDuckGo search",
			Type:  "article",
		},
		{
			URL:   "https://news.google.com/search?q=" + escaped,
			Title: name + " - news archive search",
			Type:  "article",
		},
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
