package normalize

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const maxImageURLs = 4

const (
	minImageWidth  = 150
	minImageHeight = 100
)

var chromeSubstrings = []string{
	"logo", "favicon", "avatar", "banner", "sprite",
	"icon", "button", "arrow", "widget", "ad-", "/ads/",
	"tracking", "pixel", "spacer", "blank",
}

var portraitPatterns = []string{
	"portrait", "headshot", "profile", "photo", "mugshot",
}

// ExtractImageURLs parses raw HTML for <img> tags and returns up to 4
// deduplicated absolute URLs that plausibly depict the named person.
// An image qualifies when its alt text or src contains a token of the
// person's name, or matches a portrait-style pattern. Page chrome, data
// URIs, SVGs, and images declared smaller than 150x100 are rejected.
func ExtractImageURLs(rawHTML string, pageURL string, personName string) []string {
	if strings.TrimSpace(rawHTML) == "" {
		return []string{}
	}
	base, _ := url.Parse(strings.TrimSpace(pageURL))
	nameTokens := nameTokensOf(personName)

	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	seen := map[string]bool{}
	out := []string{}

	for len(out) < maxImageURLs {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := tokenizer.TagName()
		if string(name) != "img" || !hasAttr {
			continue
		}

		attrs := map[string]string{}
		for {
			key, val, more := tokenizer.TagAttr()
			attrs[string(key)] = string(val)
			if !more {
				break
			}
		}

		src := strings.TrimSpace(attrs["src"])
		if src == "" {
			src = strings.TrimSpace(attrs["data-src"])
		}
		if !acceptImage(src, attrs, nameTokens) {
			continue
		}

		resolved := resolveImageURL(src, base)
		if resolved == "" || seen[resolved] {
			continue
		}
		seen[resolved] = true
		out = append(out, resolved)
	}
	return out
}

func acceptImage(src string, attrs map[string]string, nameTokens []string) bool {
	if src == "" {
		return false
	}
	lowerSrc := strings.ToLower(src)
	if strings.HasPrefix(lowerSrc, "data:") {
		return false
	}
	if strings.HasSuffix(strings.SplitN(lowerSrc, "?", 2)[0], ".svg") {
		return false
	}
	for _, chrome := range chromeSubstrings {
		if strings.Contains(lowerSrc, chrome) {
			return false
		}
	}
	if tooSmall(attrs) {
		return false
	}

	lowerAlt := strings.ToLower(attrs["alt"])
	for _, tok := range nameTokens {
		if strings.Contains(lowerSrc, tok) || strings.Contains(lowerAlt, tok) {
			return true
		}
	}
	for _, p := range portraitPatterns {
		if strings.Contains(lowerSrc, p) || strings.Contains(lowerAlt, p) {
			return true
		}
	}
	return false
}

func tooSmall(attrs map[string]string) bool {
	w, wOK := parseDimension(attrs["width"])
	h, hOK := parseDimension(attrs["height"])
	if wOK && w < minImageWidth {
		return true
	}
	if hOK && h < minImageHeight {
		return true
	}
	// 1x1 tracking pixels often declare only one dimension
	if (wOK && w <= 2) || (hOK && h <= 2) {
		return true
	}
	return false
}

func parseDimension(s string) (int, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func resolveImageURL(src string, base *url.URL) string {
	if strings.HasPrefix(src, "//") {
		scheme := "https"
		if base != nil && base.Scheme != "" {
			scheme = base.Scheme
		}
		return scheme + ":" + src
	}
	parsed, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		return parsed.String()
	}
	if base == nil || base.Host == "" {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

func nameTokensOf(personName string) []string {
	fields := strings.Fields(strings.ToLower(personName))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,'\"")
		if len(f) >= 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
