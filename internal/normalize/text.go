package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

const DefaultChunkChars = 1200

var skipHTMLContent = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
}

// StripHTML drops script/style blocks and all tags, then collapses whitespace.
// Malformed markup never errors; the tokenizer consumes what it can.
func StripHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	var out strings.Builder
	skipDepth := 0
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return CollapseWhitespace(out.String())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skipHTMLContent[string(name)] {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skipHTMLContent[string(name)] && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				out.WriteString(string(tokenizer.Text()))
				out.WriteByte(' ')
			}
		}
	}
}

var incompleteEscape = regexp.MustCompile(`\\u[0-9a-fA-F]{0,3}($|[^0-9a-fA-F])`)

// SanitizeText strips incomplete \uXXXX escape fragments and non-printable
// control characters. Newlines and tabs survive; scraped text with broken
// escapes would otherwise poison JSON serialization downstream.
func SanitizeText(s string) string {
	if s == "" {
		return ""
	}
	s = incompleteEscape.ReplaceAllString(s, "$1")
	var out strings.Builder
	out.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			out.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			continue
		}
		out.WriteRune(r)
	}
	return strings.TrimSpace(out.String())
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SplitChunks normalizes whitespace then slices the text into contiguous
// non-overlapping windows of at most maxChars runes. Concatenating the chunks
// reproduces the normalized input exactly. Empty input yields no chunks.
func SplitChunks(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}
	normalized := CollapseWhitespace(text)
	if normalized == "" {
		return []string{}
	}
	runes := []rune(normalized)
	chunks := make([]string, 0, (len(runes)+maxChars-1)/maxChars)
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
