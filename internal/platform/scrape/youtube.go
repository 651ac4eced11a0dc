package scrape

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

// TranscriptFetcher pulls caption text for video sources. Transcripts are best
// effort: a video with no captions yields an empty transcript, not an error.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoURL string) (string, error)
}

type transcriptFetcher struct {
	log        *logger.Logger
	httpClient *http.Client
	baseURL    string
}

type TranscriptConfig struct {
	Timeout time.Duration
	BaseURL string // default https://www.youtube.com
}

func NewTranscriptFetcher(log *logger.Logger, cfg TranscriptConfig) (TranscriptFetcher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://www.youtube.com"
	}
	return &transcriptFetcher{
		log:        log.With("service", "TranscriptFetcher"),
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}, nil
}

var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{6,})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{6,})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{6,})`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{6,})`),
}

// VideoID extracts the YouTube video id from the common URL shapes.
func VideoID(videoURL string) string {
	for _, re := range youtubeIDPatterns {
		if m := re.FindStringSubmatch(videoURL); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Body string `xml:",chardata"`
	} `xml:"text"`
}

func (t *transcriptFetcher) Fetch(ctx context.Context, videoURL string) (string, error) {
	videoID := VideoID(videoURL)
	if videoID == "" {
		return "", nil
	}

	params := url.Values{}
	params.Set("v", videoID)
	params.Set("lang", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/api/timedtext?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.log.Debug("Transcript fetch failed", "video_id", videoID, "error", err.Error())
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", nil
	}
	return ParseTimedText(raw), nil
}

// ParseTimedText flattens a YouTube timedtext XML document into plain text.
// Malformed or empty documents yield "".
func ParseTimedText(raw []byte) string {
	var doc timedText
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	var parts []string
	for _, seg := range doc.Texts {
		s := strings.TrimSpace(html.UnescapeString(seg.Body))
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
