package normalize

import (
	"strings"
	"testing"
)

func TestStripHTMLDropsScriptAndStyle(t *testing.T) {
	raw := `<html><head><style>body{color:red}</style></head>
<body><script>var x = 1;</script><p>Ada   Lovelace</p><div>wrote  notes</div></body></html>`
	got := StripHTML(raw)
	if strings.Contains(got, "var x") || strings.Contains(got, "color:red") {
		t.Fatalf("script/style content leaked into output: %q", got)
	}
	if got != "Ada Lovelace wrote notes" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestStripHTMLEmptyInput(t *testing.T) {
	if got := StripHTML("   "); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestSanitizeTextStripsControlChars(t *testing.T) {
	in := "hello\x00world\x07 keep\tthis\nline"
	got := SanitizeText(in)
	if strings.ContainsAny(got, "\x00\x07") {
		t.Fatalf("control characters survived: %q", got)
	}
	if !strings.Contains(got, "keep\tthis\nline") {
		t.Fatalf("newline/tab should be preserved: %q", got)
	}
}

func TestSanitizeTextStripsIncompleteEscapes(t *testing.T) {
	got := SanitizeText(`broken \u00 escape and complete é stays`)
	if strings.Contains(got, `\u00 `) {
		t.Fatalf("incomplete escape survived: %q", got)
	}
	if !strings.Contains(got, `é`) {
		t.Fatalf("complete escape should survive: %q", got)
	}
}

func TestSplitChunksConcatenationLossless(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 200)
	chunks := SplitChunks(text, DefaultChunkChars)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > DefaultChunkChars {
			t.Fatalf("chunk %d exceeds max chars: %d", i, len([]rune(c)))
		}
	}
	if strings.Join(chunks, "") != CollapseWhitespace(text) {
		t.Fatalf("concatenated chunks do not reproduce normalized input")
	}
}

func TestSplitChunksEmptyInput(t *testing.T) {
	if got := SplitChunks("", 1200); len(got) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(got))
	}
	if got := SplitChunks("   \n\t  ", 1200); len(got) != 0 {
		t.Fatalf("expected no chunks for whitespace input, got %d", len(got))
	}
}

func TestSplitChunksMultibyteBoundary(t *testing.T) {
	text := strings.Repeat("é", 25)
	chunks := SplitChunks(text, 10)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if strings.Join(chunks, "") != text {
		t.Fatalf("multibyte text corrupted by chunking")
	}
}
