package normalize

import "testing"

func TestExtractImageURLsFiltersChromeAndTinyImages(t *testing.T) {
	raw := `
<img src="https://cdn.example.com/site-logo.png" alt="Ada Lovelace">
<img src="https://cdn.example.com/ada-lovelace-portrait.jpg" width="600" height="800">
<img src="https://cdn.example.com/ada-thumb.jpg" width="80" height="60" alt="Ada Lovelace">
<img src="data:image/png;base64,AAAA" alt="Ada Lovelace portrait">
<img src="https://cdn.example.com/tracking-pixel.gif" width="1" height="1">
<img src="https://cdn.example.com/unrelated-landscape.jpg" width="900" height="600">`
	got := ExtractImageURLs(raw, "https://example.com/bio", "Ada Lovelace")
	if len(got) != 1 {
		t.Fatalf("expected exactly one accepted image, got %v", got)
	}
	if got[0] != "https://cdn.example.com/ada-lovelace-portrait.jpg" {
		t.Fatalf("unexpected accepted image: %s", got[0])
	}
}

func TestExtractImageURLsResolvesRelativeURLs(t *testing.T) {
	raw := `
<img src="//static.example.org/ada-headshot.jpg" width="400" height="400">
<img src="/images/lovelace-photo.png" width="300" height="300">`
	got := ExtractImageURLs(raw, "https://example.org/people/ada", "Ada Lovelace")
	if len(got) != 2 {
		t.Fatalf("expected 2 images, got %v", got)
	}
	if got[0] != "https://static.example.org/ada-headshot.jpg" {
		t.Fatalf("protocol-relative URL not resolved: %s", got[0])
	}
	if got[1] != "https://example.org/images/lovelace-photo.png" {
		t.Fatalf("root-relative URL not resolved: %s", got[1])
	}
}

func TestExtractImageURLsCapsAndDedupes(t *testing.T) {
	raw := ""
	for i := 0; i < 3; i++ {
		raw += `<img src="https://x.org/ada-lovelace-1.jpg" width="500" height="500">`
	}
	raw += `<img src="https://x.org/ada-lovelace-2.jpg" width="500" height="500">`
	raw += `<img src="https://x.org/ada-lovelace-3.jpg" width="500" height="500">`
	raw += `<img src="https://x.org/ada-lovelace-4.jpg" width="500" height="500">`
	raw += `<img src="https://x.org/ada-lovelace-5.jpg" width="500" height="500">`
	got := ExtractImageURLs(raw, "https://x.org", "Ada Lovelace")
	if len(got) != 4 {
		t.Fatalf("expected cap of 4 deduplicated images, got %d: %v", len(got), got)
	}
	seen := map[string]bool{}
	for _, u := range got {
		if seen[u] {
			t.Fatalf("duplicate URL returned: %s", u)
		}
		seen[u] = true
	}
}

func TestExtractImageURLsEmptyHTML(t *testing.T) {
	if got := ExtractImageURLs("", "https://x.org", "Ada Lovelace"); len(got) != 0 {
		t.Fatalf("expected no images, got %v", got)
	}
}
