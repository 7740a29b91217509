package feed

import (
	"testing"

	"cbcgrab/internal/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
<channel>
  <title>Ideas from CBC Radio</title>
  <image><url>https://www.cbc.ca/art/ideas.jpg</url><title>Ideas</title><link>https://www.cbc.ca</link></image>
  <item>
    <title>An injustice system, Pt 1</title>
    <description>First part.</description>
    <pubDate>Mon, 04 Mar 2024 22:00:00 -0500</pubDate>
    <enclosure url="https://cbc.mc.tritondigital.com/ideas_p1.mp3" length="1" type="audio/mpeg"/>
  </item>
  <item>
    <title>No audio here</title>
    <description>Promo text only.</description>
    <pubDate>Tue, 05 Mar 2024 22:00:00 -0500</pubDate>
  </item>
  <item>
    <title>An injustice system, Pt 2</title>
    <description>Second part.</description>
    <pubDate>Wed, 06 Mar 2024 22:00:00 -0500</pubDate>
    <enclosure url="https://cbc.mc.tritondigital.com/ideas_p2.mp3" length="1" type="audio/mpeg"/>
  </item>
</channel>
</rss>`

func TestParse_DropsEnclosurelessItems(t *testing.T) {
	entries, err := Parse(sampleFeed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].EnclosureURL != "https://cbc.mc.tritondigital.com/ideas_p1.mp3" {
		t.Fatalf("unexpected first enclosure: %s", entries[0].EnclosureURL)
	}
	if entries[1].Title != "An injustice system, Pt 2" {
		t.Fatalf("feed order must be preserved, got %q", entries[1].Title)
	}
	if entries[0].PubDate == "" {
		t.Fatalf("pubDate should be carried through")
	}
}

func TestParse_InvalidXML(t *testing.T) {
	_, err := Parse("this is not xml")
	if domain.KindOf(err) != domain.KindParse {
		t.Fatalf("expected parse_error, got %v", err)
	}
}

func TestParse_NoEnclosuresAtAll(t *testing.T) {
	xml := `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>
	<item><title>a</title></item></channel></rss>`
	_, err := Parse(xml)
	if domain.KindOf(err) != domain.KindNotFound {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestMetadata(t *testing.T) {
	meta, err := Metadata(sampleFeed)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.Title != "Ideas from CBC Radio" {
		t.Fatalf("unexpected title %q", meta.Title)
	}
	if meta.ImageURL != "https://www.cbc.ca/art/ideas.jpg" {
		t.Fatalf("unexpected image %q", meta.ImageURL)
	}
}

func TestMetadata_ITunesImageFallback(t *testing.T) {
	xml := `<?xml version="1.0"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
<channel>
  <title>Q with Tom Power</title>
  <itunes:image href="https://www.cbc.ca/art/q.jpg"/>
  <item><title>ep</title><enclosure url="https://example.org/e.mp3" length="1" type="audio/mpeg"/></item>
</channel></rss>`
	meta, err := Metadata(xml)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta.ImageURL != "https://www.cbc.ca/art/q.jpg" {
		t.Fatalf("expected itunes fallback, got %q", meta.ImageURL)
	}
}
