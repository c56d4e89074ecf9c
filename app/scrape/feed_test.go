package scrape

import (
	"testing"
)

const rssSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>School Events</title>
    <link>https://school.example.com/events</link>
    <description>Upcoming events</description>
    <item>
      <title>Spring Concert</title>
      <link>https://school.example.com/events/concert</link>
      <description>The annual spring concert.</description>
      <pubDate>Sat, 15 Mar 2025 00:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Graduation</title>
      <link>https://school.example.com/events/graduation</link>
      <pubDate>Fri, 20 Jun 2025 00:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestFeedExtractor_RSSBody(t *testing.T) {
	e := NewFeedExtractor()
	drafts := e.Run([]byte(rssSample))

	if len(drafts) != 2 {
		t.Fatalf("Expected 2 drafts from RSS body, got %d", len(drafts))
	}

	if drafts[0].Title != "Spring Concert" {
		t.Errorf("Expected title 'Spring Concert', got %q", drafts[0].Title)
	}
	if drafts[0].DateText != "2025-03-15" {
		t.Errorf("Expected date text '2025-03-15', got %q", drafts[0].DateText)
	}
	if drafts[0].Description != "The annual spring concert." {
		t.Errorf("Expected item description to carry over, got %q", drafts[0].Description)
	}
	if drafts[0].Source != SourceFeed {
		t.Errorf("Expected source %q, got %q", SourceFeed, drafts[0].Source)
	}

	if drafts[1].Title != "Graduation" {
		t.Errorf("Expected title 'Graduation', got %q", drafts[1].Title)
	}
	if drafts[1].DateText != "2025-06-20" {
		t.Errorf("Expected date text '2025-06-20', got %q", drafts[1].DateText)
	}
}

func TestFeedExtractor_ItemsWithoutDateSkipped(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Events</title>
    <item><title>Undated Event</title></item>
  </channel>
</rss>`

	e := NewFeedExtractor()
	drafts := e.Run([]byte(body))

	if len(drafts) != 0 {
		t.Errorf("Expected items without a publish date to be skipped, got %d drafts", len(drafts))
	}
}

func TestFeedExtractor_HTMLBody(t *testing.T) {
	e := NewFeedExtractor()
	drafts := e.Run([]byte("<html><body><div class=\"event\">not a feed</div></body></html>"))

	if len(drafts) != 0 {
		t.Errorf("Expected zero drafts for an HTML body, got %d", len(drafts))
	}
}
