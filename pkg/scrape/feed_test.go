package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
<channel>
	<title>Webb-tv</title>
	<item>
		<title>Budgetdebatt</title>
		<link>/sv/webb-tv/video/budget</link>
		<category>Debatt</category>
		<pubDate>Fri, 12 Apr 2024 09:00:00 +0200</pubDate>
		<itunes:duration>15:00</itunes:duration>
	</item>
	<item>
		<title>Kort anförande</title>
		<link>/sv/webb-tv/video/kort</link>
		<itunes:duration>300</itunes:duration>
	</item>
	<item>
		<title>Utan länk</title>
		<itunes:duration>3600</itunes:duration>
	</item>
</channel>
</rss>`

func TestFeedDiscover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedXML))
	}))
	defer server.Close()

	d := NewFeedDiscoverer(server.URL, "https://www.riksdagen.se", 600, testLogger())

	candidates, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}

	// The 300s item is under the threshold and the linkless item is
	// skipped, so one candidate remains.
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Title != "Budgetdebatt" {
		t.Errorf("Expected title 'Budgetdebatt', got %q", c.Title)
	}
	if c.Type != "Debatt" {
		t.Errorf("Expected type 'Debatt', got %q", c.Type)
	}
	if c.DurationSeconds != 900 {
		t.Errorf("Expected duration 900, got %d", c.DurationSeconds)
	}
	if c.SourceLink != "https://www.riksdagen.se/sv/webb-tv/video/budget" {
		t.Errorf("Relative feed link not resolved, got %q", c.SourceLink)
	}
	if c.Date.IsZero() || c.Date.Month() != time.April {
		t.Errorf("Expected April publish date, got %v", c.Date)
	}
}

func TestFeedDiscoverFetchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := NewFeedDiscoverer(server.URL, server.URL, 600, testLogger())

	if _, err := d.Discover(context.Background()); err == nil {
		t.Fatal("Expected error for 502 status, got nil")
	}
}
