package scrape

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"

	"webtv-clipper/pkg/domain"
	"webtv-clipper/pkg/duration"
)

// FeedDiscoverer extracts candidate sessions from the site's RSS feed
// instead of the HTML listing page. It is an alternative discovery source
// behind the same shape as Discoverer, used when a feed URL is configured.
type FeedDiscoverer struct {
	parser      *gofeed.Parser
	feedURL     string
	baseURL     string
	minDuration int
	log         *logrus.Logger
}

// NewFeedDiscoverer creates a feed-based discoverer.
func NewFeedDiscoverer(feedURL, baseURL string, minDurationSeconds int, log *logrus.Logger) *FeedDiscoverer {
	return &FeedDiscoverer{
		parser:      gofeed.NewParser(),
		feedURL:     feedURL,
		baseURL:     baseURL,
		minDuration: minDurationSeconds,
		log:         log,
	}
}

// Discover fetches and parses the feed. A fetch or parse failure returns a
// *FetchError; items without a link are skipped, and the minimum-duration
// filter applies just as on the listing page.
func (d *FeedDiscoverer) Discover(ctx context.Context) ([]domain.CandidateSession, error) {
	feed, err := d.parser.ParseURLWithContext(d.feedURL, ctx)
	if err != nil {
		return nil, &FetchError{URL: d.feedURL, Err: err}
	}

	var candidates []domain.CandidateSession
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}

		candidate := domain.CandidateSession{
			Title:           strings.TrimSpace(item.Title),
			SourceLink:      resolveLink(d.baseURL, item.Link),
			DurationSeconds: feedItemDuration(item),
		}
		if len(item.Categories) > 0 {
			candidate.Type = item.Categories[0]
		}
		if item.PublishedParsed != nil {
			p := item.PublishedParsed
			candidate.Date = time.Date(p.Year(), p.Month(), p.Day(), 0, 0, 0, 0, time.UTC)
		}

		if candidate.DurationSeconds < d.minDuration {
			d.log.Debugf("Skipping feed item %q: duration %ds below threshold %ds",
				candidate.Title, candidate.DurationSeconds, d.minDuration)
			continue
		}

		candidates = append(candidates, candidate)
	}

	d.log.Infof("Feed yielded %d candidates", len(candidates))
	return candidates, nil
}

// feedItemDuration reads the itunes duration extension, which the feed
// publishes either as plain seconds or as a clock string.
func feedItemDuration(item *gofeed.Item) int {
	if item.ITunesExt == nil || item.ITunesExt.Duration == "" {
		return 0
	}

	raw := strings.TrimSpace(item.ITunesExt.Duration)
	if !strings.Contains(raw, ":") {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			return 0
		}
		return secs
	}

	secs, err := duration.ParseOffset(raw)
	if err != nil {
		return 0
	}
	return secs
}
