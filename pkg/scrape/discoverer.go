package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"webtv-clipper/pkg/domain"
	"webtv-clipper/pkg/duration"
	"webtv-clipper/pkg/httpclient"
	"webtv-clipper/pkg/svdate"
)

// Discoverer fetches the listing page and extracts candidate sessions.
// Each Discover call performs a fresh fetch; the result is finite and the
// call is restartable.
type Discoverer struct {
	client      *httpclient.Client
	listingURL  string
	baseURL     string
	minDuration int
	log         *logrus.Logger
}

// NewDiscoverer creates a discoverer for one listing URL. Relative links in
// the listing are resolved against baseURL. Candidates shorter than
// minDurationSeconds are dropped before being handed downstream.
func NewDiscoverer(client *httpclient.Client, listingURL, baseURL string, minDurationSeconds int, log *logrus.Logger) *Discoverer {
	return &Discoverer{
		client:      client,
		listingURL:  listingURL,
		baseURL:     baseURL,
		minDuration: minDurationSeconds,
		log:         log,
	}
}

// Discover fetches the listing page and returns the candidates above the
// minimum-duration threshold. A fetch failure returns a *FetchError and no
// candidates; items with missing or malformed metadata are skipped.
func (d *Discoverer) Discover(ctx context.Context) ([]domain.CandidateSession, error) {
	html, err := fetchHTML(ctx, d.client, d.listingURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	var candidates []domain.CandidateSession

	doc.Find("#content > ul > li").Each(func(i int, item *goquery.Selection) {
		link := item.Find("a").First()
		if link.Length() == 0 {
			return
		}

		label, hasLabel := link.Attr("aria-label")
		href, hasHref := link.Attr("href")
		if !hasLabel || !hasHref || label == "" || href == "" {
			// Items without the accessible label carry no metadata; skip.
			return
		}

		candidate, ok := d.parseListItem(label, href)
		if !ok {
			return
		}

		if candidate.DurationSeconds < d.minDuration {
			d.log.Debugf("Skipping %q: duration %ds below threshold %ds",
				candidate.Title, candidate.DurationSeconds, d.minDuration)
			return
		}

		candidates = append(candidates, candidate)
	})

	d.log.Infof("Listing page yielded %d candidates", len(candidates))
	return candidates, nil
}

// parseListItem splits the accessible label into its four comma-separated
// parts: event type, title, date, duration.
func (d *Discoverer) parseListItem(label, href string) (domain.CandidateSession, bool) {
	parts := strings.Split(label, ",")
	if len(parts) < 4 {
		d.log.Warnf("Skipping listing item with malformed label %q", label)
		return domain.CandidateSession{}, false
	}

	candidate := domain.CandidateSession{
		Type:            strings.TrimSpace(parts[0]),
		Title:           strings.TrimSpace(parts[1]),
		DurationSeconds: duration.ParseSeconds(parts[3]),
		SourceLink:      resolveLink(d.baseURL, href),
	}

	date, err := svdate.Parse(parts[2])
	if err != nil {
		// Partial data: the record is still usable without a date.
		d.log.Warnf("Could not parse date %q for %q: %v", parts[2], candidate.Title, err)
	} else {
		candidate.Date = date
	}

	return candidate, true
}

// resolveLink resolves a possibly relative href against the site's origin.
func resolveLink(baseURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
