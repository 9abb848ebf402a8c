package scrape

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"webtv-clipper/pkg/domain"
	"webtv-clipper/pkg/httpclient"
)

// Enricher visits a session's own page and extracts the downloadable media
// URL and the ordered speaker timeline. It is invoked once per genuinely new
// candidate, after the dedup check, so the extra round-trip stays bounded.
type Enricher struct {
	client  *httpclient.Client
	baseURL string
	log     *logrus.Logger
}

// NewEnricher creates an enricher. Relative media links are resolved
// against baseURL.
func NewEnricher(client *httpclient.Client, baseURL string, log *logrus.Logger) *Enricher {
	return &Enricher{
		client:  client,
		baseURL: baseURL,
		log:     log,
	}
}

// Enrich fetches the session page at link. A fetch failure returns a
// *FetchError and the caller must not create a record. A page missing the
// download link or the speaker list is partial data, not an error: the
// corresponding field comes back empty.
func (e *Enricher) Enrich(ctx context.Context, link string) (domain.EnrichedDetail, error) {
	html, err := fetchHTML(ctx, e.client, link)
	if err != nil {
		return domain.EnrichedDetail{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.EnrichedDetail{}, fmt.Errorf("parse session page: %w", err)
	}

	detail := domain.EnrichedDetail{
		MediaURL: e.extractMediaURL(doc, link),
		Timeline: e.extractTimeline(doc),
	}

	return detail, nil
}

// extractMediaURL pulls the download link from its fixed position below the
// player. Absence leaves MediaURL empty; download and segmentation will
// later no-op for that record.
func (e *Enricher) extractMediaURL(doc *goquery.Document, link string) string {
	el := doc.Find("#below-player > ul > li:nth-child(2) > a").First()
	if el.Length() == 0 {
		e.log.Warnf("Download link not found on %s", link)
		return ""
	}

	href, ok := el.Attr("href")
	if !ok || href == "" {
		e.log.Warnf("Download link on %s has no href", link)
		return ""
	}

	return resolveLink(e.baseURL, href)
}

// extractTimeline walks the speaker list in document order, which is the
// chronological order of appearance. An absent or empty list yields an
// empty timeline.
func (e *Enricher) extractTimeline(doc *goquery.Document) domain.SpeakerTimeline {
	var timeline domain.SpeakerTimeline

	doc.Find("#speakers-list > ol > li").Each(func(i int, item *goquery.Selection) {
		name := strings.TrimSpace(item.Find("a span").First().Text())
		offset := strings.TrimSpace(item.Find("a time").First().Text())
		if name == "" || offset == "" {
			return
		}

		timeline = append(timeline, domain.TimelineEntry{
			Offset:  offset,
			Speaker: name,
		})
	})

	return timeline
}
