// Package processor runs the processing side of the pipeline: for each
// pending record it downloads the media file, cuts one clip per speaker
// cue, uploads the clips, and marks the record processed.
package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"webtv-clipper/pkg/domain"
	"webtv-clipper/pkg/duration"
)

// SessionStore is the slice of the repository the processing side needs.
type SessionStore interface {
	FindUnprocessed(ctx context.Context) ([]domain.SessionRecord, error)
	MarkProcessed(ctx context.Context, link string) error
}

// BlobStore uploads finished clips under the record's storage namespace.
type BlobStore interface {
	Upload(localPath, objectKey string) error
}

// ClipExtractor cuts a fixed window out of a local media file.
type ClipExtractor interface {
	ExtractClip(ctx context.Context, src, dst string, startSeconds, durationSeconds int) error
}

// MediaDownloader streams a media URL to a local path.
type MediaDownloader interface {
	Fetch(ctx context.Context, url, destPath string) error
}

// Processor drives pending records through download, segmentation and
// upload. Fields follow the fixed-window policy: the real speaking-turn
// length is not derivable from the available metadata, so every clip is a
// ClipLengthSeconds window starting at the speaker's cue.
type Processor struct {
	store      SessionStore
	blobs      BlobStore
	extractor  ClipExtractor
	downloader MediaDownloader
	clipLength int
	workers    int
	log        *logrus.Logger
}

// NewProcessor wires the processing dependencies. workers bounds how many
// records one cycle handles in parallel; values below 1 mean serial.
func NewProcessor(store SessionStore, blobs BlobStore, extractor ClipExtractor, downloader MediaDownloader, clipLengthSeconds, workers int, log *logrus.Logger) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		store:      store,
		blobs:      blobs,
		extractor:  extractor,
		downloader: downloader,
		clipLength: clipLengthSeconds,
		workers:    workers,
		log:        log,
	}
}

// RunCycle lists the pending records and processes each to completion.
// Per-record failures are logged and leave the record pending for the next
// cycle; only a repository failure that survives its retries is returned.
func (p *Processor) RunCycle(ctx context.Context) error {
	var records []domain.SessionRecord
	err := retry(ctx, func() error {
		var listErr error
		records, listErr = p.store.FindUnprocessed(ctx)
		return listErr
	})
	if err != nil {
		return fmt.Errorf("list unprocessed sessions: %w", err)
	}

	if len(records) == 0 {
		p.log.Debug("No unprocessed records")
		return nil
	}
	p.log.Infof("Processing %d unprocessed records", len(records))

	jobs := make(chan domain.SessionRecord, len(records))
	for _, record := range records {
		jobs <- record
	}
	close(jobs)

	done := make(chan struct{})
	for i := 0; i < p.workers; i++ {
		go func() {
			for record := range jobs {
				if err := p.ProcessRecord(ctx, record); err != nil {
					p.log.Errorf("Processing %s failed, record stays pending: %v", record.SourceLink, err)
				}
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < p.workers; i++ {
		<-done
	}

	return nil
}

// ProcessRecord runs one record through the state machine. The record is
// marked processed once every timeline entry has been attempted, even if
// individual clips failed: per-clip retry is deliberately unsupported, so
// a partially failed record must not be re-fed to the pipeline forever.
// All temporary resources are released on every exit path.
func (p *Processor) ProcessRecord(ctx context.Context, record domain.SessionRecord) error {
	// Nothing to download or cut: the record completes immediately.
	if record.MediaURL == "" || len(record.Timeline) == 0 {
		p.log.Infof("Record %s has no media or no timeline, marking processed", record.SourceLink)
		return p.markProcessed(ctx, record.SourceLink)
	}

	workDir, err := os.MkdirTemp("", "webtv-clip-")
	if err != nil {
		return fmt.Errorf("create working directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	mediaPath := filepath.Join(workDir, "source.mp4")
	if err := p.downloader.Fetch(ctx, record.MediaURL, mediaPath); err != nil {
		return fmt.Errorf("download media: %w", err)
	}

	uploaded := 0
	for i, entry := range record.Timeline {
		if p.processClip(ctx, record, workDir, mediaPath, i, entry) {
			uploaded++
		}
	}

	p.log.Infof("Record %s: uploaded %d/%d clips", record.SourceLink, uploaded, len(record.Timeline))
	return p.markProcessed(ctx, record.SourceLink)
}

// processClip cuts and uploads one clip. Failures are logged and reported
// as false; they never abort the remaining clips in the timeline.
func (p *Processor) processClip(ctx context.Context, record domain.SessionRecord, workDir, mediaPath string, index int, entry domain.TimelineEntry) bool {
	start, err := duration.ParseOffset(entry.Offset)
	if err != nil {
		p.log.Warnf("Record %s: skipping clip for %q, bad offset %q: %v",
			record.SourceLink, entry.Speaker, entry.Offset, err)
		return false
	}

	clipName := ClipFilename(index, entry.Speaker)
	clipPath := filepath.Join(workDir, clipName)
	if err := p.extractor.ExtractClip(ctx, mediaPath, clipPath, start, p.clipLength); err != nil {
		p.log.Errorf("Record %s: clip extraction for %q failed: %v", record.SourceLink, entry.Speaker, err)
		return false
	}

	objectKey := record.StorageNamespace + "/" + clipName
	if err := p.blobs.Upload(clipPath, objectKey); err != nil {
		p.log.Errorf("Record %s: upload of %s failed: %v", record.SourceLink, objectKey, err)
		return false
	}

	return true
}

func (p *Processor) markProcessed(ctx context.Context, link string) error {
	err := retry(ctx, func() error { return p.store.MarkProcessed(ctx, link) })
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// ClipFilename derives a stable object name from the clip's position in
// the timeline and the speaker's name.
func ClipFilename(index int, speaker string) string {
	slug := unsafeFilenameChars.ReplaceAllString(strings.ToLower(speaker), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "speaker"
	}
	return fmt.Sprintf("%03d_%s.mp4", index+1, slug)
}

var retryInitialInterval = 500 * time.Millisecond

func retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx)
	return backoff.Retry(op, policy)
}
