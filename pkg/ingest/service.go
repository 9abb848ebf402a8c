// Package ingest runs the discovery side of the pipeline: listing fetch,
// dedup against the session store, detail enrichment, and record insert.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"webtv-clipper/pkg/db"
	"webtv-clipper/pkg/domain"
)

// Discoverer produces candidate sessions from one source (HTML listing or
// feed). Every cycle calls each configured source afresh.
type Discoverer interface {
	Discover(ctx context.Context) ([]domain.CandidateSession, error)
}

// Enricher fetches a session's own page for its media URL and timeline.
type Enricher interface {
	Enrich(ctx context.Context, link string) (domain.EnrichedDetail, error)
}

// SessionStore is the slice of the repository the discovery side needs.
type SessionStore interface {
	Exists(ctx context.Context, link string) (bool, error)
	Insert(ctx context.Context, record *domain.SessionRecord) error
}

// BlobStore pre-creates the per-record storage namespace at discovery time.
type BlobStore interface {
	EnsureNamespace(namespace string) error
}

// Service orchestrates one discovery cycle: discover, dedup, enrich,
// assign a storage namespace, pre-create it, insert.
type Service struct {
	discoverers []Discoverer
	enricher    Enricher
	store       SessionStore
	blobs       BlobStore
	log         *logrus.Logger
}

// NewService wires the discovery dependencies.
func NewService(discoverers []Discoverer, enricher Enricher, store SessionStore, blobs BlobStore, log *logrus.Logger) *Service {
	return &Service{
		discoverers: discoverers,
		enricher:    enricher,
		store:       store,
		blobs:       blobs,
		log:         log,
	}
}

// RunCycle performs one discovery pass over every configured source.
// A source whose fetch fails is logged and skipped for this cycle, with no
// side effects; its sessions are picked up on the next run. Errors local
// to one candidate never abort the cycle. Only a repository failure that
// survives its retries is returned.
func (s *Service) RunCycle(ctx context.Context) error {
	for _, d := range s.discoverers {
		candidates, err := d.Discover(ctx)
		if err != nil {
			s.log.Errorf("Discovery source failed, skipping this cycle: %v", err)
			continue
		}

		for _, candidate := range candidates {
			if err := s.processCandidate(ctx, candidate); err != nil {
				return err
			}
		}
	}
	return nil
}

// processCandidate handles one candidate end to end. The returned error is
// nil unless the repository itself is unreachable; everything candidate-
// local is logged and absorbed here.
func (s *Service) processCandidate(ctx context.Context, candidate domain.CandidateSession) error {
	var exists bool
	err := retry(ctx, func() error {
		var lookupErr error
		exists, lookupErr = s.store.Exists(ctx, candidate.SourceLink)
		return lookupErr
	})
	if err != nil {
		return fmt.Errorf("dedup lookup for %s: %w", candidate.SourceLink, err)
	}
	if exists {
		s.log.Debugf("Record already exists: %s", candidate.Title)
		return nil
	}

	detail, err := s.enricher.Enrich(ctx, candidate.SourceLink)
	if err != nil {
		// No record was created, so the next cycle retries this link.
		s.log.Warnf("Enrichment failed for %s, will retry next cycle: %v", candidate.SourceLink, err)
		return nil
	}

	record := &domain.SessionRecord{
		Title:            candidate.Title,
		Type:             candidate.Type,
		Date:             candidate.Date,
		DurationSeconds:  candidate.DurationSeconds,
		SourceLink:       candidate.SourceLink,
		MediaURL:         detail.MediaURL,
		Timeline:         detail.Timeline,
		StorageNamespace: uuid.NewString(),
		Status:           domain.StatusPending,
		DiscoveredAt:     time.Now(),
	}

	if err := retry(ctx, func() error { return s.blobs.EnsureNamespace(record.StorageNamespace) }); err != nil {
		// Without its namespace the record must not become visible.
		s.log.Errorf("Could not pre-create namespace for %s, skipping: %v", record.SourceLink, err)
		return nil
	}

	err = retry(ctx, func() error {
		insertErr := s.store.Insert(ctx, record)
		if errors.Is(insertErr, db.ErrConflict) {
			// A concurrent cycle won the race; backing off won't help.
			return backoff.Permanent(insertErr)
		}
		return insertErr
	})
	switch {
	case errors.Is(err, db.ErrConflict):
		s.log.Infof("Record already inserted concurrently: %s", record.SourceLink)
	case err != nil:
		return fmt.Errorf("insert session %s: %w", record.SourceLink, err)
	default:
		s.log.Infof("New record inserted: %s (%d speakers)", record.Title, len(record.Timeline))
	}

	return nil
}

var retryInitialInterval = 500 * time.Millisecond

// retry wraps repository and namespace operations in a bounded exponential
// backoff, since those are the writes whose silent loss would leave the
// system inconsistent.
func retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx)
	return backoff.Retry(op, policy)
}
