package domain

import "time"

// SessionStatus tracks how far a session has moved through the pipeline.
// A record is created Pending and flips to Processed exactly once, after
// every timeline entry has been attempted.
type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusProcessed SessionStatus = "processed"
)

// TimelineEntry is one speaker cue scraped from a session's detail page:
// an offset into the video ("mm:ss" or "hh:mm:ss") and the speaker's name.
type TimelineEntry struct {
	Offset  string `json:"offset"`
	Speaker string `json:"speaker"`
}

// SpeakerTimeline is the ordered list of speaker cues for one session.
// Slice order is chronological order of appearance; it is persisted as a
// JSON array so the order survives the round-trip.
type SpeakerTimeline []TimelineEntry

// SessionRecord is one discovered broadcast session, one row per record.
// SourceLink is the record's identity: discovery never inserts a second
// record for a link it has already seen.
type SessionRecord struct {
	Title           string
	Type            string
	Date            time.Time
	DurationSeconds int
	SourceLink      string
	MediaURL        string
	Timeline        SpeakerTimeline
	// StorageNamespace is the unique per-record prefix under which every
	// derived clip is stored. Assigned once, at discovery time, before
	// any upload happens.
	StorageNamespace string
	Status           SessionStatus
	DiscoveredAt     time.Time
	ProcessedAt      time.Time
}

// CandidateSession is what the discoverer extracts from one listing item,
// before the detail page has been visited.
type CandidateSession struct {
	Title           string
	Type            string
	Date            time.Time
	DurationSeconds int
	SourceLink      string
}

// EnrichedDetail is what the enricher extracts from a session's own page.
// Either field may be empty when the page structure is missing the
// corresponding element; that is partial data, not an error.
type EnrichedDetail struct {
	MediaURL string
	Timeline SpeakerTimeline
}
