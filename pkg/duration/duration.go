// Package duration parses the free-text Swedish durations and timestamp
// offsets that the webb-tv listing exposes.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	hoursPattern   = regexp.MustCompile(`(\d+)\s*tim`)
	minutesPattern = regexp.MustCompile(`(\d+)\s*min`)
	secondsPattern = regexp.MustCompile(`(\d+)\s*sek`)
)

// ParseSeconds converts a listing duration like "10 minuter 5 sekunder" or
// "2 timmar 3 minuter" into total seconds. A component that is absent counts
// as zero, so malformed or empty input yields 0 rather than an error; callers
// treat 0 as "unknown" and the minimum-duration filter drops it.
func ParseSeconds(text string) int {
	text = strings.ToLower(text)

	total := 0
	if m := hoursPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		total += h * 3600
	}
	if m := minutesPattern.FindStringSubmatch(text); m != nil {
		min, _ := strconv.Atoi(m[1])
		total += min * 60
	}
	if m := secondsPattern.FindStringSubmatch(text); m != nil {
		s, _ := strconv.Atoi(m[1])
		total += s
	}

	return total
}

// ParseOffset converts a within-video timestamp ("mm:ss" or "hh:mm:ss")
// into seconds from the start of the video.
func ParseOffset(ts string) (int, error) {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", ts)
	}

	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", ts)
		}
		total = total*60 + n
	}

	return total, nil
}
