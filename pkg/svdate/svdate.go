// Package svdate parses the Swedish calendar dates used on the listing page,
// e.g. "12 april 2024". No library in our dependency set understands Swedish
// month names, so this is a small table-driven parser.
package svdate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var months = map[string]time.Month{
	"januari":   time.January,
	"februari":  time.February,
	"mars":      time.March,
	"april":     time.April,
	"maj":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"augusti":   time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// Parse converts a Swedish date string into a calendar date (midnight UTC).
// Supported forms: "12 april 2024", "12 april" (current year assumed),
// and the relative forms "i dag" / "idag" and "i går" / "igår".
func Parse(text string) (time.Time, error) {
	return parseAt(text, time.Now())
}

func parseAt(text string, now time.Time) (time.Time, error) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch strings.ReplaceAll(cleaned, " ", "") {
	case "idag":
		return today, nil
	case "igår", "igar":
		return today.AddDate(0, 0, -1), nil
	}

	parts := strings.Fields(cleaned)
	if len(parts) < 2 || len(parts) > 3 {
		return time.Time{}, fmt.Errorf("unrecognized date %q", text)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("unrecognized day in %q", text)
	}

	month, ok := months[parts[1]]
	if !ok {
		return time.Time{}, fmt.Errorf("unrecognized month in %q", text)
	}

	year := now.Year()
	if len(parts) == 3 {
		year, err = strconv.Atoi(parts[2])
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized year in %q", text)
		}
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}
