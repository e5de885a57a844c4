package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/david/funding-gateway/internal/models"
)

var (
	isoDateRegex    = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)
	slashDateRegex  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(20\d{2})\b`)
	monthNameRegex  = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?\s+(\d{1,2}),?\s+(20\d{2})\b`)
	dayMonthRegex   = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\.?,?\s+(20\d{2})\b`)
	frenchDateRegex = regexp.MustCompile(`(?i)\b(\d{1,2})(?:er)?\s+(janvier|février|fevrier|mars|avril|mai|juin|juillet|août|aout|septembre|octobre|novembre|décembre|decembre)\s+(20\d{2})\b`)
)

var frenchMonths = map[string]time.Month{
	"janvier":   time.January,
	"février":   time.February,
	"fevrier":   time.February,
	"mars":      time.March,
	"avril":     time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"août":      time.August,
	"aout":      time.August,
	"septembre": time.September,
	"octobre":   time.October,
	"novembre":  time.November,
	"décembre":  time.December,
	"decembre":  time.December,
}

// parseDateRobust attempts to parse deadlines in the formats EU and
// foundation portals publish. Date-only values resolve to end of day UTC.
func parseDateRobust(text string, locales []string) (time.Time, error) {
	text = cleanDateString(text)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", text); err == nil {
		return toEndOfDay(t), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", text); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", text); err == nil {
		return t, nil
	}

	englishFormats := []string{
		"2 January 2006",
		"02 January 2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2 Jan 2006",
		"02 Jan 2006",
		"02/01/2006", // EU format first, most of our sources are European
		"01/02/2006",
	}
	for _, format := range englishFormats {
		if t, err := time.Parse(format, text); err == nil {
			return toEndOfDay(t), nil
		}
	}

	for _, locale := range locales {
		if strings.HasPrefix(locale, "fr") {
			if t := parseFrenchDateWithRegex(text); !t.IsZero() {
				return toEndOfDay(t), nil
			}
		}
	}

	if t := parseDateWithRegex(text); !t.IsZero() {
		return toEndOfDay(t), nil
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", text)
}

// parseEpochMillis handles the EU portal's millisecond timestamps.
func parseEpochMillis(v float64) (time.Time, bool) {
	// anything below 2000-01-01 in millis is not a timestamp
	if v < 946684800000 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(v)).UTC(), true
}

// toEndOfDay sets the time to 23:59:59.999999999 UTC
func toEndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, time.UTC)
}

func parseDateWithRegex(text string) time.Time {
	if m := isoDateRegex.FindString(text); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t
		}
	}

	// Day-first, as published by EU delegations: 15/03/2026
	if m := slashDateRegex.FindStringSubmatch(text); len(m) == 4 {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month > 12 && day <= 12 {
			day, month = month, day
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		}
	}

	if m := monthNameRegex.FindStringSubmatch(text); len(m) == 4 {
		if t, err := time.Parse("Jan 2 2006", fmt.Sprintf("%s %s %s", shortMonth(m[1]), m[2], m[3])); err == nil {
			return t
		}
	}
	if m := dayMonthRegex.FindStringSubmatch(text); len(m) == 4 {
		if t, err := time.Parse("Jan 2 2006", fmt.Sprintf("%s %s %s", shortMonth(m[2]), m[1], m[3])); err == nil {
			return t
		}
	}

	return time.Time{}
}

func shortMonth(name string) string {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	if len(name) > 3 {
		name = name[:3]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func parseFrenchDateWithRegex(text string) time.Time {
	m := frenchDateRegex.FindStringSubmatch(text)
	if len(m) != 4 {
		return time.Time{}
	}
	month, ok := frenchMonths[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}
	}
	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// cleanDateString removes common prefixes and cleans up date strings
func cleanDateString(s string) string {
	prefixes := []string{
		"Closing date:", "Deadline:", "Submission deadline:", "Due date:",
		"Expires:", "Ends:", "Date limite:", "Date de clôture:",
	}
	sLower := strings.ToLower(s)
	for _, p := range prefixes {
		if idx := strings.Index(sLower, strings.ToLower(p)); idx != -1 {
			s = s[idx+len(p):]
			sLower = sLower[idx+len(p):]
		}
	}
	return strings.TrimSpace(s)
}

// FormatDeadline renders a deadline value as YYYY-MM-DD, or the
// no-deadline sentinel when it cannot be parsed.
func FormatDeadline(v any) string {
	t, ok := deadlineTime(v)
	if !ok {
		return models.NoDeadline
	}
	return t.Format("2006-01-02")
}

// ParseDeadline parses a normalized deadline string back into a time.
func ParseDeadline(s string) (time.Time, bool) {
	if s == "" || s == models.NoDeadline {
		return time.Time{}, false
	}
	t, err := parseDateRobust(s, []string{"en", "fr"})
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func deadlineTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case string:
		if isPlaceholder(val) {
			return time.Time{}, false
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parseEpochMillis(n)
		}
		return ParseDeadline(val)
	case float64:
		return parseEpochMillis(val)
	case int64:
		return parseEpochMillis(float64(val))
	case int:
		return parseEpochMillis(float64(val))
	}
	return time.Time{}, false
}
