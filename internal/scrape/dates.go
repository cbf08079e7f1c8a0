package scrape

import (
	"regexp"
	"strings"
	"time"
)

// dateLayouts are tried in order; the portal mixes day-first and ISO forms,
// with and without a time component.
var dateLayouts = []string{
	"02.01.2006 15:04",
	"02.01.2006",
	"02/01/2006 15:04",
	"02/01/2006",
	"2006-01-02 15:04",
	"2006-01-02",
}

var dateTokenRegex = regexp.MustCompile(`\d{1,2}[./]\d{1,2}[./]\d{4}(\s+\d{1,2}:\d{2})?|\d{4}-\d{2}-\d{2}(\s+\d{1,2}:\d{2})?`)

// parseDate parses a portal date string, trying each known layout in order.
func parseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	// Cut surrounding labels ("до 01.03.2025 10:00", "Окончание подачи: ...").
	if m := dateTokenRegex.FindString(text); m != "" {
		text = m
	}

	text = padDayMonth(text)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// padDayMonth turns 1.3.2025 into 01.03.2025 so the fixed layouts match.
func padDayMonth(s string) string {
	sep := ""
	switch {
	case strings.Count(s, ".") >= 2:
		sep = "."
	case strings.Count(s, "/") >= 2:
		sep = "/"
	default:
		return s
	}

	datePart := s
	timePart := ""
	if idx := strings.IndexByte(s, ' '); idx != -1 {
		datePart, timePart = s[:idx], s[idx:]
	}

	parts := strings.Split(datePart, sep)
	if len(parts) != 3 {
		return s
	}
	for i := 0; i < 2; i++ {
		if len(parts[i]) == 1 {
			parts[i] = "0" + parts[i]
		}
	}
	return strings.Join(parts, sep) + timePart
}

// findDeadline scans free text for a deadline-looking date, preferring the
// "до <date>" form the portal uses on result cards.
func findDeadline(text string) (time.Time, bool) {
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`до\s+(\d{1,2}\.\d{1,2}\.\d{4}(?:\s+\d{1,2}:\d{2})?)`),
		regexp.MustCompile(`(\d{1,2}\.\d{1,2}\.\d{4}\s+\d{1,2}:\d{2})`),
		regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4}\s+\d{1,2}:\d{2})`),
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			if t, ok := parseDate(m[1]); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
