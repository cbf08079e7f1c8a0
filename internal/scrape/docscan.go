package scrape

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	rpdf "rsc.io/pdf"
)

// Deadline-ish labels that appear in tender documentation.
var docDeadlineHints = []string{
	"срок подачи", "окончание подачи", "дата окончания", "срок исполнения",
	"deadline", "дата и время окончания",
}

var docDateRegexes = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.20\d{2}(\s+\d{1,2}:\d{2})?\b`),
	regexp.MustCompile(`\b20\d{2}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/20\d{2}\b`),
}

// extractPDFText pulls plain text from a PDF attachment. The reader panics
// on malformed files, so recover into an error.
func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// ScanDocumentDeadlines extracts deadline date candidates from a PDF tender
// document, sorted ascending and deduplicated. Lines near a deadline label
// are preferred; when none carry a label, all dated lines count.
func ScanDocumentDeadlines(content []byte) ([]time.Time, error) {
	text, err := extractPDFText(content)
	if err != nil {
		return nil, err
	}
	return scanTextDeadlines(text), nil
}

func scanTextDeadlines(text string) []time.Time {
	var labeled, all []time.Time
	seen := make(map[time.Time]bool)

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		hasHint := false
		for _, hint := range docDeadlineHints {
			if strings.Contains(lower, hint) {
				hasHint = true
				break
			}
		}
		for _, re := range docDateRegexes {
			for _, m := range re.FindAllString(line, -1) {
				t, ok := parseDate(m)
				if !ok || seen[t] {
					continue
				}
				seen[t] = true
				all = append(all, t)
				if hasHint {
					labeled = append(labeled, t)
				}
			}
		}
	}

	result := all
	if len(labeled) > 0 {
		result = labeled
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Before(result[j]) })
	return result
}
