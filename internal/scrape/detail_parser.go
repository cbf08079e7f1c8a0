package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/akozyrev/tenderwatch/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

// detailMarker confirms we are on a genuine notice page and not an error
// placeholder the portal serves with HTTP 200.
const detailMarker = "общие сведения"

var descPolicy = bluemonday.StrictPolicy()

var detailTitleSelectors = []string{
	"span.cardMainInfo__title",
	".cardMainInfo__title",
	"h1.orgName",
	"h1",
	".noticeTabBox .active",
}

var detailCustomerSelectors = []string{
	"span.cardMainInfo__purchaser",
	".cardMainInfo__purchaser",
	".purchaser a",
	".orgName a",
}

var detailPriceSelectors = []string{
	"span.cardMainInfo__price",
	".cardMainInfo__price",
	".cost .currency",
}

var detailDescSelectors = []string{
	".noticeTabBox .tabContent",
	".description",
	".purchaseObjectInfo",
}

// ParseDetails extracts the richer fields from a notice detail page.
// Returns nil when the page does not look like a detail page for regNumber.
func ParseDetails(html, regNumber, pageURL string) *RawDetail {
	if !strings.Contains(html, regNumber) || !strings.Contains(strings.ToLower(html), detailMarker) {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	detail := &RawDetail{RegNumber: regNumber, SourceURL: pageURL, PageHTML: []byte(html)}

	for _, sel := range detailTitleSelectors {
		if text := cleanText(doc.Find(sel).First().Text()); text != "" {
			detail.Title = truncate(text, 500)
			break
		}
	}
	for _, sel := range detailCustomerSelectors {
		if text := cleanText(doc.Find(sel).First().Text()); text != "" {
			detail.Customer = truncate(text, 300)
			break
		}
	}
	for _, sel := range detailPriceSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if p := parsePrice(text); p.IsPositive() {
			detail.InitialPrice = p
			break
		}
	}
	for _, sel := range detailDescSelectors {
		raw, err := doc.Find(sel).First().Html()
		if err != nil {
			continue
		}
		text := cleanText(descPolicy.Sanitize(raw))
		// Only substantive descriptions; tab stubs are a few words long.
		if len([]rune(text)) > 50 {
			detail.Description = truncate(text, 2000)
			break
		}
	}

	detail.Documents = parseDocuments(doc, pageURL)
	detail.Participants = parseParticipants(doc)

	return detail
}

// parseDocuments collects attachment links from the documents block.
func parseDocuments(doc *goquery.Document, pageURL string) []models.Document {
	base, _ := url.Parse(pageURL)

	var docs []models.Document
	doc.Find(".blockFilesTabDocs .attachment").Each(func(_ int, att *goquery.Selection) {
		link := att.Find(`.section__value a, a[href*="download"]`).First()
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		name := cleanText(link.Text())
		if name == "" {
			return
		}
		if base != nil {
			if rel, err := url.Parse(href); err == nil {
				href = base.ResolveReference(rel).String()
			}
		}
		original := name
		if title, ok := link.Attr("title"); ok && strings.TrimSpace(title) != "" {
			original = strings.TrimSpace(title)
		} else if fn, ok := link.Attr("data-filename"); ok && strings.TrimSpace(fn) != "" {
			original = strings.TrimSpace(fn)
		}
		docs = append(docs, models.Document{
			Name:             name,
			URL:              href,
			OriginalFilename: original,
		})
	})
	return docs
}

// parseParticipants reads the bidder table, when the notice carries one.
func parseParticipants(doc *goquery.Document) []models.Participant {
	var parts []models.Participant
	doc.Find(".participantsTable tr, .tableBlock__body tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 1 {
			return
		}
		name := cleanText(cells.Eq(0).Text())
		if name == "" {
			return
		}
		p := models.Participant{Name: truncate(name, 300)}
		if cells.Length() > 1 {
			p.INN = cleanText(cells.Eq(1).Text())
		}
		if cells.Length() > 2 {
			p.Address = cleanText(cells.Eq(2).Text())
		}
		rowText := strings.ToLower(row.Text())
		p.IsWinner = strings.Contains(rowText, "победитель") || strings.Contains(rowText, "winner")
		parts = append(parts, p)
	})
	return parts
}
