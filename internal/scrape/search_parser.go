package scrape

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// containerSelectors are the result-area wrappers the portal has used across
// layout revisions, newest first.
var containerSelectors = []string{
	"#searchResultPlaceHolder",
	".search-results",
	".registry-entry-list",
}

// cardSelectors locate individual tender cards inside the container.
var cardSelectors = []string{
	"div.row.no-gutters.registry-entry__form",
	"div.search-registry-entry-block",
	"div.registry-entry",
	`div[class*="registry-entry"]`,
}

// SearchParser turns raw result-list markup into RawTender records.
type SearchParser struct {
	BaseURL string
	// DebugDir receives a dump of any page whose layout is unrecognized,
	// for offline selector work. Empty disables dumping.
	DebugDir string
}

// ParseSearchResults extracts tender cards from a result-list page. An
// unrecognized layout yields an empty slice, never an error: the page is
// dumped for diagnosis and the caller moves on.
func (p *SearchParser) ParseSearchResults(html string) []RawTender {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("[parser] failed to build document: %v", err)
		return nil
	}

	container := p.findContainer(doc)
	if container == nil {
		log.Printf("[parser] results container not found")
		p.dumpHTML(html)
		return nil
	}

	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		cards = container.Find(sel)
		if cards.Length() > 0 {
			break
		}
	}
	if cards == nil || cards.Length() == 0 {
		log.Printf("[parser] no tender cards found")
		return nil
	}

	results := make([]RawTender, 0, cards.Length())
	cards.Each(func(i int, card *goquery.Selection) {
		raw, ok := p.parseCard(card)
		if !ok {
			log.Printf("[parser] skipping card %d: no registration number", i+1)
			return
		}
		results = append(results, raw)
	})

	log.Printf("[parser] parsed %d of %d cards", len(results), cards.Length())
	return results
}

func (p *SearchParser) findContainer(doc *goquery.Document) *goquery.Selection {
	for _, sel := range containerSelectors {
		if c := doc.Find(sel).First(); c.Length() > 0 {
			return c
		}
	}
	return nil
}

// parseCard assembles one record. The registration number must extract or
// the card is discarded; every other field falls back to a placeholder.
func (p *SearchParser) parseCard(card *goquery.Selection) (RawTender, bool) {
	regNumber, ok := extractRegNumber(card)
	if !ok {
		return RawTender{}, false
	}

	raw := RawTender{
		RegNumber: regNumber,
		ParsedAt:  time.Now(),
	}

	if title, ok := extractTitle(card); ok {
		raw.Title = title
	} else {
		raw.Title = fmt.Sprintf("Тендер № %s", regNumber)
	}

	if customer, ok := extractCustomer(card); ok {
		raw.Customer = customer
	} else {
		raw.Customer = "Заказчик не указан"
	}

	raw.InitialPrice = extractPrice(card)

	text := card.Text()
	raw.TenderType = classifyType(text)
	raw.Status = classifyStatus(text)
	raw.Deadline = extractDeadline(card)
	raw.SourceURL = p.resolveURL(card, regNumber)

	return raw, true
}

func (p *SearchParser) resolveURL(card *goquery.Selection, regNumber string) string {
	if href, ok := extractCardURL(card); ok {
		if abs, err := url.Parse(p.BaseURL); err == nil {
			if rel, err := url.Parse(href); err == nil {
				return abs.ResolveReference(rel).String()
			}
		}
	}
	return detailURL(p.BaseURL, detailKinds[0], regNumber)
}

func (p *SearchParser) dumpHTML(html string) {
	if p.DebugDir == "" {
		return
	}
	if err := os.MkdirAll(p.DebugDir, 0o755); err != nil {
		return
	}
	name := fmt.Sprintf("%s/debug_search_%d.html", p.DebugDir, time.Now().Unix())
	if err := os.WriteFile(name, []byte(html), 0o644); err != nil {
		log.Printf("[parser] failed to dump page: %v", err)
		return
	}
	log.Printf("[parser] dumped unparseable page to %s", name)
}
