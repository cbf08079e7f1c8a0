package scrape

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/akozyrev/tenderwatch/internal/models"
	"github.com/shopspring/decimal"
)

// extractFunc is one candidate extraction strategy. Strategies are tried in
// order until the first one reports ok.
type extractFunc func(card *goquery.Selection) (string, bool)

func firstOf(card *goquery.Selection, strategies []extractFunc) (string, bool) {
	for _, fn := range strategies {
		if v, ok := fn(card); ok {
			return v, true
		}
	}
	return "", false
}

// attrOf reads attr from the first node matching selector.
func attrOf(selector, attr string) extractFunc {
	return func(card *goquery.Selection) (string, bool) {
		v, exists := card.Find(selector).First().Attr(attr)
		v = strings.TrimSpace(v)
		return v, exists && v != ""
	}
}

// textOf reads the visible text of the first node matching selector,
// rejecting values shorter than minLen.
func textOf(selector string, minLen int) extractFunc {
	return func(card *goquery.Selection) (string, bool) {
		v := cleanText(card.Find(selector).First().Text())
		return v, len([]rune(v)) >= minLen && v != ""
	}
}

var regNumberRegex = regexp.MustCompile(`\d{19,}`)
var regNumberFullText = regexp.MustCompile(`№?\s*(\d{19,})`)

var regNumberStrategies = []extractFunc{
	attrOf("[data-number]", "data-number"),
	func(card *goquery.Selection) (string, bool) {
		selectors := []string{
			".registry-entry__header-mid__number",
			".registry-entry__body-number",
			`span[class*="number"]`,
			`div[class*="number"]`,
			".number",
		}
		for _, sel := range selectors {
			text := strings.TrimSpace(card.Find(sel).First().Text())
			if text == "" {
				continue
			}
			num := strings.NewReplacer("№", "", "#", "", " ", "", " ", "").Replace(text)
			if regNumberRegex.MatchString(num) {
				return regNumberRegex.FindString(num), true
			}
		}
		return "", false
	},
	func(card *goquery.Selection) (string, bool) {
		if m := regNumberFullText.FindStringSubmatch(card.Text()); len(m) > 1 {
			return m[1], true
		}
		return "", false
	},
}

// extractRegNumber pulls the registration number out of a card. The number
// is mandatory: without it the card is not actionable.
func extractRegNumber(card *goquery.Selection) (string, bool) {
	return firstOf(card, regNumberStrategies)
}

var titleStrategies = []extractFunc{
	attrOf(`a[title]`, "title"),
	textOf(".registry-entry__body-value a", 10),
	textOf(".registry-entry__body-value", 10),
	textOf(`a[href*="common-info"]`, 10),
	textOf(".registry-entry__body .d-block", 10),
	textOf(".entry-title", 10),
	textOf("h3 a", 10),
	textOf("h4 a", 10),
}

func extractTitle(card *goquery.Selection) (string, bool) {
	v, ok := firstOf(card, titleStrategies)
	if !ok {
		return "", false
	}
	return truncate(v, 500), true
}

var customerStrategies = []extractFunc{
	textOf(".registry-entry__body-href", 3),
	textOf(".purchaser", 3),
	textOf(`a[href*="purchaser"]`, 3),
	textOf(".customer", 3),
	textOf(".registry-entry__body .text-truncate", 3),
	textOf(".organization", 3),
}

var customerPrefixes = []string{
	"заказчик:", "организация:", "покупатель:", "customer:", "organization:",
}

func extractCustomer(card *goquery.Selection) (string, bool) {
	v, ok := firstOf(card, customerStrategies)
	if !ok {
		return "", false
	}
	lower := strings.ToLower(v)
	for _, p := range customerPrefixes {
		if strings.HasPrefix(lower, p) {
			v = strings.TrimSpace(v[len(p):])
			break
		}
	}
	return truncate(v, 300), v != ""
}

var priceSelectors = []string{
	".price-block__value",
	".cost .currency",
	".price",
	`span[class*="price"]`,
	".amount",
}

func extractPrice(card *goquery.Selection) decimal.Decimal {
	for _, sel := range priceSelectors {
		text := strings.TrimSpace(card.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if p := parsePrice(text); p.IsPositive() {
			return p
		}
	}
	return findPrice(card.Text())
}

var urlSelectors = []string{
	`a[href*="common-info"]`,
	`a[href*="view"]`,
	".registry-entry__body-value a",
}

func extractCardURL(card *goquery.Selection) (string, bool) {
	for _, sel := range urlSelectors {
		if href, ok := card.Find(sel).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			return strings.TrimSpace(href), true
		}
	}
	return "", false
}

func extractDeadline(card *goquery.Selection) *time.Time {
	selectors := []string{".deadline", ".date", ".data-block__value", `[class*="date"]`}
	for _, sel := range selectors {
		text := strings.TrimSpace(card.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if t, ok := parseDate(text); ok {
			return &t
		}
	}
	if t, ok := findDeadline(card.Text()); ok {
		return &t
	}
	return nil
}

// classifyType keys off the procurement-law markers printed on every card.
func classifyType(cardText string) models.TenderType {
	upper := strings.ToUpper(cardText)
	switch {
	case strings.Contains(upper, "44-ФЗ") || strings.Contains(upper, "44-FZ"):
		return models.TypeFZ44
	case strings.Contains(upper, "223-ФЗ") || strings.Contains(upper, "223-FZ"):
		return models.TypeFZ223
	case strings.Contains(upper, "КОММЕРЧЕСК"):
		return models.TypeCommercial
	default:
		return models.TypeUnknown
	}
}

var statusKeywords = []struct {
	words  []string
	status models.TenderStatus
}{
	{[]string{"завершен", "completed", "окончен"}, models.StatusCompleted},
	{[]string{"отменен", "cancelled", "аннулирован"}, models.StatusCancelled},
	// "проект" alone would misfire on "проектная документация", which is
	// most of what the portal lists.
	{[]string{"черновик", "draft", "проект извещения"}, models.StatusDraft},
}

func classifyStatus(cardText string) models.TenderStatus {
	lower := strings.ToLower(cardText)
	for _, kw := range statusKeywords {
		for _, w := range kw.words {
			if strings.Contains(lower, w) {
				return kw.status
			}
		}
	}
	return models.StatusActive
}

// cleanText collapses whitespace runs and trims the string.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
