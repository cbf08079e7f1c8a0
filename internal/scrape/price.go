package scrape

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	priceJunkRegex   = regexp.MustCompile(`[^\d\s,.]`)
	priceNumberRegex = regexp.MustCompile(`\d+(?:\.\d+)?`)
	priceLabelRegex  = regexp.MustCompile(`(?:цена|стоимость|сумма)\D*(\d[\d\s,]*(?:\.\d+)?)`)
)

// kopeckThreshold: a start price above a billion almost always means the
// portal emitted the value in kopecks.
var kopeckThreshold = decimal.NewFromInt(1_000_000_000)

// parsePrice extracts a monetary amount from portal price text such as
// "1 234 567,89 ₽". It strips currency symbols, normalizes the decimal
// comma, and of all numbers present keeps the largest.
func parsePrice(text string) decimal.Decimal {
	if text == "" {
		return decimal.Zero
	}

	clean := priceJunkRegex.ReplaceAllString(text, "")
	clean = strings.ReplaceAll(clean, ",", ".")
	clean = strings.ReplaceAll(clean, " ", "")
	clean = strings.ReplaceAll(clean, " ", "")

	max := decimal.Zero
	for _, num := range priceNumberRegex.FindAllString(clean, -1) {
		v, err := decimal.NewFromString(num)
		if err != nil {
			continue
		}
		if v.GreaterThan(max) {
			max = v
		}
	}

	if max.GreaterThan(kopeckThreshold) {
		max = max.Div(decimal.NewFromInt(100))
	}
	return max
}

// findPrice scans full card text for a price near a price-ish label and
// discards implausibly small matches.
func findPrice(text string) decimal.Decimal {
	minPlausible := decimal.NewFromInt(1000)
	for _, m := range priceLabelRegex.FindAllStringSubmatch(strings.ToLower(text), -1) {
		if p := parsePrice(m[1]); p.GreaterThan(minPlausible) {
			return p
		}
	}
	return decimal.Zero
}
