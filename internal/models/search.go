package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SearchFilters narrows a portal search. Zero values mean "not set".
type SearchFilters struct {
	PriceFrom *decimal.Decimal `json:"price_from,omitempty"`
	PriceTo   *decimal.Decimal `json:"price_to,omitempty"`
	DateFrom  string           `json:"date_from,omitempty"` // dd.mm.yyyy, portal format
	DateTo    string           `json:"date_to,omitempty"`
	Region    string           `json:"region,omitempty"`
}

// SearchCriteria is the input to a tender search. EnrichDetails asks for a
// detail-page fetch per result; card data is kept when a fetch fails.
type SearchCriteria struct {
	Query         string        `json:"query"`
	Limit         int           `json:"limit"`
	Filters       SearchFilters `json:"filters"`
	EnrichDetails bool          `json:"enrich_details,omitempty"`
}

// SearchResult is one row of a result list: the light-weight card view of a
// tender before detail enrichment.
type SearchResult struct {
	RegNumber  string          `json:"reg_number"`
	Title      string          `json:"title"`
	Customer   string          `json:"customer"`
	Price      decimal.Decimal `json:"price"`
	TenderType TenderType      `json:"tender_type"`
	Status     TenderStatus    `json:"status"`
	Deadline   *time.Time      `json:"deadline,omitempty"`
	SourceURL  string          `json:"source_url"`
	ParsedAt   time.Time       `json:"parsed_at"`
}

// SearchStats aggregates a result set for display.
type SearchStats struct {
	TotalCount   int                  `json:"total_count"`
	ByType       map[TenderType]int   `json:"type_distribution"`
	ByStatus     map[TenderStatus]int `json:"status_distribution"`
	TotalValue   decimal.Decimal      `json:"total_value"`
	AverageValue decimal.Decimal      `json:"average_value"`
	MinValue     decimal.Decimal      `json:"min_value"`
	MaxValue     decimal.Decimal      `json:"max_value"`
}
