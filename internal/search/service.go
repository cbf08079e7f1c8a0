// Package search orchestrates tender discovery: it drives the retrieval
// client, translates raw records into entities, and coordinates the cache
// and repository collaborators.
package search

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/akozyrev/tenderwatch/internal/cache"
	"github.com/akozyrev/tenderwatch/internal/db"
	"github.com/akozyrev/tenderwatch/internal/models"
	"github.com/akozyrev/tenderwatch/internal/scrape"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Options tunes orchestration behavior. Zero values take defaults.
type Options struct {
	// CacheTTL bounds how long a search result set is served from cache.
	CacheTTL time.Duration
	// Freshness is how long a stored tender detail stays authoritative.
	Freshness time.Duration
	// EmptyDelayStep and ErrorDelayStep are the two retry schedules of
	// SearchWithRetry: the delay before attempt n+1 is step * n. They are
	// deliberately independent.
	EmptyDelayStep time.Duration
	ErrorDelayStep time.Duration
}

func (o *Options) applyDefaults() {
	if o.CacheTTL == 0 {
		o.CacheTTL = 30 * time.Minute
	}
	if o.Freshness == 0 {
		o.Freshness = 30 * time.Minute
	}
	if o.EmptyDelayStep == 0 {
		o.EmptyDelayStep = 2 * time.Second
	}
	if o.ErrorDelayStep == 0 {
		o.ErrorDelayStep = 3 * time.Second
	}
}

// Service is the search orchestrator.
type Service struct {
	client scrape.Client
	cache  cache.Cache
	repo   db.TenderRepository
	opts   Options
}

func NewService(client scrape.Client, c cache.Cache, repo db.TenderRepository, opts Options) *Service {
	opts.applyDefaults()
	return &Service{client: client, cache: c, repo: repo, opts: opts}
}

// Search runs one portal search. With useCache, a prior result set for the
// same criteria is returned without touching the network, and a non-empty
// fresh result set is cached afterwards. One malformed record never aborts
// the batch: it is logged and skipped.
func (s *Service) Search(ctx context.Context, criteria models.SearchCriteria, useCache bool) ([]models.SearchResult, error) {
	log.Printf("[search] query=%q limit=%d", criteria.Query, criteria.Limit)

	key := cacheKey(criteria)
	if useCache && s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if results, ok := v.([]models.SearchResult); ok {
				log.Printf("[search] cache hit for %q", criteria.Query)
				return results, nil
			}
		}
	}

	s.client.InitSession(ctx)

	raw, err := s.client.Search(ctx, criteria.Query, criteria.Limit, criteria.Filters)
	if err != nil {
		return nil, fmt.Errorf("portal search failed: %w", err)
	}

	results := make([]models.SearchResult, 0, len(raw))
	for _, r := range raw {
		result, err := toSearchResult(r)
		if err != nil {
			log.Printf("[search] skipping record: %v", err)
			continue
		}
		results = append(results, result)
	}

	if criteria.EnrichDetails && len(results) > 0 {
		log.Printf("[search] enriching %d results with detail pages", len(results))
		s.enrich(ctx, results)
	}

	if useCache && s.cache != nil && len(results) > 0 {
		s.cache.Set(key, results, s.opts.CacheTTL)
		log.Printf("[search] cached %d results", len(results))
	}

	return results, nil
}

// enrich overlays detail-page fields onto each card record in place. A
// failed or empty fetch keeps the card data; the client's rate limiter
// paces the consecutive detail requests.
func (s *Service) enrich(ctx context.Context, results []models.SearchResult) {
	for i := range results {
		detail, err := s.client.FetchDetails(ctx, results[i].RegNumber)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[search] could not enrich %s: %v", results[i].RegNumber, err)
			continue
		}
		if detail == nil {
			continue
		}
		if detail.Title != "" {
			results[i].Title = detail.Title
		}
		if detail.Customer != "" {
			results[i].Customer = detail.Customer
		}
		if detail.InitialPrice.IsPositive() {
			results[i].Price = detail.InitialPrice
		}
	}
}

// SearchWithRetry re-runs Search until it yields results or maxAttempts is
// exhausted. Empty outcomes and errors wait on separate, attempt-indexed
// delay schedules. Exhaustion surfaces the last error wrapped, or an empty
// list when every attempt merely came back empty.
func (s *Service) SearchWithRetry(ctx context.Context, criteria models.SearchCriteria, maxAttempts int) ([]models.SearchResult, error) {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		log.Printf("[search] attempt %d/%d", attempt, maxAttempts)

		results, err := s.Search(ctx, criteria, true)
		if err == nil && len(results) > 0 {
			return results, nil
		}

		var delay time.Duration
		if err != nil {
			lastErr = err
			log.Printf("[search] attempt %d failed: %v", attempt, err)
			delay = time.Duration(attempt) * s.opts.ErrorDelayStep
		} else {
			log.Printf("[search] attempt %d returned no results", attempt)
			delay = time.Duration(attempt) * s.opts.EmptyDelayStep
		}

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("no results after %d attempts: %w", maxAttempts, lastErr)
	}
	return []models.SearchResult{}, nil
}

// GetDetails returns the full tender record for regNumber. The repository
// answer wins while it is fresh, unless forceRefresh; otherwise the portal
// is re-fetched and the result persisted.
func (s *Service) GetDetails(ctx context.Context, regNumber string, forceRefresh bool) (*models.Tender, error) {
	if !forceRefresh && s.repo != nil {
		stored, err := s.repo.GetByRegNumber(ctx, regNumber)
		if err != nil {
			log.Printf("[search] repository lookup failed for %s: %v", regNumber, err)
		} else if stored != nil && time.Since(stored.UpdatedAt) < s.opts.Freshness {
			log.Printf("[search] returning stored tender %s", regNumber)
			return stored, nil
		}
	}

	tender, _, err := s.Refresh(ctx, regNumber)
	return tender, err
}

// Refresh always fetches the live detail page, persists the result, and
// returns the raw page alongside the tender for snapshot export. A nil
// tender with nil error means no detail page exists for regNumber.
func (s *Service) Refresh(ctx context.Context, regNumber string) (*models.Tender, []byte, error) {
	detail, err := s.client.FetchDetails(ctx, regNumber)
	if err != nil {
		return nil, nil, fmt.Errorf("detail fetch for %s failed: %w", regNumber, err)
	}
	if detail == nil {
		log.Printf("[search] no detail page found for %s", regNumber)
		return nil, nil, nil
	}

	tender := fromDetail(detail)
	if s.repo != nil {
		if err := s.repo.Save(ctx, tender); err != nil {
			log.Printf("[search] failed to persist tender %s: %v", regNumber, err)
		}
	}
	return tender, detail.PageHTML, nil
}

// Stats aggregates a result set the way the dashboard presents it.
func Stats(results []models.SearchResult) models.SearchStats {
	stats := models.SearchStats{
		TotalCount: len(results),
		ByType:     make(map[models.TenderType]int),
		ByStatus:   make(map[models.TenderStatus]int),
	}
	if len(results) == 0 {
		return stats
	}

	stats.MinValue = results[0].Price
	for _, r := range results {
		stats.ByType[r.TenderType]++
		stats.ByStatus[r.Status]++
		stats.TotalValue = stats.TotalValue.Add(r.Price)
		if r.Price.LessThan(stats.MinValue) {
			stats.MinValue = r.Price
		}
		if r.Price.GreaterThan(stats.MaxValue) {
			stats.MaxValue = r.Price
		}
	}
	stats.AverageValue = stats.TotalValue.Div(decimal.NewFromInt(int64(len(results))))
	return stats
}

// cacheKey hashes the normalized criteria into a fixed-length key.
func cacheKey(criteria models.SearchCriteria) string {
	var filterParts []string
	f := criteria.Filters
	if f.PriceFrom != nil {
		filterParts = append(filterParts, "price_from="+f.PriceFrom.String())
	}
	if f.PriceTo != nil {
		filterParts = append(filterParts, "price_to="+f.PriceTo.String())
	}
	if f.DateFrom != "" {
		filterParts = append(filterParts, "date_from="+f.DateFrom)
	}
	if f.DateTo != "" {
		filterParts = append(filterParts, "date_to="+f.DateTo)
	}
	if f.Region != "" {
		filterParts = append(filterParts, "region="+f.Region)
	}
	if criteria.EnrichDetails {
		filterParts = append(filterParts, "enrich=1")
	}
	sort.Strings(filterParts)

	payload := fmt.Sprintf("%s_%d_%s",
		strings.ToLower(strings.TrimSpace(criteria.Query)),
		criteria.Limit,
		strings.Join(filterParts, "&"))
	sum := md5.Sum([]byte(payload))
	return "search:" + hex.EncodeToString(sum[:])
}

// toSearchResult validates the one structural invariant: a record must
// carry a registration number.
func toSearchResult(raw scrape.RawTender) (models.SearchResult, error) {
	if strings.TrimSpace(raw.RegNumber) == "" {
		return models.SearchResult{}, fmt.Errorf("record without registration number")
	}
	return models.SearchResult{
		RegNumber:  raw.RegNumber,
		Title:      raw.Title,
		Customer:   raw.Customer,
		Price:      raw.InitialPrice,
		TenderType: raw.TenderType,
		Status:     raw.Status,
		Deadline:   raw.Deadline,
		SourceURL:  raw.SourceURL,
		ParsedAt:   raw.ParsedAt,
	}, nil
}

func fromDetail(detail *scrape.RawDetail) *models.Tender {
	now := time.Now()
	return &models.Tender{
		ID:           uuid.New(),
		RegNumber:    detail.RegNumber,
		Title:        detail.Title,
		Customer:     detail.Customer,
		InitialPrice: detail.InitialPrice,
		Status:       models.StatusActive,
		TenderType:   models.TypeUnknown,
		Description:  detail.Description,
		Documents:    detail.Documents,
		Participants: detail.Participants,
		SourceURL:    detail.SourceURL,
		ParsedAt:     now,
		UpdatedAt:    now,
	}
}
