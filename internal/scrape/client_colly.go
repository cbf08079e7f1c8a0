package scrape

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/akozyrev/tenderwatch/internal/models"
	"github.com/gocolly/colly/v2"
)

// CollyClient is the alternate retrieval client built on colly. It sits
// behind the same Client interface as ZakupkiClient and is never mixed into
// its control flow; use it when the portal starts rejecting the plain
// http.Client profile.
type CollyClient struct {
	cfg    ClientConfig
	parser *SearchParser

	mu        sync.Mutex
	collector *colly.Collector
}

// NewCollyClient builds a colly-backed client sharing the same config shape
// as the HTTP client.
func NewCollyClient(cfg ClientConfig) *CollyClient {
	cfg.applyDefaults()

	host := ""
	if u, err := url.Parse(cfg.BaseURL); err == nil {
		host = u.Host
	}

	delay := cfg.CourtesyDelay
	if cfg.RateLimitRPS > 0 {
		delay = time.Duration(float64(time.Second) / cfg.RateLimitRPS)
	}

	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowedDomains(host),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
		colly.MaxBodySize(10*1024*1024),
	)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       delay,
		RandomDelay: delay / 2,
	})
	c.SetRequestTimeout(cfg.RequestTimeout)

	return &CollyClient{
		cfg:       cfg,
		parser:    &SearchParser{BaseURL: cfg.BaseURL, DebugDir: cfg.DebugDir},
		collector: c,
	}
}

// InitSession warms up cookies via the home page.
func (c *CollyClient) InitSession(ctx context.Context) {
	if _, _, err := c.fetch(ctx, c.cfg.BaseURL+"/epz/main/public/home.html", nil, 1); err != nil {
		log.Printf("[colly] session init failed: %v", err)
		return
	}
	log.Printf("[colly] session initialized")
}

// Search mirrors ZakupkiClient.Search with colly doing the transport work.
func (c *CollyClient) Search(ctx context.Context, query string, limit int, filters models.SearchFilters) ([]RawTender, error) {
	searchURL := c.cfg.BaseURL + "/epz/order/extendedsearch/results.html"
	params := buildSearchParams(query, limit, filters)

	body, status, err := c.fetch(ctx, searchURL, params, c.cfg.SearchRetries)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if err := classifyStatusCode(status, searchURL); err != nil {
		return nil, err
	}
	if hasCaptchaMarker(body) {
		return nil, ErrCaptcha
	}

	results := c.parser.ParseSearchResults(body)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FetchDetails probes the detail templates like the HTTP client does.
func (c *CollyClient) FetchDetails(ctx context.Context, regNumber string) (*RawDetail, error) {
	for _, kind := range detailKinds {
		u := detailURL(c.cfg.BaseURL, kind, regNumber)
		body, status, err := c.fetch(ctx, u, nil, c.cfg.DetailRetries)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[colly] detail fetch %s failed: %v", kind, err)
			continue
		}
		if status != http.StatusOK {
			continue
		}
		if detail := ParseDetails(body, regNumber, u); detail != nil {
			return detail, nil
		}
	}
	return nil, nil
}

// DownloadDocument fetches an attachment through the collector session.
func (c *CollyClient) DownloadDocument(ctx context.Context, doc models.Document) ([]byte, error) {
	body, status, err := c.fetch(ctx, doc.URL, nil, c.cfg.DetailRetries)
	if err != nil {
		return nil, fmt.Errorf("document download failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, &SiteError{StatusCode: status, URL: doc.URL}
	}
	return []byte(body), nil
}

// fetch performs one visit and captures body and status, retrying transport
// failures up to attempts times. Colly's callbacks are collector-global, so
// visits are serialized.
func (c *CollyClient) fetch(ctx context.Context, rawURL string, params url.Values, attempts int) (string, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		return "", 0, ctx.Err()
	}

	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}

	var (
		body    []byte
		status  int
		lastErr error
	)

	col := c.collector.Clone()
	col.OnResponse(func(r *colly.Response) {
		body = r.Body
		status = r.StatusCode
	})
	col.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
		lastErr = err
		if r.Body != nil {
			body = r.Body
		}
	})

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", 0, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.cfg.BackoffBase):
			}
		}
		lastErr = nil
		if err := col.Visit(target); err != nil {
			lastErr = err
		}
		col.Wait()
		if status != 0 {
			// A classified status is an answer, not a transport failure.
			return string(body), status, nil
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no response from %s", target)
	}
	return "", 0, lastErr
}
