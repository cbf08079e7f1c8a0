package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/akozyrev/tenderwatch/internal/models"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://zakupki.gov.ru"

// detailKinds are the notice sub-types with their own detail URL template,
// in probing order.
var detailKinds = []string{"ea44", "ok44", "oa44", "ok504"}

func detailURL(baseURL, kind, regNumber string) string {
	return fmt.Sprintf("%s/epz/order/notice/%s/view/common-info.html?regNumber=%s", baseURL, kind, regNumber)
}

var captchaMarkers = []string{"капча", "captcha"}

// ClientConfig tunes the HTTP retrieval client.
type ClientConfig struct {
	BaseURL        string
	UserAgent      string
	AcceptLanguage string

	// Transport-level retry budgets for transient failures. Classified
	// HTTP outcomes (captcha/403/429/5xx) are never retried here.
	SearchRetries int
	DetailRetries int
	BackoffBase   time.Duration
	BackoffMax    time.Duration

	// CourtesyDelay is the minimum interval between requests against the
	// portal. This is politeness, not throughput tuning.
	CourtesyDelay time.Duration

	// RateLimitRPS overrides the courtesy delay with an explicit
	// requests-per-second cap when positive.
	RateLimitRPS float64

	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	DebugDir string
}

func (c *ClientConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = "ru-RU,ru;q=0.8,en-US;q=0.5,en;q=0.3"
	}
	if c.SearchRetries == 0 {
		c.SearchRetries = 5
	}
	if c.DetailRetries == 0 {
		c.DetailRetries = 3
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = 2 * time.Second
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = 20 * time.Second
	}
	if c.CourtesyDelay == 0 {
		c.CourtesyDelay = 500 * time.Millisecond
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 45 * time.Second
	}
}

// ZakupkiClient talks to the procurement portal over plain HTTP with a
// browser-like profile and one cookie session. Requests run sequentially;
// the connection pool is kept small on purpose so we do not trip the
// portal's anti-abuse defenses.
type ZakupkiClient struct {
	cfg     ClientConfig
	client  *http.Client
	limiter *rate.Limiter
	parser  *SearchParser
}

// NewZakupkiClient builds a client with a fresh cookie jar.
func NewZakupkiClient(cfg ClientConfig) *ZakupkiClient {
	cfg.applyDefaults()

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxConnsPerHost:       3,
		MaxIdleConns:          5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	jar, _ := cookiejar.New(nil)

	limit := rate.Every(cfg.CourtesyDelay)
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}

	return &ZakupkiClient{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
			Jar:       jar,
		},
		limiter: rate.NewLimiter(limit, 1),
		parser:  &SearchParser{BaseURL: cfg.BaseURL, DebugDir: cfg.DebugDir},
	}
}

// InitSession fetches the portal home page to pick up session cookies.
// Failure is logged and tolerated: the search may still succeed.
func (c *ZakupkiClient) InitSession(ctx context.Context) {
	homeURL := c.cfg.BaseURL + "/epz/main/public/home.html"
	_, status, err := c.get(ctx, homeURL, nil, 1)
	if err != nil {
		log.Printf("[client] session init failed: %v", err)
		return
	}
	if status != http.StatusOK {
		log.Printf("[client] session init returned HTTP %d", status)
		return
	}
	log.Printf("[client] session initialized")
}

// Search fetches one result-list page and parses it into raw records.
func (c *ZakupkiClient) Search(ctx context.Context, query string, limit int, filters models.SearchFilters) ([]RawTender, error) {
	searchURL := c.cfg.BaseURL + "/epz/order/extendedsearch/results.html"
	params := buildSearchParams(query, limit, filters)

	log.Printf("[client] searching %q limit=%d", query, limit)

	body, status, err := c.get(ctx, searchURL, params, c.cfg.SearchRetries)
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

// FetchDetails probes the known detail templates in order and accepts the
// first response whose body both names regNumber and carries the detail
// page marker. A nil result with nil error means no template matched.
func (c *ZakupkiClient) FetchDetails(ctx context.Context, regNumber string) (*RawDetail, error) {
	for _, kind := range detailKinds {
		u := detailURL(c.cfg.BaseURL, kind, regNumber)

		body, status, err := c.get(ctx, u, nil, c.cfg.DetailRetries)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[client] detail fetch %s failed: %v", kind, err)
			continue
		}
		if status == http.StatusNotFound {
			continue
		}
		if status != http.StatusOK {
			log.Printf("[client] detail template %s returned HTTP %d for %s", kind, status, regNumber)
			continue
		}

		if detail := ParseDetails(body, regNumber, u); detail != nil {
			log.Printf("[client] details loaded for %s via %s", regNumber, kind)
			return detail, nil
		}
	}

	log.Printf("[client] no detail page matched for %s", regNumber)
	return nil, nil
}

// DownloadDocument fetches an attachment through the same session.
func (c *ZakupkiClient) DownloadDocument(ctx context.Context, doc models.Document) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("bad document URL: %w", err)
	}
	c.setHeaders(req)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("document download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SiteError{StatusCode: resp.StatusCode, URL: doc.URL}
	}
	return io.ReadAll(resp.Body)
}

// get performs one GET with transport-level retries on transient errors.
// Classified HTTP statuses are returned to the caller untouched.
func (c *ZakupkiClient) get(ctx context.Context, rawURL string, params url.Values, attempts int) (string, int, error) {
	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.cfg.BackoffBase << uint(attempt-1)
			if delay > c.cfg.BackoffMax {
				delay = c.cfg.BackoffMax
			}
			jitter := time.Duration(rand.Intn(250)) * time.Millisecond
			select {
			case <-ctx.Done():
				return "", 0, ctx.Err()
			case <-time.After(delay + jitter):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", 0, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return "", 0, fmt.Errorf("failed to create request: %w", err)
		}
		c.setHeaders(req)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			if isTransient(err) {
				log.Printf("[client] transient error (attempt %d/%d): %v", attempt+1, attempts, err)
				continue
			}
			return "", 0, fmt.Errorf("request failed: %w", err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		return string(body), resp.StatusCode, nil
	}

	return "", 0, fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

func (c *ZakupkiClient) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", c.cfg.AcceptLanguage)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
}

// buildSearchParams produces the portal's extended-search parameter set.
func buildSearchParams(query string, limit int, filters models.SearchFilters) url.Values {
	// The portal only accepts fixed page sizes.
	pageSize := "_10"
	switch {
	case limit > 20:
		pageSize = "_50"
	case limit > 10:
		pageSize = "_20"
	}

	params := url.Values{}
	params.Set("morphology", "on")
	params.Set("search-filter", "Дате размещения")
	params.Set("pageNumber", "1")
	params.Set("sortDirection", "false")
	params.Set("recordsPerPage", pageSize)
	params.Set("showLotsInfoHidden", "false")
	params.Set("sortBy", "UPDATE_DATE")
	params.Set("fz44", "on")
	params.Set("fz223", "on")
	params.Set("af", "on")
	params.Set("ca", "on")
	params.Set("placingWay0", "on")
	params.Set("currencyIdGeneral", "-1")
	params.Set("searchString", strings.TrimSpace(query))

	if filters.PriceFrom != nil {
		params.Set("priceFromGeneral", filters.PriceFrom.String())
	}
	if filters.PriceTo != nil {
		params.Set("priceToGeneral", filters.PriceTo.String())
	}
	if filters.DateFrom != "" {
		params.Set("publishDateFrom", filters.DateFrom)
	}
	if filters.DateTo != "" {
		params.Set("publishDateTo", filters.DateTo)
	}
	if filters.Region != "" {
		params.Set("selectedSubjectsIdNameHidden", filters.Region)
	}

	return params
}

func classifyStatusCode(status int, u string) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusForbidden:
		return ErrBlocked
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &SiteError{StatusCode: status, URL: u}
	}
}

func hasCaptchaMarker(body string) bool {
	lower := strings.ToLower(body)
	for _, m := range captchaMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// isTransient reports whether err is worth another transport attempt.
func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
