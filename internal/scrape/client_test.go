package scrape

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akozyrev/tenderwatch/internal/models"
	"github.com/shopspring/decimal"
)

func testClient(baseURL string) *ZakupkiClient {
	return NewZakupkiClient(ClientConfig{
		BaseURL:       baseURL,
		SearchRetries: 3,
		DetailRetries: 2,
		BackoffBase:   time.Millisecond,
		BackoffMax:    2 * time.Millisecond,
		CourtesyDelay: time.Millisecond,
	})
}

func TestSearchRateLimitedNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Search(context.Background(), "школа", 10, models.SearchFilters{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("server hit %d times, want 1: classified statuses must not be retried", n)
	}
}

func TestSearchBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "школа", 10, models.SearchFilters{})
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("err = %v, want ErrBlocked", err)
	}
}

func TestSearchCaptcha(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body>Введите код с картинки (капча)</body></html>")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "школа", 10, models.SearchFilters{})
	if !errors.Is(err, ErrCaptcha) {
		t.Fatalf("err = %v, want ErrCaptcha", err)
	}
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "школа", 10, models.SearchFilters{})
	var siteErr *SiteError
	if !errors.As(err, &siteErr) {
		t.Fatalf("err = %v, want *SiteError", err)
	}
	if siteErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", siteErr.StatusCode)
	}
}

func TestSearchParsesAndTruncates(t *testing.T) {
	page := resultsPage(
		card("0173200001425000111", "Выполнение проектных работ по реконструкции здания",
			"ГБУ Стройзаказчик", "2 450 000,00 ₽", ""),
		card("0173200001425000222", "Разработка проектной документации благоустройства",
			"Администрация района", "1 200 000,00 ₽", ""),
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("searchString"); got != "проектирование" {
			t.Errorf("searchString = %q", got)
		}
		if got := r.URL.Query().Get("recordsPerPage"); got != "_10" {
			t.Errorf("recordsPerPage = %q, want _10", got)
		}
		io.WriteString(w, page)
	}))
	defer srv.Close()

	results, err := testClient(srv.URL).Search(context.Background(), "проектирование", 1, models.SearchFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (limit truncation)", len(results))
	}
	if results[0].RegNumber != "0173200001425000111" {
		t.Errorf("RegNumber = %q", results[0].RegNumber)
	}
}

func TestFetchDetailsProbesTemplates(t *testing.T) {
	detailBody := detailPage(`
		<span class="cardMainInfo__title">Извещение № ` + detailRegNumber + ` на проектирование</span>
		<span class="cardMainInfo__price">5 600 000,00 ₽</span>`)

	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if strings.Contains(r.URL.Path, "/notice/ok44/") {
			io.WriteString(w, detailBody)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d, err := testClient(srv.URL).FetchDetails(context.Background(), detailRegNumber)
	if err != nil {
		t.Fatal(err)
	}
	if d == nil {
		t.Fatal("detail = nil, want parsed record")
	}
	if !d.InitialPrice.Equal(decimal.RequireFromString("5600000")) {
		t.Errorf("InitialPrice = %s", d.InitialPrice)
	}

	if len(paths) != 2 {
		t.Fatalf("probed %d URLs, want 2 (ea44 then ok44): %v", len(paths), paths)
	}
	if !strings.Contains(paths[0], "/notice/ea44/") || !strings.Contains(paths[1], "/notice/ok44/") {
		t.Errorf("probe order = %v", paths)
	}
}

func TestFetchDetailsNoTemplateMatches(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d, err := testClient(srv.URL).FetchDetails(context.Background(), detailRegNumber)
	if err != nil {
		t.Fatal(err)
	}
	if d != nil {
		t.Fatalf("detail = %+v, want nil", d)
	}
	if hits != len(detailKinds) {
		t.Errorf("probed %d templates, want %d", hits, len(detailKinds))
	}
}

func TestRateLimitRPSOverridesCourtesyDelay(t *testing.T) {
	c := NewZakupkiClient(ClientConfig{RateLimitRPS: 4})
	if got := float64(c.limiter.Limit()); got != 4 {
		t.Errorf("limiter limit = %v rps, want 4", got)
	}

	c = NewZakupkiClient(ClientConfig{CourtesyDelay: 500 * time.Millisecond})
	if got := float64(c.limiter.Limit()); got != 2 {
		t.Errorf("limiter limit = %v rps, want 2 from the 500ms courtesy delay", got)
	}
}

func TestDownloadDocument(t *testing.T) {
	const payload = "%PDF-1.4 содержимое"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/filestore/ok" {
			io.WriteString(w, payload)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	data, err := c.DownloadDocument(context.Background(), models.Document{URL: srv.URL + "/filestore/ok"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != payload {
		t.Errorf("content = %q", data)
	}

	_, err = c.DownloadDocument(context.Background(), models.Document{URL: srv.URL + "/filestore/denied"})
	var siteErr *SiteError
	if !errors.As(err, &siteErr) || siteErr.StatusCode != http.StatusForbidden {
		t.Fatalf("err = %v, want SiteError 403", err)
	}
}

func TestBuildSearchParams(t *testing.T) {
	from := decimal.NewFromInt(100000)
	to := decimal.NewFromInt(5000000)
	params := buildSearchParams("  ремонт  ", 25, models.SearchFilters{
		PriceFrom: &from,
		PriceTo:   &to,
		DateFrom:  "01.01.2025",
		DateTo:    "31.03.2025",
		Region:    "Москва",
	})

	if got := params.Get("searchString"); got != "ремонт" {
		t.Errorf("searchString = %q, want trimmed", got)
	}
	if got := params.Get("recordsPerPage"); got != "_50" {
		t.Errorf("recordsPerPage = %q, want _50", got)
	}
	if got := params.Get("priceFromGeneral"); got != "100000" {
		t.Errorf("priceFromGeneral = %q", got)
	}
	if got := params.Get("publishDateTo"); got != "31.03.2025" {
		t.Errorf("publishDateTo = %q", got)
	}
	if got := params.Get("fz44"); got != "on" {
		t.Errorf("fz44 = %q, want on", got)
	}

	if got := buildSearchParams("x", 15, models.SearchFilters{}).Get("recordsPerPage"); got != "_20" {
		t.Errorf("limit 15: recordsPerPage = %q, want _20", got)
	}
	if got := buildSearchParams("x", 10, models.SearchFilters{}).Get("recordsPerPage"); got != "_10" {
		t.Errorf("limit 10: recordsPerPage = %q, want _10", got)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"net timeout", timeoutErr{}, true},
		{"op error", &net.OpError{Op: "read", Err: errors.New("connection reset")}, true},
		{"unexpected EOF", io.ErrUnexpectedEOF, true},
		{"plain error", errors.New("no such host in a shape we do not know"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransient(tt.err); got != tt.want {
				t.Errorf("isTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
