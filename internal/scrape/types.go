package scrape

import (
	"context"
	"time"

	"github.com/akozyrev/tenderwatch/internal/models"
	"github.com/shopspring/decimal"
)

// RawTender is the untrusted record assembled from one search-result card.
// Only RegNumber is guaranteed; every other field degrades to a placeholder.
type RawTender struct {
	RegNumber    string
	Title        string
	Customer     string
	InitialPrice decimal.Decimal
	TenderType   models.TenderType
	Status       models.TenderStatus
	Deadline     *time.Time
	SourceURL    string
	ParsedAt     time.Time
}

// RawDetail carries the richer fields extracted from a detail page.
type RawDetail struct {
	RegNumber    string
	Title        string
	Customer     string
	InitialPrice decimal.Decimal
	Description  string
	Documents    []models.Document
	Participants []models.Participant
	SourceURL    string
	// PageHTML is the page the fields were extracted from, kept for
	// snapshot export. Never persisted.
	PageHTML []byte
}

// Client retrieves tender data from the portal. Implementations keep one
// cookie session; calls against the same Client must be serialized by the
// caller.
type Client interface {
	// InitSession warms the session up against the portal home page to
	// acquire cookies. Failure is tolerated and only logged.
	InitSession(ctx context.Context)

	// Search fetches and parses one result-list page. Site-defense
	// conditions (captcha, 403, 429) and non-200 statuses are returned as
	// classified errors, never retried here.
	Search(ctx context.Context, query string, limit int, filters models.SearchFilters) ([]RawTender, error)

	// FetchDetails probes the known detail URL templates for regNumber and
	// returns nil (no error) when none of them yields a genuine detail page.
	FetchDetails(ctx context.Context, regNumber string) (*RawDetail, error)

	// DownloadDocument fetches an attachment through the same session.
	DownloadDocument(ctx context.Context, doc models.Document) ([]byte, error)
}
