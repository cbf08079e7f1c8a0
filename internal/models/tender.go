package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TenderStatus is the lifecycle state of a tender as published by the portal.
type TenderStatus string

const (
	StatusActive    TenderStatus = "active"
	StatusCompleted TenderStatus = "completed"
	StatusCancelled TenderStatus = "cancelled"
	StatusDraft     TenderStatus = "draft"
)

// TenderType classifies the procurement regime a tender is published under.
type TenderType string

const (
	TypeFZ44       TenderType = "44-fz"
	TypeFZ223      TenderType = "223-fz"
	TypeCommercial TenderType = "commercial"
	TypeUnknown    TenderType = "unknown"
)

// Document is a file attached to a tender notice.
type Document struct {
	Name             string    `json:"name"`
	URL              string    `json:"url"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	FileSize         int64     `json:"file_size,omitempty"`
	FileType         string    `json:"file_type,omitempty"`
	DownloadPath     string    `json:"download_path,omitempty"`
	Processed        bool      `json:"processed"`
	CreatedAt        time.Time `json:"created_at"`
}

// Participant is a bidder on a tender.
type Participant struct {
	Name     string `json:"name"`
	INN      string `json:"inn,omitempty"`
	KPP      string `json:"kpp,omitempty"`
	Address  string `json:"address,omitempty"`
	IsWinner bool   `json:"is_winner"`
}

// Tender is the canonical procurement record. RegNumber is the portal's
// unique identifier; a tender without one is never constructed.
type Tender struct {
	ID           uuid.UUID        `json:"id"`
	RegNumber    string           `json:"reg_number"`
	Title        string           `json:"title"`
	Customer     string           `json:"customer"`
	InitialPrice decimal.Decimal  `json:"initial_price"`
	WinnerPrice  *decimal.Decimal `json:"winner_price,omitempty"`
	Status       TenderStatus     `json:"status"`
	TenderType   TenderType       `json:"tender_type"`

	Description               string     `json:"description,omitempty"`
	ApplicationDeadline       *time.Time `json:"application_deadline,omitempty"`
	ContractExecutionDeadline *time.Time `json:"contract_execution_deadline,omitempty"`

	Documents    []Document    `json:"documents"`
	Participants []Participant `json:"participants"`

	SourceURL string    `json:"source_url"`
	ParsedAt  time.Time `json:"parsed_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddDocument appends a document to the tender.
func (t *Tender) AddDocument(d Document) {
	t.Documents = append(t.Documents, d)
}

// AddParticipant appends a participant to the tender.
func (t *Tender) AddParticipant(p Participant) {
	t.Participants = append(t.Participants, p)
}

// Winner returns the winning participant, if one is marked.
func (t *Tender) Winner() *Participant {
	for i := range t.Participants {
		if t.Participants[i].IsWinner {
			return &t.Participants[i]
		}
	}
	return nil
}

// IsOpen reports whether the tender still accepts applications.
func (t *Tender) IsOpen(now time.Time) bool {
	return t.Status == StatusActive &&
		t.ApplicationDeadline != nil &&
		t.ApplicationDeadline.After(now)
}

// DiscountPercent returns the winner's discount against the initial price,
// or nil when there is no winner price or the initial price is zero.
func (t *Tender) DiscountPercent() *float64 {
	if t.WinnerPrice == nil || t.InitialPrice.IsZero() {
		return nil
	}
	diff := t.InitialPrice.Sub(*t.WinnerPrice)
	ratio, _ := diff.Div(t.InitialPrice).Mul(decimal.NewFromInt(100)).Float64()
	return &ratio
}
