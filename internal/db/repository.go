package db

import (
	"context"

	"github.com/akozyrev/tenderwatch/internal/models"
)

// TenderRepository persists tenders between detail fetches so the freshness
// window can short-circuit redundant portal traffic.
type TenderRepository interface {
	Save(ctx context.Context, tender *models.Tender) error
	GetByRegNumber(ctx context.Context, regNumber string) (*models.Tender, error)
	GetAll(ctx context.Context, limit int) ([]models.Tender, error)
	Delete(ctx context.Context, regNumber string) error
}
