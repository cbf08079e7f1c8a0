package db

import (
	"context"
	"sync"

	"github.com/akozyrev/tenderwatch/internal/models"
)

// MemoryRepository keeps tenders in a map, keyed by registration number.
// Used by tests and cache-free runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	tenders map[string]models.Tender
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tenders: make(map[string]models.Tender)}
}

func (r *MemoryRepository) Save(_ context.Context, tender *models.Tender) error {
	r.mu.Lock()
	r.tenders[tender.RegNumber] = *tender
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) GetByRegNumber(_ context.Context, regNumber string) (*models.Tender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenders[regNumber]
	if !ok {
		return nil, nil
	}
	copied := t
	return &copied, nil
}

func (r *MemoryRepository) GetAll(_ context.Context, limit int) ([]models.Tender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Tender, 0, len(r.tenders))
	for _, t := range r.tenders {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, regNumber string) error {
	r.mu.Lock()
	delete(r.tenders, regNumber)
	r.mu.Unlock()
	return nil
}
