package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories"
)

var _ repositories.TaxonomyRepository = (*TaxonomyRepository)(nil)

type taxonomyKey struct {
	kind models.TaxonomyKind
	code string
}

// TaxonomyRepository keeps reference enumerations in memory
type TaxonomyRepository struct {
	mu      sync.RWMutex
	entries map[taxonomyKey]models.TaxonomyEntry
}

func NewTaxonomyRepository() *TaxonomyRepository {
	return &TaxonomyRepository{entries: make(map[taxonomyKey]models.TaxonomyEntry)}
}

func (r *TaxonomyRepository) List(_ context.Context, kind models.TaxonomyKind) ([]models.TaxonomyEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.TaxonomyEntry{}
	for k, e := range r.entries {
		if k.kind == kind && e.Active {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (r *TaxonomyRepository) Find(_ context.Context, kind models.TaxonomyKind, code string) (*models.TaxonomyEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[taxonomyKey{kind: kind, code: code}]
	if !ok {
		return nil, fmt.Errorf("find enum %s/%s: %w", kind, code, repositories.ErrNotFound)
	}
	return &e, nil
}

func (r *TaxonomyRepository) SeedDefaults(_ context.Context, entries []models.TaxonomyEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		key := taxonomyKey{kind: e.Kind, code: e.Code}
		if _, ok := r.entries[key]; !ok {
			r.entries[key] = e
		}
	}
	return nil
}
