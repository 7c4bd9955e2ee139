package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure BlacklistRepository implements the interface
var _ repositories.BlacklistRepository = (*BlacklistRepository)(nil)

// BlacklistRepository is an in-process store with the same semantics as the MongoDB one,
// including the unique merge-key index and version checks.
type BlacklistRepository struct {
	mu      sync.RWMutex
	records map[primitive.ObjectID]*models.BlacklistRecord
}

// NewBlacklistRepository creates an empty store
func NewBlacklistRepository() *BlacklistRepository {
	return &BlacklistRepository{records: make(map[primitive.ObjectID]*models.BlacklistRecord)}
}

func (r *BlacklistRepository) Create(ctx context.Context, rec *models.BlacklistRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("insert blacklist record: %v: %w", err, repositories.ErrUnavailable)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.Key() == rec.Key() && existing.RegionValue() == rec.RegionValue() {
			return fmt.Errorf("insert blacklist record: duplicate merge key: %w", repositories.ErrDuplicateKey)
		}
	}
	rec.ID = primitive.NewObjectID()
	rec.Version = 1
	r.records[rec.ID] = rec.Clone()
	return nil
}

func (r *BlacklistRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlacklistRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("find blacklist record: %v: %w", err, repositories.ErrUnavailable)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("find blacklist record %s: %w", id.Hex(), repositories.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (r *BlacklistRepository) FindByMergeKey(ctx context.Context, key models.MergeKey) ([]*models.BlacklistRecord, error) {
	return r.collect(ctx, func(rec *models.BlacklistRecord) bool {
		return rec.Key() == key
	}, 0)
}

func (r *BlacklistRepository) ReplaceIfVersion(ctx context.Context, rec *models.BlacklistRecord, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("replace blacklist record: %v: %w", err, repositories.ErrUnavailable)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.records[rec.ID]
	if !ok {
		return fmt.Errorf("replace blacklist record %s: %w", rec.ID.Hex(), repositories.ErrNotFound)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("replace blacklist record %s at version %d: %w", rec.ID.Hex(), expectedVersion, repositories.ErrConflict)
	}
	for id, other := range r.records {
		if id != rec.ID && other.Key() == rec.Key() && other.RegionValue() == rec.RegionValue() {
			return fmt.Errorf("replace blacklist record %s: duplicate merge key: %w", rec.ID.Hex(), repositories.ErrDuplicateKey)
		}
	}
	rec.Version = expectedVersion + 1
	r.records[rec.ID] = rec.Clone()
	return nil
}

func (r *BlacklistRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete blacklist record: %v: %w", err, repositories.ErrUnavailable)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return fmt.Errorf("delete blacklist record %s: %w", id.Hex(), repositories.ErrNotFound)
	}
	delete(r.records, id)
	return nil
}

func (r *BlacklistRepository) List(ctx context.Context, filter models.BlacklistFilter, page, pageSize int) ([]*models.BlacklistRecord, int64, error) {
	query := strings.ToLower(filter.Query)
	all, err := r.collect(ctx, func(rec *models.BlacklistRecord) bool {
		switch {
		case filter.Type != "" && rec.Type != filter.Type,
			filter.Status != "" && rec.Status != filter.Status,
			filter.RiskLevel != "" && rec.RiskLevel != filter.RiskLevel,
			filter.ReasonCode != "" && rec.ReasonCode != filter.ReasonCode,
			filter.Operator != "" && rec.Operator != filter.Operator:
			return false
		}
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(rec.Value), query) ||
			strings.Contains(strings.ToLower(rec.CompanyName), query)
	}, 0)
	if err != nil {
		return nil, 0, err
	}
	return paginate(all, page, pageSize), int64(len(all)), nil
}

func (r *BlacklistRepository) FindByTypeValue(ctx context.Context, entityType models.EntityType, value string, fuzzy bool, limit int) ([]*models.BlacklistRecord, error) {
	needle := strings.ToLower(value)
	return r.collect(ctx, func(rec *models.BlacklistRecord) bool {
		if rec.Type != entityType {
			return false
		}
		if fuzzy {
			return strings.Contains(strings.ToLower(rec.Value), needle)
		}
		return rec.Value == value
	}, limit)
}

// collect returns clones of matching records, newest-updated first
func (r *BlacklistRepository) collect(ctx context.Context, match func(*models.BlacklistRecord) bool, limit int) ([]*models.BlacklistRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("find blacklist records: %v: %w", err, repositories.ErrUnavailable)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*models.BlacklistRecord{}
	for _, rec := range r.records {
		if match(rec) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func paginate[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
