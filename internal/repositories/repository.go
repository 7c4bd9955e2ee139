package repositories

import (
	"context"
	"errors"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel errors for storage facts. Implementations wrap these; services translate them.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("version conflict")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrUnavailable  = errors.New("unavailable")
)

// BlacklistRepository defines the interface for blacklist record storage
type BlacklistRepository interface {
	// Create inserts rec and assigns its ID. Returns ErrDuplicateKey when a record with the
	// same merge key and region already exists.
	Create(ctx context.Context, rec *models.BlacklistRecord) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlacklistRecord, error)
	// FindByMergeKey returns every record sharing key, newest-updated first
	FindByMergeKey(ctx context.Context, key models.MergeKey) ([]*models.BlacklistRecord, error)
	// ReplaceIfVersion stores rec only if the stored version still equals expectedVersion,
	// then sets rec.Version to expectedVersion+1. Returns ErrConflict on a version mismatch
	// and ErrDuplicateKey when the new fields collide with another record's merge key and region.
	ReplaceIfVersion(ctx context.Context, rec *models.BlacklistRecord, expectedVersion int64) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, filter models.BlacklistFilter, page, pageSize int) ([]*models.BlacklistRecord, int64, error)
	// FindByTypeValue matches value exactly, or as a case-insensitive substring when fuzzy.
	// Results are newest-updated first; limit <= 0 means no limit.
	FindByTypeValue(ctx context.Context, entityType models.EntityType, value string, fuzzy bool, limit int) ([]*models.BlacklistRecord, error)
	AggregateOffenders(ctx context.Context, q models.OffenderQuery) ([]models.OffenderRow, int64, error)
	AggregateContributors(ctx context.Context, limit int) ([]models.ContributorRow, error)
	AggregateReasonCodes(ctx context.Context, limit int) ([]models.ReasonCodeRow, error)
}

// UserRepository defines the interface for the contributor account store
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// TaxonomyRepository defines the interface for reference enumerations
type TaxonomyRepository interface {
	List(ctx context.Context, kind models.TaxonomyKind) ([]models.TaxonomyEntry, error)
	Find(ctx context.Context, kind models.TaxonomyKind, code string) (*models.TaxonomyEntry, error)
	// SeedDefaults inserts entries whose (kind, code) is missing
	SeedDefaults(ctx context.Context, entries []models.TaxonomyEntry) error
}
