package mongodb

import (
	"context"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure TaxonomyRepository implements the interface
var _ repositories.TaxonomyRepository = (*TaxonomyRepository)(nil)

// TaxonomyRepository reads reason codes, sources and regions from the enums collection
type TaxonomyRepository struct {
	collection *mongo.Collection
}

// NewTaxonomyRepository creates a new TaxonomyRepository
func NewTaxonomyRepository(db *mongo.Database) *TaxonomyRepository {
	return &TaxonomyRepository{
		collection: db.Collection("enums"),
	}
}

// EnsureIndexes makes (kind, code) unique
func (r *TaxonomyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "kind", Value: 1}, {Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return wrapErr("create enums index", err)
	}
	return nil
}

// List returns the active entries of kind ordered for display
func (r *TaxonomyRepository) List(ctx context.Context, kind models.TaxonomyKind) ([]models.TaxonomyEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "code", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"kind": kind, "active": true}, opts)
	if err != nil {
		return nil, wrapErr("find enums", err)
	}
	defer cursor.Close(ctx)

	entries := []models.TaxonomyEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, wrapErr("decode enums", err)
	}
	return entries, nil
}

// Find finds one entry by kind and code
func (r *TaxonomyRepository) Find(ctx context.Context, kind models.TaxonomyKind, code string) (*models.TaxonomyEntry, error) {
	var entry models.TaxonomyEntry
	if err := r.collection.FindOne(ctx, bson.M{"kind": kind, "code": code}).Decode(&entry); err != nil {
		return nil, wrapErr("find enum", err)
	}
	return &entry, nil
}

// SeedDefaults upserts entries without overwriting ones an administrator already edited
func (r *TaxonomyRepository) SeedDefaults(ctx context.Context, entries []models.TaxonomyEntry) error {
	if len(entries) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, 0, len(entries))
	for _, e := range entries {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"kind": e.Kind, "code": e.Code}).
			SetUpdate(bson.M{"$setOnInsert": e}).
			SetUpsert(true))
	}
	if _, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return wrapErr("seed enums", err)
	}
	return nil
}
