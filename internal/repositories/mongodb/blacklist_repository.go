package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure BlacklistRepository implements the interface
var _ repositories.BlacklistRepository = (*BlacklistRepository)(nil)

// BlacklistRepository implements the repositories.BlacklistRepository interface
type BlacklistRepository struct {
	collection *mongo.Collection
}

// NewBlacklistRepository creates a new BlacklistRepository
func NewBlacklistRepository(db *mongo.Database) *BlacklistRepository {
	return &BlacklistRepository{
		collection: db.Collection("blacklist"),
	}
}

// EnsureIndexes creates the lookup indexes and the unique merge-key index
func (r *BlacklistRepository) EnsureIndexes(ctx context.Context) error {
	single := []string{"type", "value", "risk_level", "reason_code", "status", "region", "source", "operator", "created_at", "updated_at", "expires_at"}
	indexes := make([]mongo.IndexModel, 0, len(single)+1)
	for _, field := range single {
		indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}})
	}
	indexes = append(indexes, mongo.IndexModel{
		Keys: bson.D{
			{Key: "type", Value: 1},
			{Key: "value", Value: 1},
			{Key: "reason_code", Value: 1},
			{Key: "region", Value: 1},
		},
		Options: options.Index().SetName("uniq_merge_key").SetUnique(true),
	})
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return wrapErr("create blacklist indexes", err)
	}
	return nil
}

// Create inserts a new record with version 1
func (r *BlacklistRepository) Create(ctx context.Context, rec *models.BlacklistRecord) error {
	rec.ID = primitive.NewObjectID()
	rec.Version = 1
	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		rec.ID = primitive.NilObjectID
		rec.Version = 0
		return wrapErr("insert blacklist record", err)
	}
	return nil
}

// FindByID finds a record by ID
func (r *BlacklistRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.BlacklistRecord, error) {
	var rec models.BlacklistRecord
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, wrapErr("find blacklist record", err)
	}
	return &rec, nil
}

// FindByMergeKey finds every record sharing (type, value, reason_code)
func (r *BlacklistRepository) FindByMergeKey(ctx context.Context, key models.MergeKey) ([]*models.BlacklistRecord, error) {
	filter := bson.M{"type": key.Type, "value": key.Value, "reason_code": key.ReasonCode}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	return r.find(ctx, filter, opts)
}

// ReplaceIfVersion replaces the stored document when its version matches
func (r *BlacklistRepository) ReplaceIfVersion(ctx context.Context, rec *models.BlacklistRecord, expectedVersion int64) error {
	rec.Version = expectedVersion + 1
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": rec.ID, "version": expectedVersion}, rec)
	if err != nil {
		rec.Version = expectedVersion
		return wrapErr("replace blacklist record", err)
	}
	if res.MatchedCount == 0 {
		rec.Version = expectedVersion
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": rec.ID})
		if err != nil {
			return wrapErr("check blacklist record", err)
		}
		if count == 0 {
			return fmt.Errorf("replace blacklist record %s: %w", rec.ID.Hex(), repositories.ErrNotFound)
		}
		return fmt.Errorf("replace blacklist record %s at version %d: %w", rec.ID.Hex(), expectedVersion, repositories.ErrConflict)
	}
	return nil
}

// Delete removes a record permanently
func (r *BlacklistRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapErr("delete blacklist record", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete blacklist record %s: %w", id.Hex(), repositories.ErrNotFound)
	}
	return nil
}

// List returns a page of records matching filter, newest-updated first
func (r *BlacklistRepository) List(ctx context.Context, filter models.BlacklistFilter, page, pageSize int) ([]*models.BlacklistRecord, int64, error) {
	query := bson.M{}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.RiskLevel != "" {
		query["risk_level"] = filter.RiskLevel
	}
	if filter.ReasonCode != "" {
		query["reason_code"] = filter.ReasonCode
	}
	if filter.Operator != "" {
		query["operator"] = filter.Operator
	}
	if filter.Query != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Query), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"value": pattern},
			bson.M{"company_name": pattern},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, wrapErr("count blacklist records", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))
	records, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// FindByTypeValue finds records for an entity, exact or fuzzy
func (r *BlacklistRepository) FindByTypeValue(ctx context.Context, entityType models.EntityType, value string, fuzzy bool, limit int) ([]*models.BlacklistRecord, error) {
	filter := bson.M{"type": entityType, "value": value}
	if fuzzy {
		filter["value"] = primitive.Regex{Pattern: regexp.QuoteMeta(value), Options: "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *BlacklistRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]*models.BlacklistRecord, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr("find blacklist records", err)
	}
	defer cursor.Close(ctx)

	var records []*models.BlacklistRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, wrapErr("decode blacklist records", err)
	}
	if records == nil {
		records = []*models.BlacklistRecord{}
	}
	return records, nil
}

// wrapErr translates driver errors into repository sentinels
func wrapErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, repositories.ErrDuplicateKey)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %v: %w", op, err, repositories.ErrUnavailable)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
