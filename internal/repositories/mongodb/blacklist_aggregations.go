package mongodb

import (
	"context"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// riskScore maps risk_level to 1..3 inside a pipeline
var riskScore = bson.M{"$switch": bson.M{
	"branches": bson.A{
		bson.M{"case": bson.M{"$eq": bson.A{"$risk_level", string(models.RiskHigh)}}, "then": 3},
		bson.M{"case": bson.M{"$eq": bson.A{"$risk_level", string(models.RiskMedium)}}, "then": 2},
		bson.M{"case": bson.M{"$eq": bson.A{"$risk_level", string(models.RiskLow)}}, "then": 1},
	},
	"default": 0,
}}

func offenderSort(sort models.OffenderSort) bson.D {
	switch sort {
	case models.SortByRecent:
		return bson.D{{Key: "lastUpdated", Value: -1}, {Key: "count", Value: -1}, {Key: "_id", Value: 1}}
	case models.SortByRisk:
		return bson.D{{Key: "risk", Value: -1}, {Key: "lastUpdated", Value: -1}, {Key: "count", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "count", Value: -1}, {Key: "lastUpdated", Value: -1}, {Key: "_id", Value: 1}}
	}
}

// AggregateOffenders groups published public records by (type, value) and pages the groups
func (r *BlacklistRepository) AggregateOffenders(ctx context.Context, q models.OffenderQuery) ([]models.OffenderRow, int64, error) {
	match := bson.M{
		"status":     models.StatusPublished,
		"visibility": bson.M{"$ne": models.VisibilityPrivate},
	}
	if q.Type != "" {
		match["type"] = q.Type
	}
	if q.RiskLevel != "" {
		match["risk_level"] = q.RiskLevel
	}
	if q.CreatedSince != nil {
		match["created_at"] = bson.M{"$gte": *q.CreatedSince}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":         bson.M{"type": "$type", "value": "$value"},
			"count":       bson.M{"$sum": 1},
			"lastUpdated": bson.M{"$max": "$updated_at"},
			"risk":        bson.M{"$max": riskScore},
		}}},
		{{Key: "$facet", Value: bson.M{
			"items": bson.A{
				bson.M{"$sort": offenderSort(q.Sort)},
				bson.M{"$skip": int64((q.Page - 1) * q.PageSize)},
				bson.M{"$limit": int64(q.PageSize)},
				bson.M{"$project": bson.M{
					"_id":         0,
					"type":        "$_id.type",
					"value":       "$_id.value",
					"count":       1,
					"lastUpdated": 1,
					"risk":        1,
				}},
			},
			"total": bson.A{bson.M{"$count": "total"}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, wrapErr("aggregate offenders", err)
	}
	defer cursor.Close(ctx)

	var facets []struct {
		Items []models.OffenderRow `bson:"items"`
		Total []struct {
			Total int64 `bson:"total"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, 0, wrapErr("decode offenders", err)
	}

	items := []models.OffenderRow{}
	var total int64
	if len(facets) > 0 {
		if facets[0].Items != nil {
			items = facets[0].Items
		}
		if len(facets[0].Total) > 0 {
			total = facets[0].Total[0].Total
		}
	}
	for i := range items {
		items[i].RiskLevel = models.RiskFromScore(items[i].Risk)
	}
	return items, total, nil
}

// AggregateContributors ranks operators by submitted and published records
func (r *BlacklistRepository) AggregateContributors(ctx context.Context, limit int) ([]models.ContributorRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$operator",
			"total": bson.M{"$sum": 1},
			"published": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.StatusPublished}}, 1, 0},
			}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}, {Key: "published", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
	rows := []models.ContributorRow{}
	if err := r.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, wrapErr("aggregate contributors", err)
	}
	return rows, nil
}

// AggregateReasonCodes ranks reason codes by number of records
func (r *BlacklistRepository) AggregateReasonCodes(ctx context.Context, limit int) ([]models.ReasonCodeRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$reason_code", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
	rows := []models.ReasonCodeRow{}
	if err := r.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, wrapErr("aggregate reason codes", err)
	}
	return rows, nil
}

func (r *BlacklistRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}
