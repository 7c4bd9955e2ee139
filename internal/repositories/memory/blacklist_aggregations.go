package memory

import (
	"context"
	"sort"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
)

type offenderKey struct {
	Type  models.EntityType
	Value string
}

func (r *BlacklistRepository) AggregateOffenders(ctx context.Context, q models.OffenderQuery) ([]models.OffenderRow, int64, error) {
	records, err := r.collect(ctx, func(rec *models.BlacklistRecord) bool {
		switch {
		case rec.Status != models.StatusPublished,
			rec.Visibility == models.VisibilityPrivate,
			q.Type != "" && rec.Type != q.Type,
			q.RiskLevel != "" && rec.RiskLevel != q.RiskLevel,
			q.CreatedSince != nil && rec.CreatedAt.Before(*q.CreatedSince):
			return false
		}
		return true
	}, 0)
	if err != nil {
		return nil, 0, err
	}

	groups := make(map[offenderKey]*models.OffenderRow)
	for _, rec := range records {
		key := offenderKey{Type: rec.Type, Value: rec.Value}
		row, ok := groups[key]
		if !ok {
			row = &models.OffenderRow{Type: rec.Type, Value: rec.Value}
			groups[key] = row
		}
		row.Count++
		if rec.UpdatedAt.After(row.LastUpdated) {
			row.LastUpdated = rec.UpdatedAt
		}
		if score := rec.RiskLevel.Rank() + 1; score > row.Risk {
			row.Risk = score
		}
	}

	rows := make([]models.OffenderRow, 0, len(groups))
	for _, row := range groups {
		row.RiskLevel = models.RiskFromScore(row.Risk)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return offenderLess(q.Sort, rows[i], rows[j])
	})
	return paginate(rows, q.Page, q.PageSize), int64(len(rows)), nil
}

func offenderLess(by models.OffenderSort, a, b models.OffenderRow) bool {
	byCount := func() (bool, bool) { return a.Count > b.Count, a.Count != b.Count }
	byRecent := func() (bool, bool) { return a.LastUpdated.After(b.LastUpdated), !a.LastUpdated.Equal(b.LastUpdated) }
	byRisk := func() (bool, bool) { return a.Risk > b.Risk, a.Risk != b.Risk }

	var order []func() (bool, bool)
	switch by {
	case models.SortByRecent:
		order = append(order, byRecent, byCount)
	case models.SortByRisk:
		order = append(order, byRisk, byRecent, byCount)
	default:
		order = append(order, byCount, byRecent)
	}
	for _, cmp := range order {
		if less, decided := cmp(); decided {
			return less
		}
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Value < b.Value
}

func (r *BlacklistRepository) AggregateContributors(ctx context.Context, limit int) ([]models.ContributorRow, error) {
	records, err := r.collect(ctx, func(*models.BlacklistRecord) bool { return true }, 0)
	if err != nil {
		return nil, err
	}
	byOperator := make(map[string]*models.ContributorRow)
	for _, rec := range records {
		row, ok := byOperator[rec.Operator]
		if !ok {
			row = &models.ContributorRow{Operator: rec.Operator}
			byOperator[rec.Operator] = row
		}
		row.Total++
		if rec.Status == models.StatusPublished {
			row.Published++
		}
	}
	rows := make([]models.ContributorRow, 0, len(byOperator))
	for _, row := range byOperator {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		if rows[i].Published != rows[j].Published {
			return rows[i].Published > rows[j].Published
		}
		return rows[i].Operator < rows[j].Operator
	})
	return paginate(rows, 1, limit), nil
}

func (r *BlacklistRepository) AggregateReasonCodes(ctx context.Context, limit int) ([]models.ReasonCodeRow, error) {
	records, err := r.collect(ctx, func(*models.BlacklistRecord) bool { return true }, 0)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.ReasonCode]++
	}
	rows := make([]models.ReasonCodeRow, 0, len(counts))
	for code, count := range counts {
		rows = append(rows, models.ReasonCodeRow{ReasonCode: code, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].ReasonCode < rows[j].ReasonCode
	})
	return paginate(rows, 1, limit), nil
}
