package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/cache"
	"github.com/blacklisthub/blacklisthub-backend/internal/metrics"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories"
	"golang.org/x/sync/errgroup"
)

const (
	// detailedRecordLimit caps the record digests returned by a detailed lookup
	detailedRecordLimit = 5
	// enhancedScanLimit caps the records a fuzzy lookup summarizes
	enhancedScanLimit   = 500
	defaultRankingLimit = 10
	maxRankingLimit     = 50
	maxLookupValueLen   = 500
	redactedReason      = "***"
)

// OffenderParams is the raw defaulters query as received from a client
type OffenderParams struct {
	Type      string
	RiskLevel string
	Sort      string
	Range     string
	Page      int
	PageSize  int
}

// LookupService answers read-only questions about the blacklist
type LookupService struct {
	repo    repositories.BlacklistRepository
	cache   cache.LookupCache
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewLookupService creates a new LookupService. lookupCache, m and clock may be nil.
func NewLookupService(repo repositories.BlacklistRepository, lookupCache cache.LookupCache, m *metrics.Metrics, logger *slog.Logger, clock func() time.Time) *LookupService {
	if lookupCache == nil {
		lookupCache = cache.NoopCache{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = time.Now
	}
	return &LookupService{repo: repo, cache: lookupCache, metrics: m, logger: logger, now: clock}
}

// Lookup reports whether an exact (type, value) is currently blacklisted
func (s *LookupService) Lookup(ctx context.Context, entityType models.EntityType, value string) (*models.LookupResult, error) {
	value, err := validateLookup(entityType, value)
	if err != nil {
		return nil, err
	}
	cached, gen, ok := s.cache.Get(ctx, entityType, value)
	if ok {
		s.metrics.IncrementLookup("exact", cached.Hit, true)
		return cached, nil
	}

	records, err := s.repo.FindByTypeValue(ctx, entityType, value, false, 0)
	if err != nil {
		return nil, storeError(err, "blacklist records")
	}
	now := s.now()
	result := summarize(entityType, value, records, now)
	s.cache.Set(ctx, result, gen, validFor(records, now))
	s.metrics.IncrementLookup("exact", result.Hit, false)
	return result, nil
}

// EnhancedLookup matches value as a case-insensitive substring. When detailed and hit,
// it adds digests of published public records and a summary over every matched record.
func (s *LookupService) EnhancedLookup(ctx context.Context, entityType models.EntityType, value string, detailed bool) (*models.LookupResult, error) {
	value, err := validateLookup(entityType, value)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.FindByTypeValue(ctx, entityType, value, true, enhancedScanLimit)
	if err != nil {
		return nil, storeError(err, "blacklist records")
	}

	now := s.now()
	result := summarize(entityType, value, records, now)
	s.metrics.IncrementLookup("enhanced", result.Hit, false)
	if !detailed || !result.Hit {
		return result, nil
	}

	result.Records = []models.RecordDigest{}
	summary := &models.LookupSummary{
		TotalRecords: len(records),
		RiskDistribution: map[models.RiskLevel]int{
			models.RiskLow:    0,
			models.RiskMedium: 0,
			models.RiskHigh:   0,
		},
	}
	for _, rec := range records {
		active := rec.IsActive(now)
		if active {
			summary.ActiveRecords++
		}
		summary.RiskDistribution[rec.RiskLevel]++
		if summary.LatestActivity == nil || rec.UpdatedAt.After(*summary.LatestActivity) {
			latest := rec.UpdatedAt
			summary.LatestActivity = &latest
		}
		if publicDigest(rec) && len(result.Records) < detailedRecordLimit {
			result.Records = append(result.Records, digest(rec, active))
		}
	}
	result.Summary = summary
	return result, nil
}

// RankOffenders pages published, non-private records grouped by (type, value)
func (s *LookupService) RankOffenders(ctx context.Context, params OffenderParams) (*models.OffenderPage, error) {
	q, err := s.offenderQuery(params)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.AggregateOffenders(ctx, q)
	if err != nil {
		return nil, storeError(err, "offenders")
	}
	return &models.OffenderPage{Items: rows, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

func (s *LookupService) offenderQuery(p OffenderParams) (models.OffenderQuery, error) {
	q := models.OffenderQuery{
		Type:      models.EntityType(p.Type),
		RiskLevel: models.RiskLevel(p.RiskLevel),
		Sort:      models.OffenderSort(p.Sort),
		Page:      p.Page,
		PageSize:  p.PageSize,
	}
	if q.Type != "" && !q.Type.Valid() {
		return q, apperrors.Validation("invalid type: %s", p.Type)
	}
	if q.RiskLevel != "" && !q.RiskLevel.Valid() {
		return q, apperrors.Validation("invalid risk_level: %s", p.RiskLevel)
	}
	switch q.Sort {
	case "":
		q.Sort = models.SortByCount
	case models.SortByCount, models.SortByRecent, models.SortByRisk:
	default:
		return q, apperrors.Validation("invalid sort: %s", p.Sort)
	}

	now := s.now().UTC()
	switch models.TimeRange(p.Range) {
	case "", models.RangeAll:
	case models.RangeWeek:
		since := now.AddDate(0, 0, -7)
		q.CreatedSince = &since
	case models.RangeMonth:
		since := now.AddDate(0, -1, 0)
		q.CreatedSince = &since
	default:
		return q, apperrors.Validation("invalid range: %s", p.Range)
	}

	if err := validatePage(q.Page, q.PageSize); err != nil {
		return q, err
	}
	return q, nil
}

// Rankings computes the contributor and reason code leaderboards concurrently
func (s *LookupService) Rankings(ctx context.Context, limit int) (*models.Rankings, error) {
	if limit == 0 {
		limit = defaultRankingLimit
	}
	if limit < 0 || limit > maxRankingLimit {
		return nil, apperrors.Validation("limit must be between 1 and %d", maxRankingLimit)
	}

	var rankings models.Rankings
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.AggregateContributors(gctx, limit)
		rankings.Contributors = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.AggregateReasonCodes(gctx, limit)
		rankings.ReasonCodes = rows
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("rankings aggregation failed", "error", err)
		return nil, storeError(err, "rankings")
	}
	return &rankings, nil
}

func validateLookup(entityType models.EntityType, value string) (string, error) {
	if !entityType.Valid() {
		return "", apperrors.Validation("invalid type: %s", entityType)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperrors.Validation("value is required")
	}
	if len(value) > maxLookupValueLen {
		return "", apperrors.Validation("value must be at most %d characters", maxLookupValueLen)
	}
	return value, nil
}

// summarize builds the hit/miss answer. records are newest-updated first; status and
// updated_at report the latest known state even when that record is not active.
func summarize(entityType models.EntityType, value string, records []*models.BlacklistRecord, now time.Time) *models.LookupResult {
	result := &models.LookupResult{Type: entityType, Value: value}
	sources := map[string]struct{}{}
	for _, rec := range records {
		if !rec.IsActive(now) {
			continue
		}
		if !result.Hit || rec.RiskLevel.Rank() > result.RiskLevel.Rank() {
			result.RiskLevel = rec.RiskLevel
		}
		result.Hit = true
		for _, src := range rec.Sources {
			sources[src] = struct{}{}
		}
	}
	if !result.Hit {
		return result
	}
	result.SourcesCount = len(sources)
	result.Status = records[0].Status
	updated := records[0].UpdatedAt
	result.UpdatedAt = &updated
	return result
}

// validFor is how long an answer over records stays correct: until the first active record expires
func validFor(records []*models.BlacklistRecord, now time.Time) time.Duration {
	var ttl time.Duration
	for _, rec := range records {
		if !rec.IsActive(now) || rec.ExpiresAt == nil {
			continue
		}
		if left := rec.ExpiresAt.Sub(now); ttl == 0 || left < ttl {
			ttl = left
		}
	}
	return ttl
}

// publicDigest reports whether rec may be shown to anonymous callers. Unreviewed,
// rejected and retracted claims never are.
func publicDigest(rec *models.BlacklistRecord) bool {
	return rec.Status == models.StatusPublished && rec.Visibility == models.VisibilityPublic
}

func digest(rec *models.BlacklistRecord, active bool) models.RecordDigest {
	d := models.RecordDigest{
		ID:         rec.ID.Hex(),
		Type:       rec.Type,
		Value:      rec.Value,
		RiskLevel:  rec.RiskLevel,
		ReasonCode: rec.ReasonCode,
		Reason:     rec.Reason,
		Status:     rec.Status,
		Region:     rec.Region,
		Active:     active,
		UpdatedAt:  rec.UpdatedAt,
	}
	if rec.Sensitive {
		d.Reason = redactedReason
	}
	return d
}
