package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/cache"
	"github.com/blacklisthub/blacklisthub-backend/internal/metrics"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories"
	"github.com/blacklisthub/blacklisthub-backend/internal/workflow"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxPageSize = 100

// BlacklistOptions tunes a BlacklistService
type BlacklistOptions struct {
	DefaultExpiry time.Duration
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Cache         cache.LookupCache
	// Clock defaults to time.Now
	Clock func() time.Time
}

// BlacklistService owns every write to blacklist records: submissions, patches,
// evidence and deletes. Writes for one merge key or one record are serialized in
// process and committed with a version check.
type BlacklistService struct {
	repo          repositories.BlacklistRepository
	taxonomy      *TaxonomyService
	cache         cache.LookupCache
	metrics       *metrics.Metrics
	logger        *slog.Logger
	locks         *keyLocker
	now           func() time.Time
	defaultExpiry time.Duration
}

// NewBlacklistService creates a new BlacklistService. taxonomy may be nil to skip enumeration checks.
func NewBlacklistService(repo repositories.BlacklistRepository, taxonomy *TaxonomyService, opts BlacklistOptions) *BlacklistService {
	s := &BlacklistService{
		repo:          repo,
		taxonomy:      taxonomy,
		cache:         opts.Cache,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
		locks:         newKeyLocker(),
		now:           opts.Clock,
		defaultExpiry: opts.DefaultExpiry,
	}
	if s.cache == nil {
		s.cache = cache.NoopCache{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.defaultExpiry <= 0 {
		s.defaultExpiry = 180 * 24 * time.Hour
	}
	return s
}

// Submit folds a candidate claim into the record sharing its merge key or creates a draft
func (s *BlacklistService) Submit(ctx context.Context, sub models.Submission, actor *models.Actor) (*models.SubmitResult, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("authentication required")
	}
	workflow.NormalizeSubmission(&sub)
	if err := workflow.Validate(&sub); err != nil {
		return nil, err
	}
	if err := s.checkTaxonomy(ctx, sub.ReasonCode, sub.Source); err != nil {
		return nil, err
	}
	defer s.metrics.ObserveStore("submit", time.Now())

	key := workflow.SubmissionKey(&sub)
	unlock := s.locks.Lock("merge:" + key.String())
	defer unlock()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		result, action, err := s.submitOnce(ctx, &sub, actor)
		if retryable(err) {
			s.metrics.IncrementConflict()
			s.logger.Warn("submission raced with another writer, retrying",
				"key", key.String(), "attempt", attempt, "error", err)
			continue
		}
		if err != nil {
			return nil, storeError(err, "blacklist record")
		}

		s.metrics.IncrementSubmission(result.Merged, action == models.ActionRiskUpgrade)
		s.cache.Invalidate(ctx, result.Doc.Type, result.Doc.Value)
		s.logger.Info("submission stored",
			"id", result.Doc.ID.Hex(), "merged", result.Merged, "action", action,
			"risk_level", result.Doc.RiskLevel, "operator", actor.Username)
		return result, nil
	}
	return nil, apperrors.StoreUnavailable(errTooManyConflicts)
}

func (s *BlacklistService) submitOnce(ctx context.Context, sub *models.Submission, actor *models.Actor) (*models.SubmitResult, string, error) {
	existing, err := s.repo.FindByMergeKey(ctx, workflow.SubmissionKey(sub))
	if err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	target := workflow.SelectMergeTarget(existing, sub)
	if target == nil {
		rec := workflow.NewRecord(sub, actor, now, s.defaultExpiry)
		if err := s.repo.Create(ctx, rec); err != nil {
			return nil, "", err
		}
		return &models.SubmitResult{Merged: false, Doc: rec}, models.ActionCreate, nil
	}

	event := workflow.PlanMerge(target, sub, actor, now)
	merged := workflow.ApplyEvent(target, event)
	if err := s.repo.ReplaceIfVersion(ctx, merged, target.Version); err != nil {
		return nil, "", err
	}
	return &models.SubmitResult{Merged: true, Doc: merged}, event.Action, nil
}

// ApplyUpdate applies a partial patch to a record on behalf of actor
func (s *BlacklistService) ApplyUpdate(ctx context.Context, id primitive.ObjectID, req *models.UpdateRequest, actor *models.Actor) (*models.BlacklistRecord, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if req == nil {
		req = &models.UpdateRequest{}
	}
	defer s.metrics.ObserveStore("update", time.Now())

	unlock := s.locks.Lock("record:" + id.Hex())
	defer unlock()

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := workflow.CheckEditable(rec, actor); err != nil {
		return nil, err
	}
	patch, err := workflow.BuildPatch(req)
	if err != nil {
		return nil, err
	}
	reasonCode := ""
	if req.ReasonCode != nil {
		reasonCode = *req.ReasonCode
	}
	if err := s.checkTaxonomy(ctx, reasonCode, patch.Source); err != nil {
		return nil, err
	}

	if patch.MovesKey() {
		unlockKey := s.locks.Lock("merge:" + patch.KeyFor(rec).String())
		defer unlockKey()
	}

	before := rec.Status
	next, err := s.mutate(ctx, rec, func(current *models.BlacklistRecord) ([]workflow.Event, error) {
		events, err := workflow.PlanUpdate(current, patch, actor, s.now().UTC())
		if err != nil || !patch.MovesKey() {
			return events, err
		}
		if err := s.checkKeyCollision(ctx, current, workflow.ApplyEvents(current, events)); err != nil {
			return nil, err
		}
		return events, nil
	})
	if err != nil {
		return nil, err
	}

	if next.Status != before {
		s.metrics.IncrementTransition(string(before), string(next.Status))
	}
	s.logger.Info("blacklist record updated",
		"id", id.Hex(), "status", next.Status, "previous_status", before,
		"version", next.Version, "operator", actor.Username)
	return next, nil
}

// AddEvidence appends evidence metadata to a record
func (s *BlacklistService) AddEvidence(ctx context.Context, id primitive.ObjectID, req *models.EvidenceRequest, actor *models.Actor) (*models.BlacklistRecord, error) {
	if actor == nil {
		return nil, apperrors.Unauthorized("authentication required")
	}
	if err := workflow.Validate(req); err != nil {
		return nil, err
	}
	if len(req.Images) == 0 && req.Description == "" {
		return nil, apperrors.Validation("evidence needs images or a description")
	}

	unlock := s.locks.Lock("record:" + id.Hex())
	defer unlock()

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.mutate(ctx, rec, func(current *models.BlacklistRecord) ([]workflow.Event, error) {
		if err := workflow.CheckEditable(current, actor); err != nil {
			return nil, err
		}
		now := s.now().UTC()
		evidence := models.Evidence{
			Images:      append([]string(nil), req.Images...),
			Description: req.Description,
			UploadedBy:  actor.Username,
			UploadedAt:  now,
		}
		return []workflow.Event{{
			Action:  models.ActionAddEvidence,
			By:      actor.Username,
			At:      now,
			Changes: []workflow.Change{workflow.AppendEvidence{Evidence: evidence}},
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("evidence added", "id", id.Hex(), "images", len(req.Images), "operator", actor.Username)
	return next, nil
}

// mutate plans events against the freshest copy of rec and commits them with a
// version check, reloading and replanning on conflict.
func (s *BlacklistService) mutate(ctx context.Context, rec *models.BlacklistRecord, plan func(*models.BlacklistRecord) ([]workflow.Event, error)) (*models.BlacklistRecord, error) {
	current := rec
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		events, err := plan(current)
		if err != nil {
			return nil, err
		}
		next := workflow.ApplyEvents(current, events)
		err = s.repo.ReplaceIfVersion(ctx, next, current.Version)
		switch {
		case err == nil:
			s.cache.Invalidate(ctx, current.Type, current.Value)
			if next.Type != current.Type || next.Value != current.Value {
				s.cache.Invalidate(ctx, next.Type, next.Value)
			}
			return next, nil
		case errors.Is(err, repositories.ErrDuplicateKey):
			return nil, apperrors.Validation("another record already holds %s/%s with reason code %s in this region",
				next.Type, next.Value, next.ReasonCode)
		case errors.Is(err, repositories.ErrConflict):
			s.metrics.IncrementConflict()
			s.logger.Warn("blacklist record changed concurrently, retrying",
				"id", current.ID.Hex(), "version", current.Version, "attempt", attempt)
			if current, err = s.load(ctx, current.ID); err != nil {
				return nil, err
			}
		default:
			return nil, storeError(err, "blacklist record")
		}
	}
	return nil, apperrors.StoreUnavailable(errTooManyConflicts)
}

// checkKeyCollision rejects a patch that would leave next sharing its merge key and a
// compatible region with another record
func (s *BlacklistService) checkKeyCollision(ctx context.Context, current, next *models.BlacklistRecord) error {
	if next.Key() == current.Key() && next.RegionValue() == current.RegionValue() {
		return nil
	}
	existing, err := s.repo.FindByMergeKey(ctx, next.Key())
	if err != nil {
		return storeError(err, "blacklist records")
	}
	if other := workflow.KeyCollision(existing, next); other != nil {
		return apperrors.Validation("record %s already holds %s/%s with reason code %s in a compatible region",
			other.ID.Hex(), next.Type, next.Value, next.ReasonCode)
	}
	return nil
}

// Get returns one record
func (s *BlacklistService) Get(ctx context.Context, id primitive.ObjectID) (*models.BlacklistRecord, error) {
	return s.load(ctx, id)
}

// List returns a page of records matching filter
func (s *BlacklistService) List(ctx context.Context, filter models.BlacklistFilter, page, pageSize int) ([]*models.BlacklistRecord, int64, error) {
	if err := validatePage(page, pageSize); err != nil {
		return nil, 0, err
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, apperrors.Validation("invalid type: %s", filter.Type)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperrors.Validation("invalid status: %s", filter.Status)
	}
	if filter.RiskLevel != "" && !filter.RiskLevel.Valid() {
		return nil, 0, apperrors.Validation("invalid risk_level: %s", filter.RiskLevel)
	}
	records, total, err := s.repo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, 0, storeError(err, "blacklist records")
	}
	return records, total, nil
}

// Delete removes a record permanently. Only administrators may delete.
func (s *BlacklistService) Delete(ctx context.Context, id primitive.ObjectID, actor *models.Actor) error {
	if actor == nil {
		return apperrors.Unauthorized("authentication required")
	}
	if !workflow.CanDelete(actor.Role) {
		return apperrors.Permission("role %s cannot delete records", actor.Role)
	}

	unlock := s.locks.Lock("record:" + id.Hex())
	defer unlock()

	rec, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "blacklist record")
	}
	s.cache.Invalidate(ctx, rec.Type, rec.Value)
	s.logger.Warn("blacklist record deleted",
		"id", id.Hex(), "type", rec.Type, "status", rec.Status, "operator", actor.Username)
	return nil
}

func (s *BlacklistService) load(ctx context.Context, id primitive.ObjectID) (*models.BlacklistRecord, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "blacklist record")
	}
	return rec, nil
}

func (s *BlacklistService) checkTaxonomy(ctx context.Context, reasonCode, source string) error {
	if s.taxonomy == nil {
		return nil
	}
	if reasonCode != "" {
		if err := s.taxonomy.ValidReasonCode(ctx, reasonCode); err != nil {
			return err
		}
	}
	return s.taxonomy.ValidSource(ctx, source)
}

func validatePage(page, pageSize int) error {
	if page < 1 {
		return apperrors.Validation("page must be >= 1")
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return apperrors.Validation("pageSize must be between 1 and %d", maxPageSize)
	}
	return nil
}
