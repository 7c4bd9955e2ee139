package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
	"github.com/blacklisthub/blacklisthub-backend/internal/repositories"
)

// TaxonomyService exposes the reason code, source and region enumerations
type TaxonomyService struct {
	repo   repositories.TaxonomyRepository
	logger *slog.Logger
}

// NewTaxonomyService creates a new TaxonomyService
func NewTaxonomyService(repo repositories.TaxonomyRepository, logger *slog.Logger) *TaxonomyService {
	return &TaxonomyService{repo: repo, logger: logger}
}

// List returns the active entries of kind
func (s *TaxonomyService) List(ctx context.Context, kind models.TaxonomyKind) ([]models.TaxonomyEntry, error) {
	entries, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, storeError(err, "taxonomy")
	}
	return entries, nil
}

// ValidReasonCode returns a validation error unless code is an active reason code
func (s *TaxonomyService) ValidReasonCode(ctx context.Context, code string) error {
	return s.check(ctx, models.TaxonomyReasonCode, code)
}

// ValidSource returns a validation error unless source is empty or an active source
func (s *TaxonomyService) ValidSource(ctx context.Context, source string) error {
	if source == "" {
		return nil
	}
	return s.check(ctx, models.TaxonomySource, source)
}

func (s *TaxonomyService) check(ctx context.Context, kind models.TaxonomyKind, code string) error {
	entry, err := s.repo.Find(ctx, kind, code)
	if err != nil {
		if err = storeError(err, string(kind)); errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Validation("unknown %s: %s", kind, code)
		}
		return err
	}
	if !entry.Active {
		return apperrors.Validation("%s %s is no longer in use", kind, code)
	}
	return nil
}

// SeedDefaults fills in missing default entries
func (s *TaxonomyService) SeedDefaults(ctx context.Context) error {
	if err := s.repo.SeedDefaults(ctx, models.DefaultTaxonomy); err != nil {
		return storeError(err, "taxonomy")
	}
	s.logger.Info("taxonomy defaults ensured", "entries", len(models.DefaultTaxonomy))
	return nil
}
