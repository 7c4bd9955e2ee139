package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
)

// NormalizeSubmission trims free-text identifiers so equal claims share a merge key
func NormalizeSubmission(s *models.Submission) {
	s.Value = strings.TrimSpace(s.Value)
	s.ReasonCode = strings.TrimSpace(s.ReasonCode)
	s.Source = strings.TrimSpace(s.Source)
	s.Region = strings.TrimSpace(s.Region)
	s.CompanyName = strings.TrimSpace(s.CompanyName)
}

// SubmissionKey returns the merge key of a candidate
func SubmissionKey(s *models.Submission) models.MergeKey {
	return models.MergeKey{Type: s.Type, Value: s.Value, ReasonCode: s.ReasonCode}
}

// RegionsCompatible reports whether two regions may describe the same incident.
// Only two non-empty, different regions keep claims apart.
func RegionsCompatible(a, b string) bool {
	return a == "" || b == "" || a == b
}

// SelectMergeTarget picks the record a candidate folds into, or nil when a new record is needed.
// existing must share the candidate's merge key and be ordered newest-updated first.
func SelectMergeTarget(existing []*models.BlacklistRecord, candidate *models.Submission) *models.BlacklistRecord {
	var fallback *models.BlacklistRecord
	for _, rec := range existing {
		region := rec.RegionValue()
		if !RegionsCompatible(region, candidate.Region) {
			continue
		}
		if region == candidate.Region {
			return rec
		}
		if fallback == nil {
			fallback = rec
		}
	}
	return fallback
}

// KeyCollision returns a record other than rec that shares rec's merge key with a
// compatible region, or nil. existing must share rec's merge key.
func KeyCollision(existing []*models.BlacklistRecord, rec *models.BlacklistRecord) *models.BlacklistRecord {
	for _, other := range existing {
		if other.ID == rec.ID {
			continue
		}
		if RegionsCompatible(other.RegionValue(), rec.RegionValue()) {
			return other
		}
	}
	return nil
}

// NewRecord builds the draft record for a candidate with no merge target
func NewRecord(candidate *models.Submission, actor *models.Actor, now time.Time, defaultExpiry time.Duration) *models.BlacklistRecord {
	rec := &models.BlacklistRecord{
		Type:        candidate.Type,
		Value:       candidate.Value,
		CompanyName: candidate.CompanyName,
		RiskLevel:   candidate.RiskLevel,
		ReasonCode:  candidate.ReasonCode,
		Reason:      candidate.Reason,
		Source:      candidate.Source,
		Sources:     []string{},
		Status:      models.StatusDraft,
		Visibility:  candidate.Visibility,
		Sensitive:   candidate.Sensitive,
		Operator:    actor.Username,
		Timeline: []models.TimelineEntry{
			{Action: models.ActionCreate, By: actor.Username, At: now},
		},
		Evidence:  []models.Evidence{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if candidate.Source != "" {
		rec.Sources = []string{candidate.Source}
	}
	if candidate.Region != "" {
		region := candidate.Region
		rec.Region = &region
	}
	if rec.Visibility == "" {
		rec.Visibility = models.VisibilityPublic
	}
	if candidate.ExpiresAt != nil {
		expires := candidate.ExpiresAt.UTC()
		rec.ExpiresAt = &expires
	} else {
		expires := now.Add(defaultExpiry)
		rec.ExpiresAt = &expires
	}
	return rec
}

// PlanMerge builds the single event that folds candidate into existing.
// Risk only escalates; the more severe reason travels with it.
func PlanMerge(existing *models.BlacklistRecord, candidate *models.Submission, actor *models.Actor, now time.Time) Event {
	event := Event{By: actor.Username, At: now}
	if candidate.Source != "" {
		event.Changes = append(event.Changes, MergeSource{Source: candidate.Source})
	}

	if candidate.RiskLevel.Rank() > existing.RiskLevel.Rank() {
		event.Action = models.ActionRiskUpgrade
		event.Note = fmt.Sprintf("%s -> %s", existing.RiskLevel, candidate.RiskLevel)
		if candidate.Source != "" {
			event.Note += ", 来源: " + candidate.Source
		}
		event.Changes = append(event.Changes,
			SetRiskLevel{RiskLevel: candidate.RiskLevel},
			SetReason{Reason: candidate.Reason},
		)
		return event
	}

	if candidate.Source != "" {
		event.Action = models.ActionMergeSource
		event.Note = "merge source: " + candidate.Source
		return event
	}

	event.Action = models.ActionMerge
	event.Note = "duplicate submission"
	return event
}
