package workflow

import (
	"time"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
)

// Event is one audited mutation: a set of field changes plus the timeline entry recording it
type Event struct {
	Action  string
	By      string
	At      time.Time
	Note    string
	Changes []Change
}

// Entry returns the timeline line for the event
func (e Event) Entry() models.TimelineEntry {
	return models.TimelineEntry{Action: e.Action, By: e.By, At: e.At, Note: e.Note}
}

// ApplyEvent returns a copy of record with the event's changes applied and its entry appended.
// The input record is never modified.
func ApplyEvent(record *models.BlacklistRecord, event Event) *models.BlacklistRecord {
	next := record.Clone()
	for _, change := range event.Changes {
		change.apply(next)
	}
	next.Timeline = append(next.Timeline, event.Entry())
	next.UpdatedAt = event.At
	return next
}

// ApplyEvents folds ApplyEvent over events in order
func ApplyEvents(record *models.BlacklistRecord, events []Event) *models.BlacklistRecord {
	out := record
	for _, event := range events {
		out = ApplyEvent(out, event)
	}
	return out
}

func illegal(from, to models.Status) error {
	return apperrors.IllegalTransition(string(from), string(to))
}

func forbidden(format string, args ...any) error {
	return apperrors.Permission(format, args...)
}
