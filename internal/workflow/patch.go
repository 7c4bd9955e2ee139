package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/blacklisthub/blacklisthub-backend/internal/models"
)

// Change is one typed field update. The set of implementations is closed to this package.
type Change interface {
	apply(r *models.BlacklistRecord)
	Field() string
}

type SetType struct{ Type models.EntityType }
type SetValue struct{ Value string }
type SetCompanyName struct{ CompanyName string }
type SetReason struct{ Reason string }
type SetReasonCode struct{ ReasonCode string }
type SetRiskLevel struct{ RiskLevel models.RiskLevel }
type SetVisibility struct{ Visibility models.Visibility }
type SetSensitive struct{ Sensitive bool }
type SetExpiresAt struct{ ExpiresAt time.Time }
type SetStatus struct{ Status models.Status }

// SetRegion clears the region when Region is empty
type SetRegion struct{ Region string }

// MergeSource unions Source into sources and makes it the primary source
type MergeSource struct{ Source string }

// AppendEvidence adds one evidence item
type AppendEvidence struct{ Evidence models.Evidence }

func (c SetType) apply(r *models.BlacklistRecord)        { r.Type = c.Type }
func (c SetValue) apply(r *models.BlacklistRecord)       { r.Value = c.Value }
func (c SetCompanyName) apply(r *models.BlacklistRecord) { r.CompanyName = c.CompanyName }
func (c SetReason) apply(r *models.BlacklistRecord)      { r.Reason = c.Reason }
func (c SetReasonCode) apply(r *models.BlacklistRecord)  { r.ReasonCode = c.ReasonCode }
func (c SetRiskLevel) apply(r *models.BlacklistRecord)   { r.RiskLevel = c.RiskLevel }
func (c SetVisibility) apply(r *models.BlacklistRecord)  { r.Visibility = c.Visibility }
func (c SetSensitive) apply(r *models.BlacklistRecord)   { r.Sensitive = c.Sensitive }
func (c SetStatus) apply(r *models.BlacklistRecord)      { r.Status = c.Status }

func (c SetExpiresAt) apply(r *models.BlacklistRecord) {
	expires := c.ExpiresAt
	r.ExpiresAt = &expires
}

func (c SetRegion) apply(r *models.BlacklistRecord) {
	if c.Region == "" {
		r.Region = nil
		return
	}
	region := c.Region
	r.Region = &region
}

func (c MergeSource) apply(r *models.BlacklistRecord) {
	if !r.HasSource(c.Source) {
		r.Sources = append(r.Sources, c.Source)
	}
	r.Source = c.Source
}

func (c AppendEvidence) apply(r *models.BlacklistRecord) {
	r.Evidence = append(r.Evidence, c.Evidence)
}

func (SetType) Field() string        { return "type" }
func (SetValue) Field() string       { return "value" }
func (SetCompanyName) Field() string { return "company_name" }
func (SetReason) Field() string      { return "reason" }
func (SetReasonCode) Field() string  { return "reason_code" }
func (SetRiskLevel) Field() string   { return "risk_level" }
func (SetVisibility) Field() string  { return "visibility" }
func (SetSensitive) Field() string   { return "sensitive" }
func (SetExpiresAt) Field() string   { return "expires_at" }
func (SetStatus) Field() string      { return "status" }
func (SetRegion) Field() string      { return "region" }
func (MergeSource) Field() string    { return "source" }
func (AppendEvidence) Field() string { return "evidence" }

// Patch is a validated partial update: an optional status change, field changes and an optional source merge
type Patch struct {
	Status  *models.Status
	Source  string
	Changes []Change
}

// MovesKey reports whether the patch touches the merge key or the region
func (p Patch) MovesKey() bool {
	for _, c := range p.Changes {
		switch c.(type) {
		case SetType, SetValue, SetReasonCode, SetRegion:
			return true
		}
	}
	return false
}

// KeyFor returns the merge key record would carry once the patch is applied
func (p Patch) KeyFor(record *models.BlacklistRecord) models.MergeKey {
	return ApplyEvent(record, Event{Changes: p.Changes}).Key()
}

// BuildPatch validates req and converts it into a Patch
func BuildPatch(req *models.UpdateRequest) (Patch, error) {
	if err := Validate(req); err != nil {
		return Patch{}, err
	}
	var p Patch
	p.Status = req.Status
	if req.Type != nil {
		p.Changes = append(p.Changes, SetType{Type: *req.Type})
	}
	if req.Value != nil {
		p.Changes = append(p.Changes, SetValue{Value: strings.TrimSpace(*req.Value)})
	}
	if req.CompanyName != nil {
		p.Changes = append(p.Changes, SetCompanyName{CompanyName: *req.CompanyName})
	}
	if req.Reason != nil {
		p.Changes = append(p.Changes, SetReason{Reason: *req.Reason})
	}
	if req.ReasonCode != nil {
		p.Changes = append(p.Changes, SetReasonCode{ReasonCode: *req.ReasonCode})
	}
	if req.RiskLevel != nil {
		p.Changes = append(p.Changes, SetRiskLevel{RiskLevel: *req.RiskLevel})
	}
	if req.Region != nil {
		p.Changes = append(p.Changes, SetRegion{Region: strings.TrimSpace(*req.Region)})
	}
	if req.Visibility != nil {
		p.Changes = append(p.Changes, SetVisibility{Visibility: *req.Visibility})
	}
	if req.Sensitive != nil {
		p.Changes = append(p.Changes, SetSensitive{Sensitive: *req.Sensitive})
	}
	if req.ExpiresAt != nil {
		p.Changes = append(p.Changes, SetExpiresAt{ExpiresAt: req.ExpiresAt.UTC()})
	}
	if req.Source != nil {
		p.Source = strings.TrimSpace(*req.Source)
	}
	return p, nil
}

// PlanUpdate checks actor's rights over record and turns patch into the events to apply.
// It yields an optional merge_source event followed by exactly one status or update event,
// so every accepted patch extends the timeline even when it changes no field.
func PlanUpdate(record *models.BlacklistRecord, patch Patch, actor *models.Actor, now time.Time) ([]Event, error) {
	if err := CheckEditable(record, actor); err != nil {
		return nil, err
	}

	statusChanged := patch.Status != nil && *patch.Status != record.Status
	if statusChanged {
		if err := Authorize(actor, record.Status, *patch.Status); err != nil {
			return nil, err
		}
	}

	var events []Event
	if patch.Source != "" {
		events = append(events, Event{
			Action:  models.ActionMergeSource,
			By:      actor.Username,
			At:      now,
			Note:    "merge source: " + patch.Source,
			Changes: []Change{MergeSource{Source: patch.Source}},
		})
	}

	main := Event{By: actor.Username, At: now, Changes: append([]Change(nil), patch.Changes...)}
	if statusChanged {
		main.Action = ActionFor(*patch.Status)
		main.Note = fmt.Sprintf("%s -> %s", record.Status, *patch.Status)
		main.Changes = append(main.Changes, SetStatus{Status: *patch.Status})
	} else {
		main.Action = models.ActionUpdate
		main.Note = describeFields(patch.Changes)
	}
	return append(events, main), nil
}

func describeFields(changes []Change) string {
	if len(changes) == 0 {
		return "no field changes"
	}
	fields := make([]string, 0, len(changes))
	for _, c := range changes {
		fields = append(fields, c.Field())
	}
	return "fields: " + strings.Join(fields, ",")
}
